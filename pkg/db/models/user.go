package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
)

// User is the shared identity behind admins, teachers and students. The role
// tag decides which capabilities apply; there is no inheritance chain.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null;default:'student'"`
	AvatarURL *string        `gorm:"column:avatar_url"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
