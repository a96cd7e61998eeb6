package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is the catalog entity enrollments are sold against. Price is stored
// in integer minor units; the quoted gateway amount is always recomputed from
// PriceCents, never taken from the client.
type Course struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title        string     `gorm:"column:title;not null"`
	Description  *string    `gorm:"column:description"`
	PriceCents   int64      `gorm:"column:price_cents;not null"`
	Currency     string     `gorm:"column:currency;not null;default:'VND'"`
	ImageURL     *string    `gorm:"column:image_url"`
	TeacherID    uuid.UUID  `gorm:"column:teacher_id;type:uuid;not null"`
	CategoryID   *uuid.UUID `gorm:"column:category_id;type:uuid"`
	IsSequential bool       `gorm:"column:is_sequential;not null;default:false"`
	IsPublic     bool       `gorm:"column:is_public;not null;default:false"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Chapters []Chapter `gorm:"foreignKey:CourseID"`
}

// Category groups courses in the catalog.
type Category struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"column:name;not null"`
}
