package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/minhvu-dev/courseloop-backend/pkg/enums"
)

// Enrollment ties a user to a course and carries the payment reconciliation
// state. Status tracks learning progress only; PaymentStatus is the orthogonal
// payment flag and flips false→true exactly once per verified successful IPN.
// OrderID is the most recent gateway reference and is unique across rows, so
// an inbound IPN resolves to at most one enrollment.
type Enrollment struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_enrollments_user_course"`
	CourseID      uuid.UUID              `gorm:"column:course_id;type:uuid;not null;uniqueIndex:idx_enrollments_user_course"`
	OrderID       *string                `gorm:"column:order_id;uniqueIndex"`
	PaymentStatus bool                   `gorm:"column:payment_status;not null;default:false"`
	Progress      float64                `gorm:"column:progress;not null;default:0"`
	Status        enums.EnrollmentStatus `gorm:"column:status;type:enrollment_status;not null;default:'unfinished'"`
	NotifiedAt    *time.Time             `gorm:"column:notified_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
