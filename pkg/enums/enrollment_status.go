package enums

import "fmt"

// EnrollmentStatus tracks learning progress for an enrollment. Payment outcome
// is carried separately on the enrollment row and never folded into this enum.
type EnrollmentStatus string

const (
	EnrollmentStatusUnfinished EnrollmentStatus = "unfinished"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
)

var validEnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusUnfinished,
	EnrollmentStatusCompleted,
}

// String implements fmt.Stringer.
func (s EnrollmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EnrollmentStatus.
func (s EnrollmentStatus) IsValid() bool {
	for _, candidate := range validEnrollmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEnrollmentStatus converts raw input into an EnrollmentStatus.
func ParseEnrollmentStatus(value string) (EnrollmentStatus, error) {
	for _, candidate := range validEnrollmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid enrollment status %q", value)
}
