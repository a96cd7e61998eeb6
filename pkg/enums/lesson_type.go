package enums

import "fmt"

// LessonType tags the content kind of a lesson.
type LessonType string

const (
	LessonTypeText  LessonType = "text"
	LessonTypeVideo LessonType = "video"
	LessonTypeFile  LessonType = "file"
	LessonTypeImage LessonType = "image"
)

var validLessonTypes = []LessonType{
	LessonTypeText,
	LessonTypeVideo,
	LessonTypeFile,
	LessonTypeImage,
}

// String implements fmt.Stringer.
func (t LessonType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LessonType.
func (t LessonType) IsValid() bool {
	for _, candidate := range validLessonTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLessonType converts raw input into a LessonType.
func ParseLessonType(value string) (LessonType, error) {
	for _, candidate := range validLessonTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lesson type %q", value)
}
