package enrollment

import "errors"

var (
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	ErrNotEnrolled     = errors.New("student is not enrolled in this course")
	ErrAlreadyPaid     = errors.New("enrollment is already paid")
	ErrInvalidSection  = errors.New("no section exists at this position")
	ErrForbidden       = errors.New("not authorized to view these enrollments")
)
