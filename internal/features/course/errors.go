package course

import "errors"

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrTitleRequired   = errors.New("title cannot be empty")
	ErrNegativePrice   = errors.New("price cannot be negative")
	ErrForbidden       = errors.New("not authorized to manage this course")
	ErrHasEnrollments  = errors.New("course has active enrollments")
	ErrSectionRequired = errors.New("section title and video reference are required")
)
