package user

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")
	ErrNameRequired = errors.New("fullName cannot be empty")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	ErrInvalidRole  = errors.New("invalid role")
	ErrNotAllowed   = errors.New("not authorized to perform this action")
)
