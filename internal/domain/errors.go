package domain

import "errors"

var (
	// ErrValidation marks malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrUserNotFound       = errors.New("user not found")
	// ErrNotFound is returned for absent resources and for resources owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration is fatal at startup.
	ErrConfiguration   = errors.New("configuration error")
	ErrInvalidDuration = errors.New("invalid duration")
)
