package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionInvalid     = errors.New("session invalid or expired")
	ErrEmptyDisplayName   = errors.New("display name cannot be empty")
)
