package users

import "errors"

var (
	// ErrUserNotFound is returned when a login does not exist in the store
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when adding a login that is already taken
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidLogin is returned for an empty login
	ErrInvalidLogin = errors.New("invalid login")
)
