package auth

import "errors"

// Resolve failures. Each is returned wrapped in an UNAUTHORIZED error and can
// be matched with errors.Is.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
	ErrUserNotFound = errors.New("session user not found")
)
