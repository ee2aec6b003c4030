package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized")
	ErrUnauthorized = errors.New("unauthorized")
	ErrCacheMiss    = errors.New("cache miss")
	ErrLockHeld     = errors.New("lock already held")
	ErrInvalidInput = errors.New("invalid input")
)
