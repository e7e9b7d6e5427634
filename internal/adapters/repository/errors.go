package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("profile not found")
	ErrClosed         = errors.New("store closed")
	ErrInvalidProfile = errors.New("invalid profile")
	ErrUnknownDriver  = errors.New("unknown store driver")
)
