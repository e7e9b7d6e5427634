package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrProfilePersistence = errors.New("profile persistence failed")
	ErrCandidatesFetch    = errors.New("candidate pool unavailable")
)
