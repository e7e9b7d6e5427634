package recorder

import "errors"

var (
	// ErrPersistence reports that a match could not be stored durably.
	// The selection it describes still stands.
	ErrPersistence = errors.New("match persistence failed")
	// ErrInvalidRecord rejects a record missing a party or with a score outside [0,1].
	ErrInvalidRecord = errors.New("invalid match record")
)
