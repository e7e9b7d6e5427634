package notify

import "errors"

var (
	// ErrSend reports that the mail transport rejected or failed a message.
	ErrSend = errors.New("notification send failed")
	// ErrNoRecipient is returned for a profile without a usable address.
	ErrNoRecipient = errors.New("recipient has no usable address")
	// ErrUnknownKind is returned when a job names no known template.
	ErrUnknownKind = errors.New("unknown notification kind")
)
