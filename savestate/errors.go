package savestate

import "errors"

var (
	ErrFormatMismatch       = errors.New("not a save state")
	ErrVersionMismatch      = errors.New("unsupported save state version")
	ErrIdentityMismatch     = errors.New("save state belongs to a different ROM")
	ErrTruncated            = errors.New("save state truncated")
	ErrMissingResumeContext = errors.New("no current instruction to resume from")
)
