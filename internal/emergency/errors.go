package emergency

import "errors"

var (
	ErrNotFound          = errors.New("emergency: not found")
	ErrInvalidTransition = errors.New("emergency: invalid state transition")
	ErrInvalidInput      = errors.New("emergency: invalid input")
)
