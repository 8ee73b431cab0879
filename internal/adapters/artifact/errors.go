package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrMalformedLine = errors.New("malformed graph line")
	ErrUnsafeName    = errors.New("player name cannot be written")
)
