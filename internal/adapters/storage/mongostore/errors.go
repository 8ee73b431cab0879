package mongostore

import "errors"

// ErrNotConnected is returned when the sink has no database handle.
var ErrNotConnected = errors.New("mongo sink not connected")
