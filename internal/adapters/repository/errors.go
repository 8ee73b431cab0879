package repository

import "errors"

// Sentinel kinds for archive errors.
var (
	ErrUnknownClub = errors.New("club not configured")
	ErrNilGraph    = errors.New("nil season graph")
)
