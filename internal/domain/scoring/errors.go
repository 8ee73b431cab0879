package scoring

import "errors"

// Sentinel error kinds for transition scoring.
var (
	ErrSeasonMismatch = errors.New("season mismatch")
	ErrClubMismatch   = errors.New("club mismatch")
	ErrNilGraph       = errors.New("nil season graph")
)
