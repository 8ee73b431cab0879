package model

import "errors"

// Sentinel error kinds for the domain model.
var (
	ErrSelfPair      = errors.New("pair members must be distinct players")
	ErrInvalidSeason = errors.New("invalid season key")
	ErrInvalidClub   = errors.New("invalid club identifier")
)
