package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoSource   = errors.New("no match source configured")
	ErrNoClubs    = errors.New("no clubs configured")
	ErrRunning    = errors.New("a run is already in progress")
	ErrSinkFailed = errors.New("artifact sink failed")
)
