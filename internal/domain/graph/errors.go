package graph

import "errors"

// Sentinel error kinds for graph construction.
var (
	ErrInvalidGraph = errors.New("invalid season graph")
)
