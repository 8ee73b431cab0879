package ingest

import "errors"

// Sentinel kinds for ingest errors.
var (
	ErrUnknownFormat = errors.New("unknown lineup file format")
	ErrNoData        = errors.New("no lineup file for unit")
)
