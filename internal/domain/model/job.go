package model

// BuildJob asks a worker to aggregate and build the graph of one unit.
type BuildJob struct {
	JobID string // run-scoped identifier for log correlation
	Unit  Unit
}
