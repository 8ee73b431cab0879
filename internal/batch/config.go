// Package batch runs the season graph pipeline once from the command line,
// optionally checks the written artifacts and reports run statistics.
package batch

import "time"

// Config holds the options of a one-shot build.
type Config struct {
	DataDir         string   // Directory with scraped match files
	OutputDir       string   // Directory receiving the artifacts
	Clubs           []string // Club tokens; empty keeps the defaults
	Workers         int      // Build workers; 0 keeps the default
	ChangeListLimit int      // Truncates transition change lists; 0 keeps them whole
	TopN            int      // Length of each summary ranking
	Verify          bool     // Re-read the artifacts and recompute transitions
	LogFile         string   // Optional log file next to stdout
	Verbose         bool     // Enable debug logging
}

// Stats holds the statistics of one batch run.
type Stats struct {
	RunID              string
	Units              int
	GraphsBuilt        int
	FailedUnits        int
	Matches            int
	RecordsSkipped     int
	Duplicates         int
	Transitions        int
	SinkErrors         int
	GraphsVerified     int
	TransitionsChecked int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
