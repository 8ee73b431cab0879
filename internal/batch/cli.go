package batch

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/squadgraph/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initialises the global logger on stdout and, when logFile is
// set, on that file too. The returned close function releases the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	var w io.Writer = os.Stdout
	closeFn := func() error { return nil }

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the build tool.
func ShowHelp() {
	os.Stdout.WriteString(`Season Graph Builder
====================

Builds one co-occurrence graph per club and season from scraped lineups,
scores every pair of consecutive seasons and writes the artifacts.

Usage:
  go run ./cmd/build-graphs [options]

Options:
  -data string
        Directory with {club}_{start}_{end}.json|.txt files (default "data")
  -out string
        Output directory for artifacts (default "output")
  -clubs string
        Comma separated club tokens (default: the five configured clubs)
  -workers int
        Number of build workers (default CPU cores)
  -limit int
        Truncate each change list in transition files; 0 writes full lists
  -top int
        Length of each summary ranking (default 10)
  -verify
        Re-read the written artifacts and recompute every transition
  -log string
        Also write log output to this file
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Build everything under ./data
  go run ./cmd/build-graphs

  # Two clubs, short change lists, checked artifacts
  go run ./cmd/build-graphs -clubs fc_barcelona,real_madryt -limit 20 -verify
`)
}
