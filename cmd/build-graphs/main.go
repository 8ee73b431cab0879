package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/squadgraph/internal/batch"
)

const defaultBuildTimeout = 10 * time.Minute

func main() {
	var (
		dataDir   = flag.String("data", "", "Directory with scraped match files (default from config)")
		outputDir = flag.String("out", "", "Output directory for artifacts (default from config)")
		clubs     = flag.String("clubs", "", "Comma separated club tokens")
		workers   = flag.Int("workers", 0, "Number of build workers (default CPU cores)")
		limit     = flag.Int("limit", 0, "Truncate each change list in transition files; 0 writes full lists")
		topN      = flag.Int("top", 0, "Length of each summary ranking")
		verify    = flag.Bool("verify", false, "Re-read the artifacts and recompute every transition")
		logFile   = flag.String("log", "", "Also write log output to this file")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		batch.ShowHelp()
		return
	}

	closeLog, err := batch.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultBuildTimeout)

	cfg := &batch.Config{
		DataDir:         *dataDir,
		OutputDir:       *outputDir,
		Clubs:           splitClubs(*clubs),
		Workers:         *workers,
		ChangeListLimit: *limit,
		TopN:            *topN,
		Verify:          *verify,
		LogFile:         *logFile,
		Verbose:         *verbose,
	}

	_, err = batch.Run(ctx, cfg)
	cancel()
	stop()
	_ = closeLog()
	if err != nil {
		os.Stderr.WriteString("Build failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func splitClubs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
