// Package config defines the pipeline configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// SQUAD_CONFIG, then SQUAD_* environment variables.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/squadgraph/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the scraped {club}_{start}_{end}.json|.txt files.
	DataDir string `koanf:"data_dir"`

	// OutputDir receives graph, transition and summary artifacts.
	OutputDir string `koanf:"output_dir"`

	// WorkerCount sets the number of graph build workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the build job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the match de-duplication cache per unit.
	DedupeSize int `koanf:"dedupe_size"`

	// Clubs lists the club tokens the archive accepts.
	Clubs []string `koanf:"clubs"`

	// Teams maps a club token to the team name used in match records.
	Teams map[string]string `koanf:"teams"`

	// FirstSeason and LastSeason bound the season start years; 0 = unbounded.
	FirstSeason int `koanf:"first_season"`
	LastSeason  int `koanf:"last_season"`

	// ChangeListLimit truncates each change list in transition artifacts.
	// 0 writes full lists.
	ChangeListLimit int `koanf:"change_list_limit"`

	// SummaryTopN is the length of each summary ranking.
	SummaryTopN int `koanf:"summary_top_n"`

	// MongoURI enables the MongoDB sink when set.
	MongoURI       string `koanf:"mongo_uri"`
	MongoDatabase  string `koanf:"mongo_database"`
	MongoTimeoutMS int    `koanf:"mongo_timeout_ms"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		DataDir:     "data",
		OutputDir:   "output",
		WorkerCount: runtime.NumCPU(),
		QueueSize:   1024,
		DedupeSize:  10_000,
		Clubs: []string{
			"athletic_bilbao",
			"atletico_madryt",
			"fc_barcelona",
			"real_madryt",
			"villarreal_cf",
		},
		Teams:          map[string]string{},
		SummaryTopN:    10,
		MongoDatabase:  "squadgraph",
		MongoTimeoutMS: 5000,
	}
}

// ClubIDs returns the configured clubs as validated tokens.
func (c *Config) ClubIDs() ([]model.ClubID, error) {
	out := make([]model.ClubID, 0, len(c.Clubs))
	for _, s := range c.Clubs {
		id, err := model.ParseClubID(s)
		if err != nil {
			return nil, fmt.Errorf("%w: clubs: %w", ErrInvalidConfig, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// TeamNames returns the configured team names keyed by club token.
func (c *Config) TeamNames() map[model.ClubID]string {
	out := make(map[model.ClubID]string, len(c.Teams))
	for k, v := range c.Teams {
		out[model.ClubID(k)] = v
	}
	return out
}

// MongoTimeout returns the MongoDB operation timeout.
func (c *Config) MongoTimeout() time.Duration {
	return time.Duration(c.MongoTimeoutMS) * time.Millisecond
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case len(c.Clubs) == 0:
		return fmt.Errorf("%w: at least one club is required", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ChangeListLimit < 0:
		return fmt.Errorf("%w: change_list_limit must not be negative", ErrInvalidConfig)
	case c.FirstSeason != 0 && c.LastSeason != 0 && c.FirstSeason > c.LastSeason:
		return fmt.Errorf("%w: first_season %d after last_season %d", ErrInvalidConfig, c.FirstSeason, c.LastSeason)
	case c.MongoURI != "" && c.MongoTimeoutMS <= 0:
		return fmt.Errorf("%w: mongo_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := c.ClubIDs(); err != nil {
		return err
	}
	for club := range c.Teams {
		if _, err := model.ParseClubID(club); err != nil {
			return fmt.Errorf("%w: teams: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
