package mongostore

import (
	"time"

	"github.com/okian/squadgraph/pkg/logger"
)

// Option applies a configuration option to the Sink.
type Option func(*Sink)

// WithTimeout bounds every database call.
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithChangeListLimit truncates change lists in stored transitions. 0 keeps
// full lists.
func WithChangeListLimit(n int) Option {
	return func(s *Sink) {
		if n >= 0 {
			s.limit = n
		}
	}
}

// WithCollectionPrefix prefixes the graphs, transitions and summaries
// collection names.
func WithCollectionPrefix(prefix string) Option {
	return func(s *Sink) {
		s.prefix = prefix
	}
}

// WithLogger sets a custom logger for the sink.
func WithLogger(l logger.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}
