package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/internal/domain/summary"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

// File names written by FileSink.
const (
	AllTransitionsFile = "all_dynamic_scores.json"
	SummaryFile        = "summary_report.json"
)

// GraphFileName returns "{club}_{start}_{end}_graph.txt".
func GraphFileName(u model.Unit) string {
	return u.String() + "_graph.txt"
}

// TransitionsFileName returns "{club}_dynamic_scores.json".
func TransitionsFileName(club model.ClubID) string {
	return string(club) + "_dynamic_scores.json"
}

// Option applies a configuration option to the FileSink.
type Option func(*FileSink)

// WithChangeListLimit truncates change lists in transition files. 0 keeps
// full lists.
func WithChangeListLimit(n int) Option {
	return func(s *FileSink) {
		if n >= 0 {
			s.limit = n
		}
	}
}

// WithLogger sets a custom logger for the sink.
func WithLogger(l logger.Logger) Option {
	return func(s *FileSink) {
		if l != nil {
			s.logger = l
		}
	}
}

// FileSink writes artifacts into a directory. Each file is written to a
// temporary name and renamed into place.
type FileSink struct {
	dir    string
	limit  int
	logger logger.Logger
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string, opts ...Option) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output dir %s", dir)
	}
	s := &FileSink{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("artifact")
	}
	return s, nil
}

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// WriteGraph writes {club}_{start}_{end}_graph.txt.
func (s *FileSink) WriteGraph(ctx context.Context, g *graph.SeasonGraph) error {
	var buf bytes.Buffer
	if err := WriteGraph(&buf, g); err != nil {
		return err
	}
	return s.write(ctx, "graph", GraphFileName(g.Unit()), buf.Bytes())
}

// WriteTransitions writes {club}_dynamic_scores.json.
func (s *FileSink) WriteTransitions(ctx context.Context, club model.ClubID, ts []scoring.Transition) error {
	data, err := marshal(NewTransitionDocs(ts, s.limit))
	if err != nil {
		return err
	}
	return s.write(ctx, "transitions", TransitionsFileName(club), data)
}

// WriteRun writes all_dynamic_scores.json and summary_report.json.
func (s *FileSink) WriteRun(ctx context.Context, all []scoring.Transition, report summary.Report) error {
	data, err := marshal(NewTransitionDocs(all, s.limit))
	if err != nil {
		return err
	}
	if err := s.write(ctx, "transitions", AllTransitionsFile, data); err != nil {
		return err
	}
	data, err = marshal(NewSummaryDoc(report))
	if err != nil {
		return err
	}
	return s.write(ctx, "summary", SummaryFile, data)
}

func (s *FileSink) write(ctx context.Context, kind, name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", name)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", name)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename %s", name)
	}

	metrics.RecordArtifactWritten(kind)
	s.logger.Debug(ctx, "artifact written", logger.String("path", path), logger.Int("bytes", len(data)))
	return nil
}

// marshal indents with two spaces and keeps non-ASCII names readable.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode json")
	}
	return buf.Bytes(), nil
}

// ReadTransitions parses a transition file written by FileSink.
func ReadTransitions(path string) ([]TransitionDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var docs []TransitionDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return docs, nil
}

// ReadGraphFile parses a graph file written by FileSink.
func ReadGraphFile(path string, unit model.Unit) (*graph.SeasonGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadGraph(f, unit)
}
