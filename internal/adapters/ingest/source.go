// Package ingest reads scraped match files into match records.
package ingest

import (
	"cmp"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/okian/squadgraph/internal/domain/dedupe"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

// Batch is the de-duplicated match stream of one club season.
type Batch struct {
	Unit       model.Unit
	Path       string
	Records    []model.MatchRecord
	Duplicates int
}

// Source delivers match records per club season.
type Source interface {
	// Units lists the club seasons with data, ordered by club then season.
	Units(ctx context.Context) ([]model.Unit, error)

	// Load reads the records of one unit.
	Load(ctx context.Context, unit model.Unit) (Batch, error)
}

// Supported file extensions, in order of preference.
const (
	extJSON = ".json"
	extText = ".txt"
)

var fileNamePattern = regexp.MustCompile(`^([a-z0-9][a-z0-9_]*)_(\d{4})_(\d{4})(\.json|\.txt)$`)

// DirSource reads {club}_{start}_{end}.json and .txt files from a directory.
// When both exist for a unit the JSON file is used.
type DirSource struct {
	dir        string
	clubs      map[model.ClubID]struct{}
	teams      map[model.ClubID]string
	first      int
	last       int
	dedupeSize int
	logger     logger.Logger
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string, opts ...Option) *DirSource {
	s := &DirSource{
		dir:        dir,
		teams:      make(map[model.ClubID]string),
		dedupeSize: 10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("ingest")
	}
	return s
}

// Units scans the directory. Checkpoint files and names that do not parse as
// a unit are ignored.
func (s *DirSource) Units(ctx context.Context) ([]model.Unit, error) {
	files, err := s.scan()
	if err != nil {
		return nil, err
	}
	units := make([]model.Unit, 0, len(files))
	for u := range files {
		units = append(units, u)
	}
	slices.SortFunc(units, func(a, b model.Unit) int {
		if c := cmp.Compare(a.Club, b.Club); c != 0 {
			return c
		}
		return cmp.Compare(a.Season.Start, b.Season.Start)
	})
	s.logger.Info(ctx, "units discovered", logger.String("dir", s.dir), logger.Int("units", len(units)))
	return units, nil
}

// Load parses the unit's file and drops duplicate matches. Every returned
// record is tagged with the unit.
func (s *DirSource) Load(ctx context.Context, unit model.Unit) (Batch, error) {
	files, err := s.scan()
	if err != nil {
		return Batch{}, err
	}
	path, ok := files[unit]
	if !ok {
		return Batch{}, errors.Wrapf(ErrNoData, "unit %s", unit)
	}

	f, err := os.Open(path)
	if err != nil {
		return Batch{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var records []model.MatchRecord
	format := filepath.Ext(path)
	switch format {
	case extJSON:
		records, err = decodeJSON(f, s.teams[unit.Club])
	case extText:
		records, err = decodeText(f, s.teams[unit.Club])
	default:
		err = errors.Wrap(ErrUnknownFormat, format)
	}
	if err != nil {
		metrics.RecordErrorByComponent("ingest", "decode")
		return Batch{}, errors.Wrapf(err, "decode %s", path)
	}
	metrics.RecordFileIngested(format[1:])

	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	b := Batch{Unit: unit, Path: path, Records: make([]model.MatchRecord, 0, len(records))}
	for _, rec := range records {
		if seen.SeenAndRecord(ctx, dedupe.MatchKey(rec)) {
			b.Duplicates++
			metrics.RecordDuplicateMatch()
			continue
		}
		rec.Club = unit.Club
		rec.Season = unit.Season
		b.Records = append(b.Records, rec)
	}

	s.logger.Debug(ctx, "unit loaded",
		logger.String("unit", unit.String()),
		logger.String("path", path),
		logger.Int("records", len(b.Records)),
		logger.Int("duplicates", b.Duplicates),
	)
	return b, nil
}

// scan maps each accepted unit to its preferred file.
func (s *DirSource) scan() (map[model.Unit]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", s.dir)
	}
	out := make(map[model.Unit]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		u, ok := s.parseName(e.Name())
		if !ok {
			continue
		}
		if prev, dup := out[u]; dup && filepath.Ext(prev) == extJSON {
			continue
		}
		out[u] = filepath.Join(s.dir, e.Name())
	}
	return out, nil
}

func (s *DirSource) parseName(name string) (model.Unit, bool) {
	if strings.Contains(name, "checkpoint") {
		return model.Unit{}, false
	}
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return model.Unit{}, false
	}
	club := model.ClubID(m[1])
	start, _ := strconv.Atoi(m[2])
	end, _ := strconv.Atoi(m[3])
	if end != start+1 {
		return model.Unit{}, false
	}
	if s.clubs != nil {
		if _, ok := s.clubs[club]; !ok {
			return model.Unit{}, false
		}
	}
	if (s.first != 0 && start < s.first) || (s.last != 0 && start > s.last) {
		return model.Unit{}, false
	}
	return model.Unit{Club: club, Season: model.NewSeasonKey(start)}, true
}
