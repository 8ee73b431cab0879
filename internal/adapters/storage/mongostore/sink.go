// Package mongostore persists season graphs, transitions and run summaries
// in MongoDB. Every write is an upsert keyed by a deterministic _id, so
// repeated runs over the same data converge on the same documents.
package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/squadgraph/internal/adapters/artifact"
	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
	"github.com/okian/squadgraph/internal/domain/scoring"
	"github.com/okian/squadgraph/internal/domain/summary"
	"github.com/okian/squadgraph/pkg/logger"
	"github.com/okian/squadgraph/pkg/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	sinkName       = "mongo"

	graphsCollection      = "graphs"
	transitionsCollection = "transitions"
	summariesCollection   = "summaries"
)

// GraphDoc is the stored form of a season graph.
type GraphDoc struct {
	ID        string       `bson:"_id"`
	Club      string       `bson:"club"`
	Season    string       `bson:"season"`
	NodeCount int          `bson:"node_count"`
	EdgeCount int          `bson:"edge_count"`
	Density   float64      `bson:"density"`
	Nodes     []graph.Node `bson:"nodes"`
	Edges     []graph.Edge `bson:"edges"`
}

// NewGraphDoc converts g. The id is "club_start_end".
func NewGraphDoc(g *graph.SeasonGraph) GraphDoc {
	return GraphDoc{
		ID:        g.Unit().String(),
		Club:      string(g.Club()),
		Season:    g.Season().String(),
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Density:   summary.Round3(g.Density()),
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
	}
}

// TransitionDoc is the stored form of a transition, keyed "club_from_to".
type TransitionDoc struct {
	ID                     string `bson:"_id"`
	artifact.TransitionDoc `bson:",inline"`
}

// SummaryDoc is the stored run summary, keyed by run id.
type SummaryDoc struct {
	ID                  string    `bson:"_id"`
	CreatedAt           time.Time `bson:"created_at"`
	artifact.SummaryDoc `bson:",inline"`
}

// Sink upserts artifacts into a database.
type Sink struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	limit   int
	prefix  string
	logger  logger.Logger
}

// Connect dials uri, pings the server and returns a sink on database.
func Connect(ctx context.Context, uri, database string, opts ...Option) (*Sink, error) {
	s := newSink(opts...)
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri).SetTimeout(s.timeout))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}
	s.client = client
	s.db = client.Database(database)
	s.logger.Info(ctx, "mongo sink connected", logger.String("database", database))
	return s, nil
}

// New wraps an existing database handle. Close leaves its client open.
func New(db *mongo.Database, opts ...Option) *Sink {
	s := newSink(opts...)
	s.db = db
	return s
}

func newSink(opts ...Option) *Sink {
	s := &Sink{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("mongo")
	}
	return s
}

func (s *Sink) collection(name string) *mongo.Collection {
	return s.db.Collection(s.prefix + name)
}

// WriteGraph upserts the graph document.
func (s *Sink) WriteGraph(ctx context.Context, g *graph.SeasonGraph) error {
	if s.db == nil {
		return ErrNotConnected
	}
	doc := NewGraphDoc(g)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection(graphsCollection).ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return s.done(ctx, err, "upsert graph %s", doc.ID)
}

// WriteTransitions upserts every transition of club in one bulk write.
func (s *Sink) WriteTransitions(ctx context.Context, club model.ClubID, ts []scoring.Transition) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if len(ts) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(ts))
	for _, t := range ts {
		doc := TransitionDoc{ID: t.Key(), TransitionDoc: artifact.NewTransitionDoc(t, s.limit)}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection(transitionsCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return s.done(ctx, err, "upsert transitions of %s", club)
}

// WriteRun stores the summary report. Transitions are already upserted per
// club.
func (s *Sink) WriteRun(ctx context.Context, _ []scoring.Transition, report summary.Report) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if report.RunID == "" {
		return errors.New("summary report has no run id")
	}
	doc := SummaryDoc{ID: report.RunID, CreatedAt: time.Now().UTC(), SummaryDoc: artifact.NewSummaryDoc(report)}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection(summariesCollection).ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return s.done(ctx, err, "upsert summary %s", doc.ID)
}

// Graph loads a stored graph document.
func (s *Sink) Graph(ctx context.Context, u model.Unit) (GraphDoc, bool, error) {
	var doc GraphDoc
	if s.db == nil {
		return doc, false, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.collection(graphsCollection).FindOne(ctx, bson.M{"_id": u.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, errors.Wrapf(err, "find graph %s", u)
	}
	return doc, true, nil
}

// Transitions loads the stored transitions of club ordered by season.
func (s *Sink) Transitions(ctx context.Context, club model.ClubID) ([]artifact.TransitionDoc, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.collection(transitionsCollection).Find(ctx,
		bson.M{"club": string(club)}, options.Find().SetSort(bson.D{{Key: "season_from", Value: 1}}))
	if err != nil {
		return nil, errors.Wrapf(err, "find transitions of %s", club)
	}
	var docs []TransitionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode transitions of %s", club)
	}
	out := make([]artifact.TransitionDoc, len(docs))
	for i, d := range docs {
		out[i] = d.TransitionDoc
	}
	return out, nil
}

// Close disconnects the client opened by Connect.
func (s *Sink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return errors.Wrap(s.client.Disconnect(ctx), "disconnect mongodb")
}

func (s *Sink) done(ctx context.Context, err error, format string, args ...any) error {
	if err != nil {
		metrics.RecordSinkWrite(sinkName, "error")
		metrics.RecordErrorByComponent("mongo", "write")
		return errors.Wrapf(err, format, args...)
	}
	metrics.RecordSinkWrite(sinkName, "ok")
	s.logger.Debug(ctx, "mongo write", logger.Any("target", args))
	return nil
}
