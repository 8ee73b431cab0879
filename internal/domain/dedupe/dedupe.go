// Package dedupe tracks match keys already consumed during ingest so a
// fixture scraped twice is only counted once.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/squadgraph/internal/domain/model"
)

// Deduper records seen match keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if it was not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a later record with the same key is accepted.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// MatchKey returns the identity of a fixture. The scraper's match id is
// preferred; records without one fall back to date and both team names.
func MatchKey(rec model.MatchRecord) string {
	if id := strings.TrimSpace(rec.MatchID); id != "" {
		return "id:" + id
	}
	return "fixture:" + strings.Join([]string{
		strings.TrimSpace(rec.Date),
		strings.ToLower(strings.TrimSpace(rec.HomeTeam)),
		strings.ToLower(strings.TrimSpace(rec.AwayTeam)),
	}, "|")
}

type node struct {
	key        string
	prev, next *node
}

// inMemoryDeduper keeps keys in a map. When bounded, insertion order is kept
// in a doubly linked list and the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*node
	head    *node // newest
	tail    *node // oldest
	maxSize int   // <= 0 means unbounded
	size    atomic.Int64
	pool    sync.Pool
}

// NewInMemoryDeduper creates a deduper. The default bound is 50000 keys.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 50000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*node)
	d.pool = sync.Pool{New: func() any { return &node{} }}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[key] = nil
		d.size.Add(1)
		return false
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.pool.Get().(*node)
	n.key = key
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[key] = n
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	d.size.Add(-1)
	if n != nil {
		d.unlink(n)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail == nil {
		return
	}
	n := d.tail
	delete(d.seen, n.key)
	d.size.Add(-1)
	d.unlink(n)
}

func (d *inMemoryDeduper) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	*n = node{}
	d.pool.Put(n)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
