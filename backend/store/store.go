// Package store owns the four habit tables on disk and runs every typed
// operation as pull, load, mutate, save and push under the table's lock.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"habitualize/backend"
	"habitualize/backend/mirror"
	"habitualize/backend/table"
	"habitualize/internal/metrics"
	"habitualize/internal/utils"
)

// ErrNoRemote is returned by Sync and Publish when the store has no mirror.
var ErrNoRemote = errors.New("no remote configured")

// explicitSyncer is implemented by syncers that can report failures, which
// Sync and Publish need.
type explicitSyncer interface {
	Pull(ctx context.Context, tableID string, medium table.Medium) error
	Push(ctx context.Context, tableID string, content []byte, message string) error
}

type guardedTable struct {
	mu    sync.Mutex
	table *table.Table
}

// Store provides typed access to the habits, completions, progress and
// goals tables.
type Store struct {
	dir     string
	syncer  mirror.Syncer
	now     func() time.Time
	metrics *metrics.Collectors
	media   func(schema table.Schema) table.Medium
	tables  map[string]*guardedTable
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics records operation durations.
func WithMetrics(c *metrics.Collectors) Option {
	return func(s *Store) { s.metrics = c }
}

// WithMedia replaces the file media, e.g. with in-memory ones.
func WithMedia(media func(schema table.Schema) table.Medium) Option {
	return func(s *Store) { s.media = media }
}

// New opens a store rooted at dir. A nil syncer disables mirroring.
func New(dir string, syncer mirror.Syncer, opts ...Option) (*Store, error) {
	if syncer == nil {
		syncer = mirror.Disabled{}
	}
	s := &Store{
		dir:    dir,
		syncer: syncer,
		now:    time.Now,
		tables: make(map[string]*guardedTable),
	}
	s.media = func(schema table.Schema) table.Medium {
		return table.NewFileMedium(filepath.Join(s.dir, schema.ID))
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	for _, schema := range table.Schemas() {
		s.tables[schema.ID] = &guardedTable{table: table.New(schema, s.media(schema))}
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Today returns the store clock's date.
func (s *Store) Today() string {
	return backend.FormatDate(s.now())
}

// Now returns the store clock's time.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) guard(schema table.Schema) *guardedTable {
	return s.tables[schema.ID]
}

// lock acquires the given tables in the fixed order of table.Schemas.
func (s *Store) lock(schemas ...table.Schema) func() {
	var held []*guardedTable
	for _, ordered := range table.Schemas() {
		for _, want := range schemas {
			if want.ID == ordered.ID {
				g := s.guard(ordered)
				g.mu.Lock()
				held = append(held, g)
				break
			}
		}
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
	}
}

// load pulls and decodes a table. The caller holds its lock.
func (s *Store) load(ctx context.Context, op string, schema table.Schema) ([]table.Record, error) {
	t := s.guard(schema).table
	s.syncer.ReadThrough(ctx, schema.ID, t.Medium)

	records, err := t.Load()
	if err != nil {
		return nil, backend.NewStoreError(op, 0, "failed to load table").WithTable(schema.ID).WithError(err)
	}
	return records, nil
}

// save rewrites a table and pushes it. The caller holds its lock.
func (s *Store) save(ctx context.Context, op string, schema table.Schema, records []table.Record) error {
	data, err := s.guard(schema).table.Save(records)
	if err != nil {
		return backend.NewStoreError(op, 0, "failed to save table").WithTable(schema.ID).WithError(err)
	}
	s.syncer.WriteThrough(ctx, schema.ID, data, mirror.CommitMessage(op, schema.ID))
	return nil
}

// read runs a read-only operation on one table.
func (s *Store) read(ctx context.Context, op string, schema table.Schema) ([]table.Record, error) {
	defer s.metrics.ObserveStore(op, time.Now())
	unlock := s.lock(schema)
	defer unlock()
	return s.load(ctx, op, schema)
}

// mutate runs pull, load, fn, save and push on one table. When fn fails
// nothing is written.
func (s *Store) mutate(ctx context.Context, op string, schema table.Schema, fn func([]table.Record) ([]table.Record, error)) error {
	defer s.metrics.ObserveStore(op, time.Now())
	unlock := s.lock(schema)
	defer unlock()

	return utils.LogOperationf("%s on %s", func() error {
		records, err := s.load(ctx, op, schema)
		if err != nil {
			return err
		}
		records, err = fn(records)
		if err != nil {
			return err
		}
		return s.save(ctx, op, schema, records)
	}, op, schema.ID)
}

// Sync pulls every table from the remote and returns per-table failures.
func (s *Store) Sync(ctx context.Context) (map[string]error, error) {
	ex, ok := s.syncer.(explicitSyncer)
	if !ok {
		return nil, ErrNoRemote
	}
	results := make(map[string]error)
	for _, schema := range table.Schemas() {
		g := s.guard(schema)
		g.mu.Lock()
		err := ex.Pull(ctx, schema.ID, g.table.Medium)
		g.mu.Unlock()
		results[schema.ID] = err
	}
	return results, nil
}

// Publish pushes the local copy of every table and returns per-table
// failures. Tables that were never written locally are skipped.
func (s *Store) Publish(ctx context.Context) (map[string]error, error) {
	ex, ok := s.syncer.(explicitSyncer)
	if !ok {
		return nil, ErrNoRemote
	}
	results := make(map[string]error)
	for _, schema := range table.Schemas() {
		g := s.guard(schema)
		g.mu.Lock()
		data, err := g.table.Medium.Read()
		if err == nil {
			err = ex.Push(ctx, schema.ID, data, mirror.CommitMessage("publish", schema.ID))
		}
		g.mu.Unlock()
		if errors.Is(err, table.ErrAbsent) {
			continue
		}
		results[schema.ID] = err
	}
	return results, nil
}
