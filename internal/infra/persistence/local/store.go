// Package local keeps chore state in process and mirrors each collection to a
// keyed JSON blob, so a single device can work without a backend.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"familychores/internal/blob"
	"familychores/internal/infra/persistence/memory"
	"familychores/pkg/domain"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

var _ domain.PersistentStore = (*Store)(nil)

// Blob keys for the two persisted collections, both under KeyPrefix.
const (
	KeyPrefix    = "family-chores/"
	MembersKey   = KeyPrefix + "members.json"
	TemplatesKey = KeyPrefix + "templates.json"
)

// Store is the local-only backend: an in-memory store hydrated from blobs at startup
// and written back per collection after every change.
type Store struct {
	*memory.Store
	blobs  blob.Store
	logger *slog.Logger
	today  func() domain.Date

	mu      sync.Mutex
	written map[string][]byte
}

// Option configures a local Store.
type Option func(*options)

type options struct {
	logger *slog.Logger
	today  func() domain.Date
	engine *domain.RulesEngine
}

// WithLogger sets the logger used for load fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithToday overrides the date used for seeded and template-assigned chores.
func WithToday(fn func() domain.Date) Option {
	return func(o *options) {
		if fn != nil {
			o.today = fn
		}
	}
}

// WithRulesEngine sets the rules evaluated on every write.
func WithRulesEngine(engine *domain.RulesEngine) Option {
	return func(o *options) { o.engine = engine }
}

// Open loads both collections from blobs. A collection whose blob is absent or
// unparsable falls back to the seed dataset.
func Open(ctx context.Context, blobs blob.Store, opts ...Option) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("local store requires a blob store")
	}
	o := options{logger: slog.Default(), today: domain.Today}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store{
		Store:   memory.NewStore(o.engine),
		blobs:   blobs,
		logger:  o.logger,
		today:   o.today,
		written: make(map[string][]byte),
	}
	s.SetToday(o.today)

	var snapshot memory.Snapshot
	if !s.load(ctx, MembersKey, &snapshot.Members) {
		snapshot.Members = domain.SeedMembers(o.today())
	}
	if !s.load(ctx, TemplatesKey, &snapshot.Templates) {
		snapshot.Templates = domain.SeedTemplates()
	}
	s.ImportState(snapshot)
	s.remember(s.ExportState())
	s.SetPersister(func(snapshot memory.Snapshot) error {
		return s.persist(context.Background(), snapshot)
	})
	return s, nil
}

// load decodes the blob at key into target and reports whether it succeeded.
func (s *Store) load(ctx context.Context, key string, target any) bool {
	_, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			s.logger.Info("no stored collection, using seed data", "key", key)
		} else {
			s.logger.Warn("read stored collection failed, using seed data", "key", key, "error", err)
		}
		return false
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		s.logger.Warn("read stored collection failed, using seed data", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		s.logger.Warn("stored collection unparsable, using seed data", "key", key, "error", err)
		return false
	}
	return true
}

// remember records the encoding of the loaded state so that only later changes are written.
func (s *Store) remember(snapshot memory.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, err := json.Marshal(snapshot.Members); err == nil {
		s.written[MembersKey] = data
	}
	if data, err := json.Marshal(snapshot.Templates); err == nil {
		s.written[TemplatesKey] = data
	}
}

// persist writes each collection whose encoding differs from the last write.
func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	collections := []struct {
		key   string
		value any
	}{
		{MembersKey, snapshot.Members},
		{TemplatesKey, snapshot.Templates},
	}
	for _, c := range collections {
		data, err := json.Marshal(c.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c.key, err)
		}
		if prev, ok := s.written[c.key]; ok && bytes.Equal(prev, data) {
			continue
		}
		if _, err := s.blobs.Put(ctx, c.key, bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"}); err != nil {
			return fmt.Errorf("write %s: %w", c.key, err)
		}
		s.written[c.key] = data
		s.logger.Debug("stored collection", "key", c.key, "bytes", len(data))
	}
	return nil
}

// Reset deletes every stored collection under KeyPrefix and returns the store to the
// seed dataset. It reports how many blobs were removed.
func (s *Store) Reset(ctx context.Context) (int, error) {
	infos, err := s.blobs.List(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list stored collections: %w", err)
	}
	removed := 0
	for _, info := range infos {
		existed, err := s.blobs.Delete(ctx, info.Key)
		if err != nil {
			return removed, fmt.Errorf("delete %s: %w", info.Key, err)
		}
		if existed {
			removed++
		}
	}
	seed := memory.Snapshot{Members: domain.SeedMembers(s.today()), Templates: domain.SeedTemplates()}
	s.ImportState(seed)
	s.mu.Lock()
	s.written = make(map[string][]byte)
	s.mu.Unlock()
	s.remember(s.ExportState())
	s.logger.Info("stored collections reset", "removed", removed)
	return removed, nil
}
