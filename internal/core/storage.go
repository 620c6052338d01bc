package core

import (
	"context"
	"familychores/internal/blob"
	"familychores/internal/infra/persistence/local"
	"familychores/internal/infra/persistence/memory"
	"familychores/internal/infra/persistence/postgres"
	"familychores/internal/infra/persistence/rest"
	"familychores/internal/infra/persistence/sqlite"
	"familychores/pkg/domain"
	"fmt"
	"log/slog"
	"time"
)

// StorageMode identifies where the coordinator's adapter keeps its records.
type StorageMode string

const (
	ModeREST     StorageMode = "rest"     // remote backend over HTTP
	ModeLocal    StorageMode = "local"    // keyed JSON blobs, seed fallback
	ModeMemory   StorageMode = "memory"   // in-process only (tests / ephemeral)
	ModeSQLite   StorageMode = "sqlite"   // embedded sqlite file
	ModePostgres StorageMode = "postgres" // PostgreSQL server
)

// StorageOptions configures OpenAdapter.
type StorageOptions struct {
	Mode        StorageMode
	APIURL      string
	HTTPTimeout time.Duration
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Options
	Logger      *slog.Logger
	// Today decides the due date of backend-built chores. Nil uses domain.Today.
	Today func() domain.Date
}

// OpenAdapter builds the adapter selected by opts.Mode (default memory). Backends that
// own state evaluate NewDefaultRulesEngine inside their transactions. The returned
// close func releases any held resources.
func OpenAdapter(ctx context.Context, opts StorageOptions) (domain.Adapter, func() error, error) {
	noop := func() error { return nil }
	today := opts.Today
	if today == nil {
		today = domain.Today
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeMemory
	}
	switch mode {
	case ModeREST:
		var restOpts []rest.Option
		if opts.HTTPTimeout > 0 {
			restOpts = append(restOpts, rest.WithTimeout(opts.HTTPTimeout))
		}
		client, err := rest.NewClient(opts.APIURL, restOpts...)
		if err != nil {
			return nil, nil, err
		}
		return client, noop, nil
	case ModeLocal:
		blobs, err := blob.Open(ctx, opts.Blob)
		if err != nil {
			return nil, nil, fmt.Errorf("open blob store: %w", err)
		}
		localOpts := []local.Option{local.WithToday(today), local.WithRulesEngine(NewDefaultRulesEngine())}
		if opts.Logger != nil {
			localOpts = append(localOpts, local.WithLogger(opts.Logger))
		}
		store, err := local.Open(ctx, blobs, localOpts...)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case ModeMemory:
		store := memory.NewStore(NewDefaultRulesEngine())
		store.SetToday(today)
		return store, noop, nil
	case ModeSQLite:
		store, err := sqlite.NewStore(opts.SQLitePath, NewDefaultRulesEngine())
		if err != nil {
			return nil, nil, err
		}
		store.SetToday(today)
		return store, store.Close, nil
	case ModePostgres:
		store, err := postgres.NewStore(ctx, opts.PostgresDSN, NewDefaultRulesEngine())
		if err != nil {
			return nil, nil, err
		}
		store.SetToday(today)
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage mode %s", mode)
	}
}
