package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/config"
	"github.com/sells-group/fieldops/internal/match"
	"github.com/sells-group/fieldops/internal/sequence"
	"github.com/sells-group/fieldops/internal/service"
	"github.com/sells-group/fieldops/internal/store"
)

// env bundles the store and services a command needs.
type env struct {
	store     store.Store
	records   *service.RecordService
	documents *service.DocumentService
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("closing store", zap.Error(err))
	}
}

// openStore opens the configured database backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadThresholds resolves similarity thresholds from the profile file if
// configured, otherwise from the inline config values.
func loadThresholds(cfg *config.Config) (match.Thresholds, error) {
	if cfg.Match.ProfilePath != "" {
		return match.LoadThresholds(cfg.Match.ProfilePath)
	}
	return match.Thresholds{
		Name:    cfg.Match.NameThreshold,
		Address: cfg.Match.AddressThreshold,
	}, nil
}

// initEnv opens the store and wires the services. The counter allocator is
// only available on Postgres; on other drivers document numbers come from
// the recent-documents window.
func initEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	th, err := loadThresholds(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var allocator service.NumberAllocator
	if cfg.Sequence.Allocator == "counter" {
		pg, ok := st.(*store.PostgresStore)
		if !ok {
			_ = st.Close()
			return nil, eris.New("counter allocator requires the postgres driver")
		}
		allocator = sequence.NewCounterAllocator(pg.Pool())
	}

	return &env{
		store:     st,
		records:   service.NewRecordService(st, th),
		documents: service.NewDocumentService(st, allocator, cfg.Sequence.Window),
	}, nil
}
