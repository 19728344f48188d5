package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	kvmemory "xiuxian/internal/adapter/kv/memory"
	kvpostgres "xiuxian/internal/adapter/kv/postgres"
	kvredis "xiuxian/internal/adapter/kv/redis"
	"xiuxian/internal/adapter/narrative/llm"
	"xiuxian/internal/adapter/narrative/static"
	gormrepo "xiuxian/internal/adapter/repo/gorm"
	"xiuxian/internal/adapter/repo/memory"
	"xiuxian/internal/app/ports"
	"xiuxian/internal/config"

	"gorm.io/gorm"
)

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// deps holds the adapters selected by the environment.
type deps struct {
	TxManager ports.TxManager
	Chars     ports.CharacterRepository
	History   ports.HistoryRepository
	Events    ports.EventRepository
	Lifecycle ports.CharacterLifecycleRepository
	KV        ports.KeyValueStore
	Narrative ports.NarrativeGenerator

	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func openDatabase(env config.Env) (*gorm.DB, error) {
	return gormrepo.OpenPostgres(env.DatabaseDSN, gormrepo.PoolConfig{
		MaxOpenConns:    env.DBMaxOpenConns,
		MaxIdleConns:    env.DBMaxIdleConns,
		ConnMaxLifetime: env.DBConnMaxLifetime,
	})
}

func buildDeps(ctx context.Context, env config.Env, balance config.Balance, logger *slog.Logger) (*deps, error) {
	d := &deps{}
	if env.UsesDatabase() {
		db, err := openDatabase(env)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			d.closers = append(d.closers, func() { _ = sqlDB.Close() })
		}
		d.TxManager = gormrepo.NewTxManager(db)
		d.Chars = gormrepo.NewCharacterRepo(db)
		d.History = gormrepo.NewHistoryRepo(db)
		d.Events = gormrepo.NewEventRepo(db)
		d.Lifecycle = gormrepo.NewLifecycleRepo(db)
	} else {
		store := memory.NewStore()
		d.TxManager = memory.NewTxManager(store)
		d.Chars = memory.NewCharacterRepo(store)
		d.History = memory.NewHistoryRepo(store)
		d.Events = memory.NewEventRepo(store)
		d.Lifecycle = memory.NewLifecycleRepo(store)
		if err := seedRoster(ctx, d.Chars, balance, time.Now().UTC(), logger); err != nil {
			return nil, err
		}
		logger.Warn("XIUXIAN_DB_DSN not set, using in-memory repositories")
	}

	switch env.KVBackend {
	case config.KVBackendRedis:
		kv, err := kvredis.Open(ctx, env.RedisURL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.KV = kv
		d.closers = append(d.closers, func() { _ = kv.Close() })
	case config.KVBackendPostgres:
		kv, err := kvpostgres.New(ctx, env.DatabaseDSN)
		if err != nil {
			d.Close()
			return nil, err
		}
		if err := kv.EnsureSchema(ctx); err != nil {
			kv.Close()
			d.Close()
			return nil, err
		}
		d.KV = kv
		d.closers = append(d.closers, kv.Close)
	default:
		d.KV = kvmemory.NewStore()
	}

	if env.NarrativeEndpoint != "" {
		gen, err := llm.New(llm.Config{
			Endpoint: env.NarrativeEndpoint,
			APIKey:   env.NarrativeAPIKey,
			Model:    env.NarrativeModel,
			Timeout:  env.NarrativeTimeout,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Narrative = gen
	} else {
		d.Narrative = static.New()
	}
	return d, nil
}

// seedRoster creates the balance file's starter characters that do not exist
// yet. Existing characters are left alone.
func seedRoster(ctx context.Context, chars ports.CharacterRepository, balance config.Balance, now time.Time, logger *slog.Logger) error {
	for _, sc := range balance.Characters {
		c, err := sc.Character(now)
		if err != nil {
			return fmt.Errorf("seed %s: %w", sc.ID, err)
		}
		_, err = chars.GetByCharacterID(ctx, c.CharacterID)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, ports.ErrNotFound):
			return fmt.Errorf("seed %s: %w", sc.ID, err)
		}
		if err := chars.SaveWithVersion(ctx, c, 0); err != nil && !errors.Is(err, ports.ErrConflict) {
			return fmt.Errorf("seed %s: %w", sc.ID, err)
		}
		logger.Info("seeded starter character", "character_id", c.CharacterID)
	}
	return nil
}
