package main

import (
	"context"
	"log/slog"
	"time"

	httpadapter "xiuxian/internal/adapter/http"
	metricsinmem "xiuxian/internal/adapter/metrics/inmemory"
	"xiuxian/internal/app/guard"
	"xiuxian/internal/app/history"
	"xiuxian/internal/app/ledger"
	"xiuxian/internal/app/progression"
	"xiuxian/internal/app/status"
	"xiuxian/internal/config"
	"xiuxian/internal/platform/otel"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/cobra"
)

const serviceName = "xiuxian"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	env, err := config.ParseEnv()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), env.LogLevel)
	balance, err := config.LoadBalance(env.BalanceFile)
	if err != nil {
		return err
	}

	shutdownTracing, err := otel.Setup(ctx, serviceName, otel.Config{Enabled: env.OTelEnabled, Endpoint: env.OTelEndpoint})
	if err != nil {
		return err
	}

	d, err := buildDeps(ctx, env, balance, logger)
	if err != nil {
		_ = shutdownTracing(ctx)
		return err
	}
	defer d.Close()

	h := newHandler(d, balance, env, logger)

	s := server.Default(server.WithHostPorts(env.HTTPAddr))
	h.RegisterRoutes(s)
	s.OnShutdown = append(s.OnShutdown, func(ctx context.Context) {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("flush traces", "error", err)
		}
	})

	logger.Info("xiuxian server listening",
		"addr", env.HTTPAddr, "kv_backend", env.KVBackend, "database", env.UsesDatabase())
	s.Spin()
	return nil
}

func newHandler(d *deps, balance config.Balance, env config.Env, logger *slog.Logger) httpadapter.Handler {
	kpi := metricsinmem.NewRecorder()
	now := func() time.Time { return time.Now().UTC() }
	g := guard.Guard{
		Store:             d.KV,
		LockTTL:           balance.Guard.LockTTL,
		DailyRetreatYears: balance.Guard.DailyRetreatYears,
		Logger:            logger,
	}
	return httpadapter.Handler{
		ProgressionUC: progression.UseCase{
			TxManager:        d.TxManager,
			Chars:            d.Chars,
			History:          d.History,
			Events:           d.Events,
			Lifecycle:        d.Lifecycle,
			Guard:            g,
			Narrative:        d.Narrative,
			NarrativeTimeout: env.NarrativeTimeout,
			Metrics:          kpi,
			Now:              now,
			Logger:           logger,
		},
		StatusUC:  status.UseCase{Chars: d.Chars, Now: now},
		HistoryUC: history.UseCase{History: d.History, Events: d.Events},
		Ledger: ledger.Ledger{
			TxManager: d.TxManager,
			Chars:     d.Chars,
			Events:    d.Events,
			Now:       now,
			Logger:    logger,
		},
		KPI:         kpi,
		AllowOrigin: env.CORSOrigin,
	}
}
