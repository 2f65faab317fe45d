// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/opentrusty/tenancy/internal/audit"
	"github.com/opentrusty/tenancy/internal/config"
	"github.com/opentrusty/tenancy/internal/observability/logger"
	"github.com/opentrusty/tenancy/internal/observability/metrics"
	"github.com/opentrusty/tenancy/internal/observability/tracing"
	"github.com/opentrusty/tenancy/internal/store/memory"
	"github.com/opentrusty/tenancy/internal/store/postgres"
	"github.com/opentrusty/tenancy/internal/tenant"
	transportHTTP "github.com/opentrusty/tenancy/internal/transport/http"
	"golang.org/x/sync/errgroup"
)

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.InfoContext(ctx, "starting tenancy service", logger.StoreDriver(cfg.Store.Driver))

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		Endpoint:       cfg.Observability.OTELEndpoint,
		Insecure:       cfg.Observability.OTELInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			slog.Error("tracer shutdown error", logger.Error(err))
		}
	}()

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:     cfg.Observability.OTELEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	instruments, err := tenantInstruments(meter)
	if err != nil {
		return err
	}

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tenantService := tenant.NewService(repo, audit.NewSlogLogger(),
		tenant.WithTracer(tracer.GetTracer()),
		tenant.WithInstruments(instruments),
		tenant.WithSubtreeConcurrency(cfg.Hierarchy.SubtreeConcurrency),
	)

	rateLimiter := transportHTTP.NewRateLimiter(
		cfg.RateLimit.RequestsPerSecond,
		cfg.RateLimit.Burst,
		cfg.RateLimit.IdleTTL,
	)
	defer rateLimiter.Stop()

	router := transportHTTP.NewRouter(transportHTTP.NewHandler(tenantService), transportHTTP.RouterConfig{
		RateLimiter:    rateLimiter,
		HTTPMetrics:    metrics.NewHTTPMetrics(),
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "starting http server",
			logger.Component("server"), logger.Operation("listen"), logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func tenantInstruments(meter *metrics.Meter) (tenant.Instruments, error) {
	created, err := meter.CreateCounter("tenants_created_total", "Tenants created, by tenant type")
	if err != nil {
		return tenant.Instruments{}, err
	}
	nodes, err := meter.CreateHistogram("tenant_subtree_nodes", "Tenants expanded per subtree request", "{tenant}")
	if err != nil {
		return tenant.Instruments{}, err
	}
	return tenant.Instruments{Created: created, SubtreeNodes: nodes}, nil
}

// openStore returns the repository selected by STORE_DRIVER and a func
// that releases it.
func openStore(ctx context.Context, cfg *config.Config) (tenant.Repository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		slog.WarnContext(ctx, "using in-memory tenant store; data is lost on exit")
		return memory.NewTenantRepository(), func() {}, nil
	case config.StoreDriverPostgres:
		db, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "connected to database")
		return postgres.NewTenantRepository(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		ConnectDelay:    cfg.Database.ConnectDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigrate(ctx context.Context, cfg *config.Config, down bool) error {
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	db, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	script, op := postgres.InitialSchema, "apply"
	if down {
		script, op = postgres.DropSchema, "drop"
	}

	slog.InfoContext(ctx, "running migration", logger.Operation(op))
	if err := db.Migrate(ctx, script); err != nil {
		return fmt.Errorf("failed to %s schema: %w", op, err)
	}
	slog.InfoContext(ctx, "migration successful", logger.Operation(op))
	return nil
}
