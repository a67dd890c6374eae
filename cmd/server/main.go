// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"shiftledger/internal/clock"
	clockmetrics "shiftledger/internal/clock/metrics"
	"shiftledger/internal/employees"
	"shiftledger/internal/events"
	"shiftledger/internal/livesync"
	syncmetrics "shiftledger/internal/livesync/metrics"
	"shiftledger/internal/payroll"
	"shiftledger/internal/platform/config"
	"shiftledger/internal/platform/httpserver"
	"shiftledger/internal/platform/logger"
	platformmetrics "shiftledger/internal/platform/metrics"
	platformredis "shiftledger/internal/platform/redis"
	"shiftledger/internal/summary"
	httptransport "shiftledger/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventStore, payrollStore, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	source, eventStore, closeSource, err := buildSource(cfg, eventStore, log)
	if err != nil {
		return err
	}
	defer closeSource()

	synchronizer := livesync.New(source, syncmetrics.New(), log)
	synchronizer.Attach(ctx, cfg.TenantID)
	defer synchronizer.DetachAll()

	// GPS fixes arrive with each clock-action request; no ambient provider.
	coordinator := clock.NewCoordinator(eventStore, synchronizer, nil, clock.Config{
		RequireGPS:      cfg.Clock.RequireGPS,
		RequireGeofence: cfg.Clock.RequireGeofence,
		LocationTimeout: cfg.Clock.LocationTimeout,
	}, clockmetrics.New(), log)

	employeeStore := employees.NewInMemoryStore()
	handler := httptransport.NewHandler(coordinator, synchronizer,
		summary.NewClient(cfg.Summary.Endpoint, log), log)
	payrollHandler := httptransport.NewPayrollHandler(
		payroll.NewService(payrollStore, log), payrollStore, log)
	employeesHandler := httptransport.NewEmployeesHandler(
		employees.NewService(employeeStore, log), employeeStore, log)

	router := httptransport.NewRouter([]byte(cfg.Server.JWTSigningKey),
		platformmetrics.New(), log, handler, payrollHandler, employeesHandler)
	srv := httpserver.New(cfg.Server.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("shiftledger listening", "addr", cfg.Server.Addr, "mode", string(cfg.Mode), "tenant", cfg.TenantID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Drain feed diagnostics so permission problems surface in the logs even
	// when no operator is watching the channel.
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case diag := <-synchronizer.Diagnostics():
				log.Warn("feed diagnostic",
					"path", diag.Path.String(), "op", diag.Op,
					"permission", diag.Permission, "error", diag.Err)
			}
		}
	})

	group.Go(func() error {
		<-groupCtx.Done()
		synchronizer.DetachAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStores selects durable or in-memory persistence by configuration.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (events.Store, payroll.Store, func(), error) {
	if cfg.Postgres.URL == "" {
		log.Info("using in-memory stores")
		return events.NewInMemoryStore(), payroll.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("open pgx pool: %w", err)
	}

	var eventStore events.Store = events.NewPostgresStore(db)
	cache, err := platformredis.New(cfg.Redis)
	if err != nil {
		db.Close()
		pool.Close()
		return nil, nil, nil, err
	}
	cleanup := func() {
		db.Close()
		pool.Close()
	}
	if cache != nil {
		eventStore = events.NewRedisCache(eventStore, cache.Client, log)
		cleanup = func() {
			db.Close()
			pool.Close()
			_ = cache.Close()
		}
		log.Info("event cache enabled")
	}
	return eventStore, payroll.NewPostgresStore(pool), cleanup, nil
}

// buildSource picks the feed source for the synchronizer. Local mode also
// wraps the event store so writes republish the events feed.
func buildSource(cfg config.Config, eventStore events.Store, log *slog.Logger) (livesync.Source, events.Store, func(), error) {
	if cfg.Mode == config.ModeLive {
		source, err := livesync.NewKafkaSource(cfg.Kafka.Brokers, cfg.Kafka.Group, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return source, eventStore, source.Close, nil
	}

	source := livesync.NewStoreSource(eventStore, log)
	return source, source.EventStore(), func() {}, nil
}
