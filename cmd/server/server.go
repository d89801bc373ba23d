package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-flowgate/internal/api/handler"
	"go-flowgate/internal/config"
	"go-flowgate/internal/core/memory"
	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/core/postgres/repository"
	redisstore "go-flowgate/internal/core/redis"
	infraredis "go-flowgate/internal/infrastructure/redis"
	"go-flowgate/internal/metrics"
	"go-flowgate/internal/service"
)

const shutdownTimeout = 30 * time.Second

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 1. Set up storage
	blueprints, processes, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	// 2. Initialize service
	m := metrics.New()
	workflowSvc := service.NewWorkflowService(blueprints, processes,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
	if cfg.Seed.DefaultBlueprint {
		if err := workflowSvc.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("seed default blueprint: %w", err)
		}
	}

	// 3. Routes
	router := handler.NewRouter(handler.NewWorkflowHandler(workflowSvc, logger), m.Handler(), logger)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Serve until a signal arrives
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.HTTP.Addr), slog.String("store", cfg.Store.Driver))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.String("error", err.Error()))
		if err := server.Close(); err != nil {
			logger.Error("server close", slog.String("error", err.Error()))
		}
	}
	logger.Info("server stopped")
	return nil
}

// openStores returns the stores for cfg.Store.Driver and a func releasing their connections.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.BlueprintStore, ports.ProcessStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := repository.Open(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("database connected")
		return repository.NewBlueprintRepository(db), repository.NewProcessRepository(db), func() { _ = sqlDB.Close() }, nil

	case config.DriverRedis:
		client, err := infraredis.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
		return redisstore.NewBlueprintStore(client, cfg.Redis.Prefix),
			redisstore.NewProcessStore(client, cfg.Redis.Prefix),
			func() { _ = client.Close() }, nil

	default:
		return memory.NewBlueprintStore(), memory.NewProcessStore(), func() {}, nil
	}
}
