// Package main runs the catalog web application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/catalog/internal/app"
	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/nats"
	"github.com/abgdnv/catalog/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, connects the store and optional NATS and telemetry backends,
// and serves HTTP until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	productStore, err := setupStore(ctx, g, gCtx, cfg, logger)
	if err != nil {
		return abortStartup(cancel, g, err)
	}

	publisher, err := setupPublisher(ctx, g, gCtx, cfg, logger)
	if err != nil {
		return abortStartup(cancel, g, err)
	}

	deps, err := app.SetupDependencies(productStore, publisher, logger)
	if err != nil {
		return abortStartup(cancel, g, err)
	}

	if err := setupTelemetry(ctx, g, gCtx, cfg, logger, deps); err != nil {
		return abortStartup(cancel, g, err)
	}

	httpServer := app.SetupHttpServer(deps, cfg)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr: cfg.PProf.Addr,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// abortStartup stops everything registered in g so far, such as the Mongo disconnect,
// and returns err together with any cleanup failure.
func abortStartup(cancel context.CancelFunc, g *errgroup.Group, err error) error {
	cancel()
	if waitErr := g.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return errors.Join(err, waitErr)
	}
	return err
}

// setupStore connects the configured product store. The Mongo client is disconnected on shutdown.
func setupStore(ctx context.Context, g *errgroup.Group, gCtx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProductStore, error) {
	if cfg.Database.Driver == pkgconfig.DriverMemory {
		logger.Warn("Using in-memory product store, data is lost on restart")
		return store.NewInMemoryStore(), nil
	}

	client, err := bootstrap.NewMongoClient(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	logger.Info("Successfully connected to the database!", "database", cfg.Database.Name)

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Disconnecting from MongoDB...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
		}
		return nil
	})

	coll := client.Database(cfg.Database.Name).Collection(cfg.Database.Collection)
	return store.NewMongoStore(coll), nil
}

// setupPublisher connects to NATS JetStream when enabled and makes sure the products stream exists.
func setupPublisher(ctx context.Context, g *errgroup.Group, gCtx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, error) {
	if !cfg.NATS.Enabled {
		return messaging.NopPublisher{}, nil
	}

	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout)
	defer cancel()
	if err := nats.EnsureStream(streamCtx, js, messaging.ProductsStreamName, messaging.ProductsSubjects); err != nil {
		nc.Close()
		return nil, err
	}
	logger.Info("Connected to NATS", "url", cfg.NATS.Url, "stream", messaging.ProductsStreamName)

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Draining NATS connection...")
		if err := nc.Drain(); err != nil {
			return fmt.Errorf("failed to drain NATS connection: %w", err)
		}
		return nil
	})
	return nats.NewJetStreamPublisher(js), nil
}

// setupTelemetry installs the tracer and meter providers that are enabled.
func setupTelemetry(ctx context.Context, g *errgroup.Group, gCtx context.Context, cfg *config.Config, logger *slog.Logger, deps *app.Dependencies) error {
	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, config.ServiceName, cfg.Telemetry)
		if err != nil {
			logger.Error("error creating tracer provider", slog.Any("error", err))
			return err
		}
		deps.Instrumented = true
		// gracefully shutdown tracer provider
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down tracer provider")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shutdown tracer provider: %w", err)
			}
			return nil
		})
	}

	if cfg.Telemetry.Metrics.Enabled {
		meterProvider, metricsHandler, err := telemetry.NewMeterProvider(config.ServiceName)
		if err != nil {
			return err
		}
		deps.Metrics = metricsHandler
		deps.Instrumented = true
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := meterProvider.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shutdown meter provider: %w", err)
			}
			return nil
		})
	}
	return nil
}
