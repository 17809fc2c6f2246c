package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PratikDhanave/doorbell-event-service/internal/bus"
	"github.com/PratikDhanave/doorbell-event-service/internal/config"
	"github.com/PratikDhanave/doorbell-event-service/internal/handlers"
	"github.com/PratikDhanave/doorbell-event-service/internal/httpserver"
	"github.com/PratikDhanave/doorbell-event-service/internal/logging"
	"github.com/PratikDhanave/doorbell-event-service/internal/store"
)

// main boots the service: config → record store → event bus → HTTP server.
// Any failure exits non-zero after resources opened so far are closed.
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Load runtime config from environment once; it is read-only afterwards.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logging.Err(err))
		return err
	}

	log := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg)
	if err != nil {
		log.Error("failed to init record store", slog.String("backend", cfg.StoreBackend), logging.Err(err))
		return err
	}
	defer st.Close()

	eb, err := newBus(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init event bus", slog.String("backend", cfg.BusBackend), logging.Err(err))
		return err
	}
	defer eb.Close()

	h := handlers.NewDoorbellHandler(st, eb, cfg.EventBusName, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpserver.NewRouter(st, eb, h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("server started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("table", cfg.TableName),
		slog.String("event_bus", cfg.EventBusName),
		slog.String("store", cfg.StoreBackend),
		slog.String("bus", cfg.BusBackend),
	)
	if err := serve(ctx, srv, log); err != nil {
		log.Error("server stopped", logging.Err(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// serve runs srv until ctx is cancelled. A clean shutdown returns nil;
// listen failures such as a busy port are returned.
func serve(ctx context.Context, srv *http.Server, log *slog.Logger) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", logging.Err(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newStore(ctx context.Context, cfg config.Config) (store.RecordStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		st := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.TableName)
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		st, err := store.NewPostgresStore(cfg.DBURL, cfg.TableName)
		if err != nil {
			return nil, err
		}
		// Ensure the table exists so `docker compose up --build` is enough.
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
}

func newBus(ctx context.Context, cfg config.Config, log *slog.Logger) (bus.EventBus, error) {
	switch cfg.BusBackend {
	case config.BusBackendKafka:
		return bus.NewKafkaPublisher(cfg.KafkaBrokers), nil
	case config.BusBackendPubSub:
		p, err := bus.NewPubSubPublisher(ctx, cfg.PubSubProjectID, cfg.EventBusName)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		natsCfg := bus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		p, err := bus.NewNATSPublisher(natsCfg, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
