package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/signup/internal/api"
	"example.com/signup/internal/catalog"
	"example.com/signup/internal/config"
	"example.com/signup/internal/domain"
	"example.com/signup/internal/logging"
	"example.com/signup/internal/outbox"
	httptransport "example.com/signup/internal/transport/http"
	"example.com/signup/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	seed, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load activity catalog", "error", err)
		os.Exit(1)
	}

	var registryOpts []domain.RegistryOption
	if cfg.EnforceCapacity {
		logger.Warn("capacity enforcement enabled; signups beyond max_participants will be rejected")
		registryOpts = append(registryOpts, domain.WithCapacityEnforcement())
	}
	registry := domain.NewRegistry(seed, registryOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serviceOpts []domain.Option
	var dispatcher *outbox.Dispatcher
	if cfg.EventsEnabled() {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers())
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(producer, outbox.Config{
			Topic:        cfg.RosterTopic,
			PollInterval: cfg.OutboxPollInterval,
			BatchSize:    cfg.OutboxBatchSize,
			BufferSize:   cfg.OutboxBufferSize,
		}, logger)
		go dispatcher.Start(ctx)
		serviceOpts = append(serviceOpts, domain.WithPublisher(dispatcher))
		logger.Info("roster events enabled", "brokers", cfg.KafkaBrokers(), "topic", cfg.RosterTopic)
	} else {
		logger.Info("roster events disabled; KAFKA_BROKERS not set")
	}

	service := domain.NewService(registry, serviceOpts...)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(
		httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.Chain(mux,
			httptransport.RequestLogger(logger),
			httptransport.CORS(cfg.CORSAllowedOrigin),
		),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("signup-service listening",
			"address", cfg.HTTPAddress,
			"activities", registry.Names(),
			"version", version.Get().Version,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownCh
	logger.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// Stop the dispatcher only after in-flight requests have published their events.
	cancel()
	if dispatcher != nil {
		dispatcher.Wait()
	}
}
