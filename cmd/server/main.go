package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"certledger/internal/document"
	"certledger/internal/events"
	"certledger/internal/identity"
	"certledger/internal/issuance"
	issuancemetrics "certledger/internal/issuance/metrics"
	"certledger/internal/ledger"
	"certledger/internal/ledger/journal"
	"certledger/internal/platform/config"
	"certledger/internal/platform/httpserver"
	"certledger/internal/platform/logger"
	platformredis "certledger/internal/platform/redis"
	"certledger/internal/registry"
	registrymetrics "certledger/internal/registry/metrics"
	"certledger/internal/storage"
	httptransport "certledger/internal/transport/http"
	"certledger/internal/verification"
	"certledger/internal/verification/cache"
	verificationmetrics "certledger/internal/verification/metrics"
)

// main wires the dependency graph and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ledger, with a durable Postgres journal when configured.
	checks := make(map[string]httptransport.HealthChecker)
	var led *ledger.Ledger
	if cfg.PostgresDSN != "" {
		pgJournal, openErr := journal.Open(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return openErr
		}
		defer pgJournal.Close()

		led, err = ledger.Open(ctx, cfg.AdminIdentity, pgJournal)
		if err != nil {
			return err
		}
		checks["postgres"] = pgJournal
		log.Info("ledger journal attached", "backend", "postgres")
	} else {
		led = ledger.New(cfg.AdminIdentity)
		log.Warn("no journal configured, ledger state is process-local")
	}

	reg := registry.New(led, log, registrymetrics.New())
	store := storage.NewMemory()
	renderer := document.NewRenderer(cfg.Institution)

	issuer := issuance.New(reg, store, renderer, log, issuancemetrics.New(),
		issuance.WithStoreRetries(cfg.StoreRetries))

	// Verification, with a Redis outcome cache when configured.
	verifyOpts := []verification.Option{
		verification.WithFetchPolicy(cfg.FetchTimeout, cfg.FetchRetries),
	}
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		verifyOpts = append(verifyOpts, verification.WithCache(cache.NewRedis(redisClient.Client, cfg.VerifyCacheTTL)))
		checks["redis"] = redisClient
		log.Info("verification cache attached", "backend", "redis", "ttl", cfg.VerifyCacheTTL)
	} else {
		verifyOpts = append(verifyOpts, verification.WithCache(cache.NewMemory(cfg.VerifyCacheTTL)))
	}
	verifier := verification.New(reg, store, log, verificationmetrics.New(), verifyOpts...)

	// Event fan-out: Kafka when brokers are configured, in-process otherwise.
	var publisher events.Publisher = events.NewMemoryPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := events.NewKafkaPublisher(ctx, cfg.KafkaBrokers)
		if pubErr != nil {
			return pubErr
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("event publisher attached", "backend", "kafka", "brokers", cfg.KafkaBrokers)
	}
	worker := events.NewWorker(publisher, led.Subscribe(cfg.EventBuffer), log)

	router := httptransport.NewRouter(httptransport.Deps{
		Issuance:     issuer,
		Registry:     reg,
		Verification: verifier,
		Identity:     identity.NewService(cfg.JWTSigningKey, "certledger"),
		TokenTTL:     cfg.TokenTTL,
		Logger:       log,
		Checks:       checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting certledger", "addr", cfg.Addr, "admin", cfg.AdminIdentity)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
