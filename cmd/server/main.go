package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"agritrust/internal/attestation"
	"agritrust/internal/credential"
	"agritrust/internal/identity"
	"agritrust/internal/ledger"
	"agritrust/internal/platform/config"
	"agritrust/internal/platform/content"
	"agritrust/internal/platform/httpserver"
	"agritrust/internal/platform/ledgerlog"
	"agritrust/internal/platform/metrics"
	"agritrust/internal/platform/middleware"
	platformredis "agritrust/internal/platform/redis"
	"agritrust/internal/platform/signer"
	"agritrust/internal/trace"
	httptransport "agritrust/internal/transport/http"
)

// main wires the stores, collaborators, and services, exposes the HTTP
// router, and owns the process lifecycle. Business logic lives in the
// internal service packages.
func main() {
	cfg := config.FromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, logger *slog.Logger) error {
	m := metrics.New()
	devSigner := signer.NewHMAC(cfg.SignerKey)
	addresser := content.NewSHA256()

	var logAppender ledgerlog.Appender
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := ledgerlog.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		logAppender = kafka
	} else {
		logAppender = ledgerlog.NewMemory()
	}

	var (
		identityStore    identity.Store
		credentialStore  credential.Store
		eventStore       ledger.Store
		attestationStore attestation.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		identityStore = identity.NewPostgres(db)
		credentialStore = credential.NewPostgres(db)
		eventStore = ledger.NewPostgres(db)
		attestationStore = attestation.NewPostgres(db)
	} else {
		identityStore = identity.NewInMemoryStore()
		credentialStore = credential.NewInMemoryStore()
		eventStore = ledger.NewInMemoryStore()
		attestationStore = attestation.NewInMemoryStore()
	}

	identitySvc, err := identity.New(identityStore,
		identity.WithLogger(logger), identity.WithMetrics(m))
	if err != nil {
		return err
	}
	credentialSvc, err := credential.New(credentialStore, identitySvc, devSigner, devSigner,
		credential.WithLogger(logger), credential.WithMetrics(m))
	if err != nil {
		return err
	}
	attestationSvc, err := attestation.New(attestationStore, devSigner, devSigner, addresser, logAppender,
		attestation.WithLogger(logger), attestation.WithMetrics(m))
	if err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	var traceCache *trace.RedisCache
	ledgerOpts := []ledger.Option{ledger.WithLogger(logger), ledger.WithMetrics(m)}
	if redisClient != nil {
		defer redisClient.Close()
		traceCache = trace.NewRedisCache(redisClient, config.TraceCacheTTL, logger)
		ledgerOpts = append(ledgerOpts, ledger.WithInvalidator(traceCache))
	}

	ledgerSvc, err := ledger.New(eventStore, addresser, logAppender, ledgerOpts...)
	if err != nil {
		return err
	}

	traceOpts := []trace.Option{trace.WithLogger(logger)}
	if traceCache != nil {
		traceOpts = append(traceOpts, trace.WithCache(traceCache))
	}
	traceSvc, err := trace.New(ledgerSvc, traceOpts...)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Identity:     httptransport.NewIdentityHandler(identitySvc),
		Credentials:  httptransport.NewCredentialHandler(credentialSvc),
		Events:       httptransport.NewEventHandler(ledgerSvc),
		Attestations: httptransport.NewAttestationHandler(attestationSvc),
		Trace:        httptransport.NewTraceHandler(traceSvc),
		Validator:    middleware.NewJWTValidator(cfg.JWTSigningKey),
		Logger:       logger,
	})
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting agritrust", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
