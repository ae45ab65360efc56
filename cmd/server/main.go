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

	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "clubreg/internal/http"
	"clubreg/internal/member"
	"clubreg/internal/payment"
	"clubreg/internal/platform/config"
	"clubreg/internal/platform/httpserver"
	"clubreg/internal/platform/logger"
	"clubreg/internal/platform/postgres"
	redisplatform "clubreg/internal/platform/redis"
	"clubreg/internal/registration/fallback"
	"clubreg/internal/registration/handler"
	regmetrics "clubreg/internal/registration/metrics"
	"clubreg/internal/registration/projection"
	"clubreg/internal/registration/service"
	regstore "clubreg/internal/registration/store/registration"
	"clubreg/pkg/platform/audit"
	"clubreg/pkg/platform/audit/publisher"
	auditmemory "clubreg/pkg/platform/audit/store/memory"
	auditworker "clubreg/pkg/platform/audit/worker"
	"clubreg/pkg/platform/circuit"
)

// registrationStore is what main needs from a store backend: the reads the
// orchestrator does plus the write paths the fallback chain drives.
type registrationStore interface {
	service.Store
	fallback.Gateway
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkers := map[string]httpapi.HealthChecker{}

	var store registrationStore
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = regstore.NewPostgres(pool)
		checkers["postgres"] = poolChecker{pool}
	} else {
		log.Warn("no database configured, using in-memory registration store")
		store = regstore.NewInMemory()
	}

	var proj projection.Store = projection.NewInMemory()
	rdb, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		proj = projection.NewRedis(rdb.Client, "server", 24*time.Hour)
		checkers["redis"] = rdb
	}

	var auditPublisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka client failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditPublisher = kafka
	} else {
		inbox := make(chan audit.Event, 256)
		auditPublisher = publisher.NewChannel(inbox)
		w := auditworker.NewWorker(auditmemory.NewInMemoryStore(), inbox)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
	}

	verifier := payment.New(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.PaymentTimeout,
		payment.WithLogger(log))
	members := member.New(cfg.MemberServiceURL, cfg.MemberServiceTimeout)

	chain := fallback.New(store,
		fallback.WithTimeout(cfg.WriteTimeout),
		fallback.WithLogger(log),
		fallback.WithBreaker(circuit.New("direct-write",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(3),
		)),
	)
	svc := service.New(store, chain, verifier, members, proj,
		service.WithLogger(log),
		service.WithMetrics(regmetrics.New()),
		service.WithAuditPublisher(auditPublisher),
	)

	if cfg.ReconcileInterval > 0 {
		go runReconciler(ctx, svc, cfg.ReconcileInterval, log)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Registrations: handler.New(svc, log),
		Logger:        log,
		AdminToken:    cfg.AdminToken,
		Checkers:      checkers,
	})
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting clubreg server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// runReconciler periodically re-persists locally-ahead records.
func runReconciler(ctx context.Context, svc *service.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Reconcile(ctx); err != nil {
				log.Warn("reconciliation sweep failed", "error", err)
			}
		}
	}
}

// poolChecker adapts a pgx pool to the readiness probe.
type poolChecker struct {
	pool *pgxpool.Pool
}

func (c poolChecker) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}
