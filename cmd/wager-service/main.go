package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/internal/shared/cache"
	"github.com/radieske/wager-settlement-platform/internal/shared/config"
	"github.com/radieske/wager-settlement-platform/internal/shared/db"
	"github.com/radieske/wager-settlement-platform/internal/shared/kafka"
	"github.com/radieske/wager-settlement-platform/internal/shared/logger"
	"github.com/radieske/wager-settlement-platform/internal/shared/metrics"
	whttp "github.com/radieske/wager-settlement-platform/internal/wager-service/http"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/matcher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/placement"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/publisher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/repo"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/settlement"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("backend", cfg.StoreBackend))

	// tabela de pagamentos
	table := matcher.DefaultTable()
	if cfg.PayoutConfig != "" {
		if table, err = matcher.LoadTable(cfg.PayoutConfig); err != nil {
			log.Fatal("payout config", zap.String("path", cfg.PayoutConfig), zap.Error(err))
		}
		log.Info("payout table loaded", zap.String("path", cfg.PayoutConfig))
	}

	// store
	var (
		store repo.Store
		pg    *sql.DB
	)
	switch cfg.StoreBackend {
	case "postgres":
		pg, err = db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		store = repo.NewPostgres(pg)
		log.Info("postgres connected")
	case "memory":
		store = repo.NewMemory()
	default:
		log.Fatal("unknown STORE_BACKEND", zap.String("backend", cfg.StoreBackend))
	}

	// Redis (broadcast para o notifier)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	broadcaster := cache.NewRedisBroadcaster(rdb)

	// Kafka writers por tópico
	writers := kafka.NewWriters(cfg.KafkaBrokers, cfg.TopicWagerPlaced, cfg.TopicWagerSettled, cfg.TopicTargetResult)
	defer func() {
		if err := writers.Close(); err != nil {
			log.Warn("kafka writers close", zap.Error(err))
		}
	}()

	pub := publisher.Multi{
		publisher.NewKafka(writers.Placed, writers.Settled, writers.Results),
		publisher.NewRedis(broadcaster, cfg.RedisPubSubChannel),
	}

	// métricas
	m := metrics.NewWagers(prometheus.DefaultRegisterer)

	places := placement.New(store, pub, table, log.Named("placement"))
	places.OnPlaced = m.ObservePlaced
	places.OnRejected = m.ObserveRejected
	places.OnPublishError = m.ObservePublishError

	engine := settlement.New(store, pub, log.Named("settlement"), cfg.SettlementWorkers)
	engine.OnSettled = m.ObserveSettled
	engine.OnFailed = m.ObserveFailure
	engine.OnPublishError = m.ObservePublishError
	engine.OnBatch = m.ObserveBatch

	// reconciliador
	if cfg.ReconcileCron != "" {
		rec, err := settlement.NewReconciler(engine, cfg.ReconcileCron, log.Named("reconciler"))
		if err != nil {
			log.Fatal("invalid RECONCILE_CRON", zap.String("spec", cfg.ReconcileCron), zap.Error(err))
		}
		rec.OnRun = m.ObserveReconciled
		rec.Start()
		defer func() { <-rec.Stop().Done() }()
		log.Info("reconciler scheduled", zap.String("spec", cfg.ReconcileCron))
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, prometheus.DefaultGatherer, func(ctx context.Context) error {
		if pg != nil {
			if err := pg.PingContext(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		if err := broadcaster.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}, log)
	log.Info("metrics/health", zap.String("addr", msrv.Addr))

	// HTTP público
	api := whttp.NewServer(log.Named("http"), store, places, engine, cfg.AdminToken)
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set, admin routes disabled")
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("wager-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
}
