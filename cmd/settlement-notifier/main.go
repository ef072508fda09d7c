package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/internal/notifier/consumer"
	"github.com/radieske/wager-settlement-platform/internal/notifier/ws"
	"github.com/radieske/wager-settlement-platform/internal/shared/cache"
	"github.com/radieske/wager-settlement-platform/internal/shared/config"
	"github.com/radieske/wager-settlement-platform/internal/shared/kafka"
	"github.com/radieske/wager-settlement-platform/internal/shared/logger"
	"github.com/radieske/wager-settlement-platform/internal/shared/metrics"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/topics"
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

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	m := metrics.NewNotifier(prometheus.DefaultRegisterer)

	// CORS liberado: o notifier só envia eventos, não aceita comandos sensíveis
	hub := ws.NewHub(func(*http.Request) bool { return true }, log.Named("ws"))
	hub.OnDelivered = m.ObserveDelivered

	switch cfg.NotifierSource {
	case "kafka":
		reader := kafka.NewReader(cfg.KafkaBrokers, cfg.NotifierGroupID, cfg.TopicWagerPlaced, cfg.TopicWagerSettled, cfg.TopicTargetResult)
		defer reader.Close()
		relay := &consumer.Relay{
			Log:    log.Named("consumer"),
			Reader: reader,
			Hub:    hub,
			Types: map[string]string{
				cfg.TopicWagerPlaced:  topics.WagerPlaced,
				cfg.TopicWagerSettled: topics.WagerSettled,
				cfg.TopicTargetResult: topics.TargetResult,
			},
			OnConsumed: m.ObserveConsumed,
			OnError:    m.ObserveError,
		}
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("kafka relay stopped", zap.Error(err))
			}
		}()
		log.Info("kafka relay started", zap.String("group", cfg.NotifierGroupID))
	case "redis":
		ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)
	default:
		log.Fatal("unknown NOTIFIER_SOURCE", zap.String("source", cfg.NotifierSource))
	}

	r := chi.NewRouter()
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		m.Connections.Inc()
		defer m.Connections.Dec()
		hub.HandleWS(w, r)
	})

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, prometheus.DefaultGatherer, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("settlement-notifier listening", zap.String("addr", srv.Addr), zap.String("channel", cfg.RedisPubSubChannel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ws server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
}
