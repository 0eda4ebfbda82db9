package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/feed"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/identity"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/persist"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/remote"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/store"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/syncer"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	SessionID       string
	KafkaBrokers    []string
	KafkaGroupID    string
	GatewayURL      string
	GatewayToken    string
	UserID          string
	UserEmail       string
	ClearOnSignOut  bool
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		SessionID:       getEnv("SESSION_ID", uuid.New().String()),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "sessiond"),
		GatewayURL:      getEnv("GATEWAY_URL", "http://localhost:8080"),
		GatewayToken:    getEnv("GATEWAY_TOKEN", ""),
		UserID:          getEnv("SESSION_USER_ID", ""),
		UserEmail:       getEnv("SESSION_USER_EMAIL", ""),
		ClearOnSignOut:  getEnv("CLEAR_ON_SIGNOUT", "") == "true",
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("redis ping succeeded")

	st := store.New()

	// Restore the previous session state before anything can mutate it.
	snapshotter := persist.NewRedisSnapshotter(redisClient, cfg.SessionID)
	worker := persist.NewWorker(st, snapshotter, logger)
	if err := worker.Restore(ctx); err != nil {
		logger.Warn("snapshot restore failed, starting fresh", zap.Error(err))
	}
	go worker.Run(ctx)

	// Remote gateway behind a circuit breaker.
	token := cfg.GatewayToken
	client := remote.NewClient(cfg.GatewayURL, func() string { return token })
	gateway := remote.NewBreakerGateway(client)

	// Identity: startup query plus the live auth event stream.
	svc := identity.NewStaticService(cfg.UserID, cfg.UserEmail)
	consumer := identity.NewConsumer(logger, cfg.KafkaGroupID, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	coord := syncer.New(st, gateway, logger, syncer.Config{
		ClearOnSignOut: cfg.ClearOnSignOut,
	})
	go coord.Run(ctx, svc, consumer.Events())

	broadcaster := feed.NewBroadcaster(st, logger)
	go broadcaster.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", broadcaster.HandleWS)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("session agent starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("session_id", cfg.SessionID),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down session agent")

	// Cancel the workers first so the persist worker takes its final flush.
	cancel()
	time.Sleep(200 * time.Millisecond)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("session agent exited")
}
