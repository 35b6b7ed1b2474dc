package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/common/database"
	"github.com/micaelgg/buutech/common/logger"
	"github.com/micaelgg/buutech/common/mqtt"
	rediscommon "github.com/micaelgg/buutech/common/redis"
	"github.com/micaelgg/buutech/internal/config"
	"github.com/micaelgg/buutech/internal/metrics"
	"github.com/micaelgg/buutech/internal/service"
	"github.com/micaelgg/buutech/internal/supervisor"
)

const (
	exitFailure          = 1
	exitStoreUnreachable = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return exitFailure
	}

	zl, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "telemetry-ingest")
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return exitFailure
	}
	defer zl.Sync()

	zl.Info("Starting telemetry-ingest service",
		zap.String("mqtt_broker", cfg.MQTT.BrokerURL()),
		zap.String("mqtt_client_id", cfg.MQTT.ClientID),
		zap.String("topic_scheme", string(cfg.Ingest.TopicScheme)),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		zl.Error("Failed to open database", zap.Error(err))
		return exitFailure
	}
	metrics.Init(db, zl)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = rediscommon.NewRedisClient(&cfg.Redis)
	}

	svc := service.NewIngestService(cfg, service.Dependencies{
		DB:     db,
		Broker: mqtt.NewClient(&cfg.MQTT, zl),
		Redis:  redisClient,
	}, zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		_ = svc.Stop(context.Background())
		if errors.Is(err, supervisor.ErrStoreUnreachable) {
			zl.Error("Could not connect to the database", zap.Error(err))
			return exitStoreUnreachable
		}
		if errors.Is(err, context.Canceled) {
			zl.Info("Startup interrupted")
			return 0
		}
		zl.Error("Failed to start telemetry-ingest service", zap.Error(err))
		return exitFailure
	}

	<-ctx.Done()
	zl.Info("Received signal, shutting down")

	if err := svc.Stop(context.Background()); err != nil {
		zl.Error("Error during shutdown", zap.Error(err))
	}
	zl.Info("Service stopped")
	return 0
}
