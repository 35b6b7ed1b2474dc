package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/common/database"
	rediscommon "github.com/micaelgg/buutech/common/redis"
	"github.com/micaelgg/buutech/internal/catalog"
	"github.com/micaelgg/buutech/internal/config"
	"github.com/micaelgg/buutech/internal/consumer"
	httpapi "github.com/micaelgg/buutech/internal/http"
	"github.com/micaelgg/buutech/internal/repository"
	"github.com/micaelgg/buutech/internal/resolver"
	"github.com/micaelgg/buutech/internal/store"
	"github.com/micaelgg/buutech/internal/supervisor"
)

const (
	httpShutdownTimeout = 5 * time.Second
	redisPingTimeout    = 2 * time.Second
)

// Dependencies external handles of the service. Catalog and Readings default
// to the Postgres repositories over DB.
type Dependencies struct {
	DB       *sql.DB
	Broker   supervisor.Broker
	Redis    *redis.Client
	Catalog  repository.CatalogRepository
	Readings repository.ReadingsRepository
	Sleep    supervisor.SleepFunc
}

// IngestService wires store, catalog, broker and HTTP API
type IngestService struct {
	config *config.Config
	deps   Dependencies
	logger *zap.Logger

	server     *Server
	brokerSup  *supervisor.BrokerSupervisor
	cancel     context.CancelFunc
	brokerDone chan struct{}
	stopOnce   sync.Once
}

func NewIngestService(cfg *config.Config, deps Dependencies, logger *zap.Logger) *IngestService {
	if deps.Catalog == nil {
		deps.Catalog = repository.NewPostgresCatalogRepository(deps.DB)
	}
	if deps.Readings == nil {
		deps.Readings = repository.NewPostgresReadingsRepository(deps.DB)
	}
	return &IngestService{config: cfg, deps: deps, logger: logger}
}

// Start runs store readiness, catalog reconciliation and index build, then
// starts the HTTP API and the broker supervisor in the background.
// A store that never becomes ready yields supervisor.ErrStoreUnreachable
// and the broker is not contacted.
func (s *IngestService) Start(ctx context.Context) error {
	s.logger.Info("Starting telemetry ingest service components")

	// 1. store reachable, schema applied
	readiness := supervisor.StoreReadiness{
		DB: s.deps.DB,
		Schema: func(ctx context.Context) error {
			return repository.EnsureSchema(ctx, s.deps.DB)
		},
		Policy: supervisor.RetryPolicy{
			MaxAttempts: s.config.Retry.StoreAttempts,
			Delay:       s.config.Retry.StoreDelay,
			Sleep:       s.deps.Sleep,
		},
		Logger: s.logger,
	}
	if err := readiness.EnsureStoreReady(ctx); err != nil {
		return err
	}

	// 2. catalog
	seed, err := catalog.LoadSeed(s.config.CatalogSeedFile)
	if err != nil {
		return err
	}
	report, err := catalog.Reconcile(ctx, s.deps.Catalog, seed)
	if err != nil {
		return fmt.Errorf("failed to reconcile catalog: %w", err)
	}
	s.logger.Info("Catalog reconciled",
		zap.Int("buildings_created", report.BuildingsCreated),
		zap.Int("areas_created", report.AreasCreated),
		zap.Int("sensors_created", report.SensorsCreated),
		zap.Int("sensors_existing", report.SensorsExisting),
	)

	// 3. immutable tag index
	index, err := catalog.LoadIndex(ctx, s.deps.Catalog)
	if err != nil {
		return err
	}
	res := resolver.New(index, s.deps.Catalog, s.logger)

	cache := s.latestCache(ctx)

	// 4. HTTP API
	router := httpapi.NewRouter(s.logger)
	router.RegisterTemperatureRoutes(httpapi.NewTemperatureHandler(s.deps.Readings, res, s.logger))
	router.RegisterSensorRoutes(httpapi.NewSensorHandler(s.deps.Catalog, cache, s.logger))
	router.RegisterOpsRoutes(httpapi.NewHealthHandler(s.deps.DB, s.deps.Broker))

	s.server = NewServer(s.config.HTTP.Addr, httpapi.WithCORS(router, s.config.HTTP.AllowedOrigins), s.logger)
	if err := s.server.Listen(); err != nil {
		return err
	}
	go func() {
		if err := s.server.Start(); err != nil {
			s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()

	// 5. broker, on its own goroutine
	mqttConsumer := consumer.NewMQTTConsumer(res, s.deps.Readings, cache, s.logger)
	mqttConsumer.SetTimeout(s.config.Ingest.MessageTimeout)

	s.brokerSup = supervisor.NewBrokerSupervisor(
		s.deps.Broker,
		s.config.Ingest.TopicScheme.Subscription(),
		s.config.MQTT.QoS,
		mqttConsumer.HandleMessage,
		supervisor.RetryPolicy{Delay: s.config.Retry.BrokerDelay, Sleep: s.deps.Sleep},
		s.logger,
	)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.brokerDone = make(chan struct{})
	go func() {
		defer close(s.brokerDone)
		if err := s.brokerSup.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Broker supervisor exited", zap.Error(err))
		}
	}()

	s.logger.Info("Telemetry ingest service started",
		zap.String("http_addr", s.server.Addr()),
		zap.String("topic", s.config.Ingest.TopicScheme.Subscription()),
		zap.Int("sensors", index.Len()),
	)
	return nil
}

func (s *IngestService) latestCache(ctx context.Context) store.LatestCache {
	if s.deps.Redis == nil {
		return store.NopCache{}
	}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rediscommon.Ping(pingCtx, s.deps.Redis); err != nil {
		s.logger.Warn("Redis not reachable, latest-value cache writes will fail until it is", zap.Error(err))
	}
	return store.NewRedisLatestCache(s.deps.Redis, s.config.Ingest.Stream)
}

// HTTPAddr bound address of the API, empty before Start
func (s *IngestService) HTTPAddr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr()
}

// Stop unsubscribes, drains the HTTP server and closes connections
func (s *IngestService) Stop(ctx context.Context) error {
	var stopErr error
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping telemetry ingest service")

		if s.cancel != nil {
			s.cancel()
			<-s.brokerDone
		}
		if s.brokerSup != nil {
			s.brokerSup.Shutdown()
		}

		if s.server != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, httpShutdownTimeout)
			if err := s.server.Stop(shutdownCtx); err != nil {
				s.logger.Error("Error stopping HTTP server", zap.Error(err))
				stopErr = err
			}
			cancel()
		}

		if err := rediscommon.Close(s.deps.Redis); err != nil {
			s.logger.Warn("Error closing Redis", zap.Error(err))
		}
		if err := database.Close(s.deps.DB); err != nil {
			s.logger.Error("Error closing database", zap.Error(err))
			stopErr = errors.Join(stopErr, err)
		}

		s.logger.Info("Telemetry ingest service stopped")
	})
	return stopErr
}
