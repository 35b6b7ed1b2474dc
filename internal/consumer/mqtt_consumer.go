package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/decoder"
	"github.com/micaelgg/buutech/internal/metrics"
	"github.com/micaelgg/buutech/internal/repository"
	"github.com/micaelgg/buutech/internal/resolver"
	"github.com/micaelgg/buutech/internal/store"
)

// DefaultMessageTimeout bounds store work for one message
const DefaultMessageTimeout = 5 * time.Second

// SensorResolver maps a tag to a sensor id
type SensorResolver interface {
	Resolve(ctx context.Context, tag string) (int64, error)
}

// MQTTConsumer turns broker messages into stored readings.
// Messages arrive one at a time on the broker's delivery goroutine.
type MQTTConsumer struct {
	resolver SensorResolver
	readings repository.ReadingsRepository
	cache    store.LatestCache
	logger   *zap.Logger
	timeout  time.Duration
}

// NewMQTTConsumer creates the consumer. cache may be nil.
func NewMQTTConsumer(
	res SensorResolver,
	readings repository.ReadingsRepository,
	cache store.LatestCache,
	logger *zap.Logger,
) *MQTTConsumer {
	if cache == nil {
		cache = store.NopCache{}
	}
	return &MQTTConsumer{
		resolver: res,
		readings: readings,
		cache:    cache,
		logger:   logger,
		timeout:  DefaultMessageTimeout,
	}
}

// SetTimeout overrides DefaultMessageTimeout
func (c *MQTTConsumer) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// HandleMessage processes one delivery. Every failure drops the message;
// the returned error is informational only.
func (c *MQTTConsumer) HandleMessage(topic string, payload []byte) error {
	start := time.Now()
	result, err := c.handle(topic, payload)
	metrics.ObserveIngest(result, time.Since(start))
	return err
}

func (c *MQTTConsumer) handle(topic string, payload []byte) (string, error) {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	// 1. decode
	draft, err := decoder.Decode(topic, payload)
	if err != nil {
		c.logger.Warn("Dropping undecodable message",
			zap.String("topic", topic),
			zap.ByteString("payload", truncate(payload, 256)),
			zap.Error(err),
		)
		return metrics.IngestDecodeError, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	// 2. resolve
	sensorID, err := c.resolver.Resolve(ctx, draft.SensorTag)
	if err != nil {
		if errors.Is(err, resolver.ErrUnknownSensorTag) {
			c.logger.Warn("Dropping reading for unknown sensor",
				zap.String("topic", topic),
				zap.String("sensor_tag", draft.SensorTag),
			)
			return metrics.IngestUnknownSensor, err
		}
		c.logger.Error("Failed to resolve sensor tag",
			zap.String("topic", topic),
			zap.String("sensor_tag", draft.SensorTag),
			zap.Error(err),
		)
		return metrics.IngestStoreError, err
	}

	// 3. persist, no retry
	reading, err := c.readings.InsertReading(ctx, sensorID, draft.Temperature, draft.Timestamp)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownSensor) {
			c.logger.Warn("Dropping reading for sensor missing from store",
				zap.String("sensor_tag", draft.SensorTag),
				zap.Int64("sensor_id", sensorID),
			)
			return metrics.IngestUnknownSensor, err
		}
		c.logger.Error("Failed to store reading",
			zap.String("topic", topic),
			zap.String("sensor_tag", draft.SensorTag),
			zap.Bool("store_unavailable", errors.Is(err, repository.ErrStoreUnavailable)),
			zap.Error(err),
		)
		return metrics.IngestStoreError, fmt.Errorf("store reading: %w", err)
	}

	// 4. latest value, best effort
	if err := c.cache.Put(ctx, *reading); err != nil {
		metrics.IncCacheError()
		c.logger.Warn("Failed to cache latest reading",
			zap.String("sensor_tag", reading.SensorTag),
			zap.Error(err),
		)
	}

	c.logger.Info("Stored reading",
		zap.Int64("reading_id", reading.ID),
		zap.String("sensor_tag", reading.SensorTag),
		zap.Float64("temperature", reading.Value),
	)
	return metrics.IngestStored, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
