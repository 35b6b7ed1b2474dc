package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	commonredis "github.com/micaelgg/buutech/common/redis"
	"github.com/micaelgg/buutech/internal/domain"
)

const (
	latestKeyPrefix = "sensor:last:"
	LatestTTL       = 24 * time.Hour

	// ReadingsStream receives every stored reading for downstream consumers
	ReadingsStream    = "telemetry:readings"
	readingsStreamMax = 10000
)

// LatestCache keeps the most recent reading per sensor tag
type LatestCache interface {
	Put(ctx context.Context, r domain.Reading) error
	Latest(ctx context.Context, tag string) (*domain.Reading, error)
}

func latestKey(tag string) string { return latestKeyPrefix + tag }

// RedisLatestCache stores sensor:last:{tag} as JSON and appends to ReadingsStream
type RedisLatestCache struct {
	kv     KV
	client *redis.Client
	stream string
}

// NewRedisLatestCache wraps client. An empty stream name disables stream publishing.
func NewRedisLatestCache(client *redis.Client, stream string) *RedisLatestCache {
	return &RedisLatestCache{kv: NewRedisKV(client), client: client, stream: stream}
}

var _ LatestCache = (*RedisLatestCache)(nil)

func (c *RedisLatestCache) Put(ctx context.Context, r domain.Reading) error {
	body, err := json.Marshal(r.ToJSON())
	if err != nil {
		return fmt.Errorf("encode latest %s: %w", r.SensorTag, err)
	}
	if err := c.kv.Set(ctx, latestKey(r.SensorTag), string(body), LatestTTL); err != nil {
		return fmt.Errorf("set latest %s: %w", r.SensorTag, err)
	}
	if c.stream == "" {
		return nil
	}
	if _, err := commonredis.PublishToStream(ctx, c.client, c.stream, readingsStreamMax, map[string]interface{}{
		"id":          r.ID,
		"sensor_id":   r.SensorID,
		"sensor_tag":  r.SensorTag,
		"temperature": r.Value,
		"timestamp":   r.Timestamp.Format(domain.TimestampLayout),
	}); err != nil {
		return fmt.Errorf("stream reading %d: %w", r.ID, err)
	}
	return nil
}

func (c *RedisLatestCache) Latest(ctx context.Context, tag string) (*domain.Reading, error) {
	raw, err := c.kv.Get(ctx, latestKey(tag))
	if err != nil {
		return nil, err
	}
	var j domain.ReadingJSON
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, fmt.Errorf("decode latest %s: %w", tag, err)
	}
	ts, err := domain.ParseTimestamp(j.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode latest %s: %w", tag, err)
	}
	return &domain.Reading{
		ID:        j.ID,
		SensorID:  j.SensorID,
		SensorTag: j.SensorTag,
		Value:     j.Temperature,
		Timestamp: ts,
	}, nil
}

// NopCache used when Redis is disabled
type NopCache struct{}

func (NopCache) Put(context.Context, domain.Reading) error { return nil }

func (NopCache) Latest(context.Context, string) (*domain.Reading, error) { return nil, ErrMiss }
