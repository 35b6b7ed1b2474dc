package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/micaelgg/buutech/internal/catalog"
	"github.com/micaelgg/buutech/internal/decoder"
	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/repository"
	"github.com/micaelgg/buutech/internal/resolver"
	"github.com/micaelgg/buutech/internal/store"
)

const prodTopic = "building/production_building/area/production_hall/sensor/temp_2/temperature"

func setupConsumer(t *testing.T, cache store.LatestCache) (*MQTTConsumer, *repository.MemoryRepo, *observer.ObservedLogs) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	_, err = catalog.Reconcile(ctx, repo, seed)
	require.NoError(t, err)
	idx, err := catalog.LoadIndex(ctx, repo)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	c := NewMQTTConsumer(resolver.New(idx, repo, logger), repo, cache, logger)
	return c, repo, logs
}

func TestHandleMessage_StoresReading(t *testing.T) {
	c, repo, _ := setupConsumer(t, nil)
	ctx := context.Background()

	err := c.HandleMessage(prodTopic, []byte(`{"sensor_tag":"temp_2","temperature":21.5,"timestamp":"2024-01-01 08:00:00"}`))
	require.NoError(t, err)

	rows, err := repo.ListReadings(ctx, repository.ReadingFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	sensorID, err := repo.SensorIDByTag(ctx, "temp_2")
	require.NoError(t, err)
	assert.Equal(t, sensorID, rows[0].SensorID)
	assert.Equal(t, "temp_2", rows[0].SensorTag)
	assert.Equal(t, 21.5, rows[0].Value)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), rows[0].Timestamp)
}

func TestHandleMessage_DecodeFailure(t *testing.T) {
	c, repo, logs := setupConsumer(t, nil)

	err := c.HandleMessage(prodTopic, []byte(`{"sensor_tag":"temp_2","temperature":"not-a-number","timestamp":"2024-01-01 08:00:00"}`))
	assert.True(t, errors.Is(err, decoder.ErrDecode))

	rows, err := repo.ListReadings(context.Background(), repository.ReadingFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, logs.FilterMessage("Dropping undecodable message").Len())
}

func TestHandleMessage_UnknownSensor(t *testing.T) {
	c, repo, logs := setupConsumer(t, nil)

	err := c.HandleMessage(prodTopic, []byte(`{"sensor_tag":"temp_99","temperature":20,"timestamp":"2024-01-01 08:00:00"}`))
	assert.True(t, errors.Is(err, resolver.ErrUnknownSensorTag))

	rows, err := repo.ListReadings(context.Background(), repository.ReadingFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	entries := logs.FilterMessage("Dropping reading for unknown sensor").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "temp_99", entries[0].ContextMap()["sensor_tag"])
}

func TestHandleMessage_FlatTopic(t *testing.T) {
	c, repo, _ := setupConsumer(t, nil)

	require.NoError(t, c.HandleMessage("warehouse/3/temperature", []byte(`{"temperature":17.75,"timestamp":"2024-01-01 08:01:00"}`)))

	rows, err := repo.ListReadings(context.Background(), repository.ReadingFilter{SensorTag: "3"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 17.75, rows[0].Value)
}

func TestHandleMessage_DuplicatesAreAppended(t *testing.T) {
	c, repo, _ := setupConsumer(t, nil)
	body := []byte(`{"sensor_tag":"temp_1","temperature":20,"timestamp":"2024-01-01 08:00:00"}`)

	require.NoError(t, c.HandleMessage(prodTopic, body))
	require.NoError(t, c.HandleMessage(prodTopic, body))

	rows, err := repo.ListReadings(context.Background(), repository.ReadingFilter{SensorTag: "temp_1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

type failingReadings struct {
	repository.ReadingsRepository
	err error
}

func (f failingReadings) InsertReading(context.Context, int64, float64, time.Time) (*domain.Reading, error) {
	return nil, f.err
}

func TestHandleMessage_StoreUnavailableIsDropped(t *testing.T) {
	c, _, logs := setupConsumer(t, nil)
	c.readings = failingReadings{err: repository.ErrStoreUnavailable}

	err := c.HandleMessage(prodTopic, []byte(`{"sensor_tag":"temp_2","temperature":21.5,"timestamp":"2024-01-01 08:00:00"}`))
	assert.True(t, errors.Is(err, repository.ErrStoreUnavailable))
	assert.Equal(t, 1, logs.FilterMessage("Failed to store reading").Len())
}

func TestHandleMessage_UpdatesLatestCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := store.NewRedisLatestCache(client, "")

	c, _, _ := setupConsumer(t, cache)
	require.NoError(t, c.HandleMessage(prodTopic, []byte(`{"sensor_tag":"temp_2","temperature":21.5,"timestamp":"2024-01-01 08:00:00"}`)))

	latest, err := cache.Latest(context.Background(), "temp_2")
	require.NoError(t, err)
	assert.Equal(t, 21.5, latest.Value)
}

func TestHandleMessage_CacheFailureDoesNotDropReading(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	c, repo, logs := setupConsumer(t, store.NewRedisLatestCache(client, ""))
	require.NoError(t, c.HandleMessage(prodTopic, []byte(`{"sensor_tag":"temp_2","temperature":21.5,"timestamp":"2024-01-01 08:00:00"}`)))

	rows, err := repo.ListReadings(context.Background(), repository.ReadingFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, logs.FilterMessage("Failed to cache latest reading").Len())
}
