package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micaelgg/buutech/internal/decoder"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tcp://mos1:1883", cfg.MQTT.BrokerURL())
	assert.True(t, strings.HasPrefix(cfg.MQTT.ClientID, "telemetry-ingest-"))
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, decoder.SchemeHierarchical, cfg.Ingest.TopicScheme)
	assert.Equal(t, 5, cfg.Retry.StoreAttempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.StoreDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.BrokerDelay)
	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("DB_URL", "postgres://u:p@db:5432/telemetry?sslmode=disable")
	t.Setenv("BROKER_HOSTNAME", "broker.local")
	t.Setenv("MQTT_CLIENT_ID", "ingest-1")
	t.Setenv("TOPIC_SCHEME", "flat")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("STORE_RETRY_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/telemetry?sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.BrokerURL())
	assert.Equal(t, "ingest-1", cfg.MQTT.ClientID)
	assert.Equal(t, decoder.SchemeFlat, cfg.Ingest.TopicScheme)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.StoreDelay)
}

func TestLoad_BadScheme(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("TOPIC_SCHEME", "mesh")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:5055\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	// godotenv.Load does not override variables that are already set
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("HTTP_ADDR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5055", cfg.HTTP.Addr)
}
