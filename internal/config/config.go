package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/micaelgg/buutech/common/config"
	"github.com/micaelgg/buutech/internal/decoder"
)

// BrokerPort is fixed for the plant network
const BrokerPort = 1883

// Config telemetry-ingest settings
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Ingest struct {
		TopicScheme    decoder.Scheme
		MessageTimeout time.Duration
		// stream name for stored readings, empty disables
		Stream string
	}

	Retry struct {
		StoreAttempts int
		StoreDelay    time.Duration
		BrokerDelay   time.Duration
	}

	HTTP struct {
		Addr           string
		AllowedOrigins string
	}

	CatalogSeedFile string

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the environment, after merging an optional .env file
func Load() (*Config, error) {
	if path := getEnv("ENV_FILE", ".env"); fileExists(path) {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "postgres"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Host = getEnv("BROKER_HOSTNAME", "mos1")
	cfg.MQTT.Port = BrokerPort
	cfg.MQTT.ClientID = "telemetry-ingest-" + uuid.NewString()
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.ConnectTimeout = parseDuration(getEnv("MQTT_CONNECT_TIMEOUT", "30s"), 30*time.Second)
	cfg.MQTT.LoadFromEnv("MQTT")
	if cfg.MQTT.QoS > 2 {
		return nil, fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}

	scheme, err := decoder.ParseScheme(getEnv("TOPIC_SCHEME", string(decoder.SchemeHierarchical)))
	if err != nil {
		return nil, fmt.Errorf("TOPIC_SCHEME: %w", err)
	}
	cfg.Ingest.TopicScheme = scheme
	cfg.Ingest.MessageTimeout = parseDuration(getEnv("INGEST_MESSAGE_TIMEOUT", "5s"), 5*time.Second)
	cfg.Ingest.Stream = getEnv("INGEST_STREAM", "telemetry:readings")

	cfg.Retry.StoreAttempts = parseInt(getEnv("STORE_RETRY_ATTEMPTS", "5"), 5)
	cfg.Retry.StoreDelay = parseDuration(getEnv("STORE_RETRY_DELAY", "5s"), 5*time.Second)
	cfg.Retry.BrokerDelay = parseDuration(getEnv("BROKER_RECONNECT_DELAY", "10s"), 10*time.Second)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":4000")
	cfg.HTTP.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", "*")

	cfg.CatalogSeedFile = getEnv("CATALOG_SEED_FILE", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
