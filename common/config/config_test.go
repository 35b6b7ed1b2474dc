package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN_PrefersURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", c.GetDSN())

	c.URL = "postgres://u:p@db:5432/d?sslmode=disable"
	assert.Equal(t, c.URL, c.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "pg")
	t.Setenv("TEST_DB_PORT", "6543")
	t.Setenv("TEST_DB_NAME", "telemetry")

	c := DatabaseConfig{Host: "localhost", Port: 5432, Database: "postgres"}
	c.LoadFromEnv("TEST_DB")

	assert.Equal(t, "pg", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, "telemetry", c.Database)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_ENABLED", "true")
	t.Setenv("TEST_REDIS_ADDR", "cache:6379")
	t.Setenv("TEST_REDIS_DB", "2")

	var c RedisConfig
	c.LoadFromEnv("TEST_REDIS")

	assert.True(t, c.Enabled)
	assert.Equal(t, "cache:6379", c.Addr)
	assert.Equal(t, 2, c.DB)
}

func TestMQTTConfig_BrokerURL(t *testing.T) {
	c := MQTTConfig{Host: "mos1", Port: 1883}
	assert.Equal(t, "tcp://mos1:1883", c.BrokerURL())
}
