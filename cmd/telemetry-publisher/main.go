package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/common/config"
	"github.com/micaelgg/buutech/common/logger"
	"github.com/micaelgg/buutech/common/mqtt"
	"github.com/micaelgg/buutech/internal/decoder"
	"github.com/micaelgg/buutech/internal/publisher"
)

func main() {
	var (
		host     = pflag.String("broker", "localhost", "MQTT broker host")
		port     = pflag.Int("port", 1883, "MQTT broker port")
		clientID = pflag.String("client-id", "", "MQTT client id (default telemetry-publisher-<uuid>)")
		scheme   = pflag.String("scheme", "flat", "topic convention: flat or hierarchical")
		sensors  = pflag.IntP("sensors", "n", 4, "number of simulated sensors")
		building = pflag.String("building", "production_building", "building segment of hierarchical topics")
		area     = pflag.String("area", "production_hall", "area segment of hierarchical topics")
		interval = pflag.DurationP("interval", "i", time.Minute, "time between rounds")
		qos      = pflag.Uint8("qos", 1, "MQTT QoS")
		once     = pflag.Bool("once", false, "publish a single round and exit")
		logLevel = pflag.String("log-level", "info", "debug, info, warn or error")
		mode     = pflag.String("transport", "mqtt", "delivery path: mqtt or http")
		apiURL   = pflag.String("api-url", "http://localhost:4000", "base URL of the ingest HTTP API for --transport=http")
	)
	pflag.Parse()

	zl, err := logger.NewLogger(*logLevel, "console", "telemetry-publisher")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()

	sch, err := decoder.ParseScheme(*scheme)
	if err != nil {
		zl.Fatal("Invalid --scheme", zap.Error(err))
	}
	if *sensors < 1 {
		zl.Fatal("--sensors must be at least 1")
	}
	if *clientID == "" {
		*clientID = "telemetry-publisher-" + uuid.NewString()
	}

	var client publisher.Client
	switch *mode {
	case "mqtt":
		mc := mqtt.NewClient(&config.MQTTConfig{
			Host:           *host,
			Port:           *port,
			ClientID:       *clientID,
			ConnectTimeout: 10 * time.Second,
		}, zl)
		if err := mc.Connect(); err != nil {
			zl.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mc.Disconnect()
		client = mc
	case "http":
		client = publisher.NewRESTClient(*apiURL, zl)
	default:
		zl.Fatal("Invalid --transport", zap.String("transport", *mode))
	}

	gen := publisher.NewGenerator(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)))
	pub := publisher.New(client, gen, publisher.Targets(sch, *sensors, *building, *area), publisher.Options{
		QoS:      *qos,
		Interval: *interval,
	}, zl)

	if *once {
		pub.PublishOnce()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl.Info("Publishing telemetry",
		zap.String("transport", *mode),
		zap.String("broker", fmt.Sprintf("%s:%d", *host, *port)),
		zap.String("scheme", string(sch)),
		zap.Int("sensors", *sensors),
		zap.Duration("interval", *interval),
	)
	if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("Publisher stopped", zap.Error(err))
	}
}
