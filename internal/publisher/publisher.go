package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/decoder"
	"github.com/micaelgg/buutech/internal/domain"
)

// Client is satisfied by common/mqtt.Client and RESTClient
type Client interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Target one simulated sensor
type Target struct {
	Topic string
	Tag   string
	// include sensor_tag in the body (hierarchical convention)
	TagInBody bool
}

// Targets builds n sensors in the given convention. Hierarchical sensors are
// named temp_1..temp_n under building/area; flat ones are numbered 1..n.
func Targets(scheme decoder.Scheme, n int, building, area string) []Target {
	out := make([]Target, 0, n)
	for i := 1; i <= n; i++ {
		if scheme == decoder.SchemeFlat {
			out = append(out, Target{Topic: decoder.FlatTopic(i), Tag: strconv.Itoa(i)})
			continue
		}
		tag := fmt.Sprintf("temp_%d", i)
		out = append(out, Target{Topic: decoder.HierarchicalTopic(building, area, tag), Tag: tag, TagInBody: true})
	}
	return out
}

type payload struct {
	SensorTag   string  `json:"sensor_tag,omitempty"`
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
}

// Publisher emits one reading per target every interval
type Publisher struct {
	client   Client
	gen      *Generator
	targets  []Target
	qos      byte
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

type Options struct {
	QoS      byte
	Interval time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

func New(client Client, gen *Generator, targets []Target, opts Options, logger *zap.Logger) *Publisher {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Publisher{
		client:   client,
		gen:      gen,
		targets:  targets,
		qos:      opts.QoS,
		interval: opts.Interval,
		now:      opts.Now,
		logger:   logger,
	}
}

// PublishOnce sends one round. A failed publish is logged and the round continues.
func (p *Publisher) PublishOnce() int {
	now := p.now()
	sent := 0
	for _, t := range p.targets {
		msg := payload{
			Temperature: p.gen.Next(now.Hour(), t.Tag),
			Timestamp:   now.Format(domain.TimestampLayout),
		}
		if t.TagInBody {
			msg.SensorTag = t.Tag
		}
		body, err := json.Marshal(msg)
		if err != nil {
			p.logger.Error("Failed to encode payload", zap.String("topic", t.Topic), zap.Error(err))
			continue
		}
		if err := p.client.Publish(t.Topic, p.qos, false, body); err != nil {
			p.logger.Warn("Failed to publish", zap.String("topic", t.Topic), zap.Error(err))
			continue
		}
		sent++
		p.logger.Info("Published temperature",
			zap.String("topic", t.Topic),
			zap.Float64("temperature", msg.Temperature),
			zap.String("timestamp", msg.Timestamp),
		)
	}
	return sent
}

// Run publishes immediately and then every interval until ctx is done
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PublishOnce()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PublishOnce()
		}
	}
}
