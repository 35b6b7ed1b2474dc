package supervisor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/common/mqtt"
	"github.com/micaelgg/buutech/internal/metrics"
)

// Broker is the connection surface the supervisor drives.
// common/mqtt.Client implements it.
type Broker interface {
	Connect() error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	Disconnect()
	IsConnected() bool
	ConnectionLost() <-chan error
}

var _ Broker = (*mqtt.Client)(nil)

// BrokerSupervisor keeps one subscription alive across connection losses
type BrokerSupervisor struct {
	broker  Broker
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	policy  RetryPolicy
	logger  *zap.Logger

	mu         sync.Mutex
	subscribed bool
}

// NewBrokerSupervisor creates the supervisor; nothing is dialled until EnsureBrokerReady or Run
func NewBrokerSupervisor(broker Broker, topic string, qos byte, handler mqtt.MessageHandler, policy RetryPolicy, logger *zap.Logger) *BrokerSupervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrokerSupervisor{
		broker:  broker,
		topic:   topic,
		qos:     qos,
		handler: handler,
		policy:  policy,
		logger:  logger,
	}
}

// EnsureBrokerReady connects and subscribes, retrying per policy.
// With the default unbounded policy only ctx cancellation stops it.
func (s *BrokerSupervisor) EnsureBrokerReady(ctx context.Context) error {
	err := s.policy.Retry(ctx, s.logger, "broker", func(ctx context.Context) error {
		return s.connectAndSubscribe()
	})
	if err != nil {
		return err
	}
	metrics.SetBrokerConnected(true)
	s.logger.Info("subscribed", zap.String("topic", s.topic), zap.Uint8("qos", s.qos))
	return nil
}

func (s *BrokerSupervisor) connectAndSubscribe() error {
	if !s.broker.IsConnected() {
		if err := s.broker.Connect(); err != nil {
			return err
		}
	}
	if err := s.broker.Subscribe(s.topic, s.qos, s.handler); err != nil {
		// next attempt starts from a clean connection
		s.broker.Disconnect()
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	s.mu.Lock()
	s.subscribed = true
	s.mu.Unlock()
	return nil
}

// Run owns the broker connection until ctx is done: it connects, waits for a
// loss, then reconnects and re-issues the subscription.
func (s *BrokerSupervisor) Run(ctx context.Context) error {
	if err := s.EnsureBrokerReady(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.broker.ConnectionLost():
			s.mu.Lock()
			s.subscribed = false
			s.mu.Unlock()
			metrics.SetBrokerConnected(false)
			s.logger.Warn("broker connection lost, reconnecting",
				zap.Error(err),
				zap.Duration("retry_in", s.policy.Delay),
			)
			if err := s.EnsureBrokerReady(ctx); err != nil {
				return err
			}
			metrics.IncBrokerReconnect()
		}
	}
}

// Shutdown drops the subscription and closes the connection
func (s *BrokerSupervisor) Shutdown() {
	s.mu.Lock()
	subscribed := s.subscribed
	s.subscribed = false
	s.mu.Unlock()

	if subscribed && s.broker.IsConnected() {
		if err := s.broker.Unsubscribe(s.topic); err != nil {
			s.logger.Warn("unsubscribe failed", zap.String("topic", s.topic), zap.Error(err))
		}
	}
	s.broker.Disconnect()
	metrics.SetBrokerConnected(false)
}
