package mqtt

import (
	"errors"
	"fmt"
	"time"

	"github.com/micaelgg/buutech/common/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler handles one delivered message
type MessageHandler func(topic string, payload []byte) error

// ErrConnectTimeout is returned when the broker does not acknowledge in time
var ErrConnectTimeout = errors.New("mqtt connect timed out")

// Client wraps a paho client.
// Auto-reconnect is disabled: connection loss is reported on ConnectionLost()
// and the owner decides when to reconnect and resubscribe.
type Client struct {
	client mqtt.Client
	config *config.MQTTConfig
	logger *zap.Logger
	lost   chan error
}

// NewClient builds the client without connecting
func NewClient(cfg *config.MQTTConfig, logger *zap.Logger) *Client {
	c := &Client{
		config: cfg,
		logger: logger,
		lost:   make(chan error, 1),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetCleanSession(true)
	// deliver messages one at a time, in arrival order
	opts.SetOrderMatters(true)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		select {
		case c.lost <- err:
		default:
			// a loss is already pending
		}
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect dials the broker and waits for CONNACK
func (c *Client) Connect() error {
	token := c.client.Connect()
	timeout := c.config.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", c.config.BrokerURL(), ErrConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", c.config.BrokerURL(), err)
	}
	return nil
}

// Subscribe subscribes to topic. Handler errors are logged and never stop delivery.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if token := c.client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Debug("MQTT handler returned error",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	return nil
}

// Publish publishes and waits for the broker acknowledgement
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	return nil
}

// Unsubscribe drops the given subscriptions
func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe: %w", token.Error())
	}

	return nil
}

// Disconnect closes the connection, waiting up to 250ms for in-flight work
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected reports the paho connection state
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectionLost delivers the error of each unexpected disconnect
func (c *Client) ConnectionLost() <-chan error {
	return c.lost
}
