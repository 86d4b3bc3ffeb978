package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the door controller.
//
// Unlike a typical paho client it never reconnects on its own: Connect and
// Subscribe start an operation and return a Token the caller polls, so a
// single cooperative loop can own the reconnection policy without blocking.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Message handlers run on paho goroutines.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// availabilityTopic carries the retained online/offline marker and the LWT.
	availabilityTopic string

	// onDisconnect is invoked when an established connection drops.
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Token is a pending broker operation. Done is closed when the operation
// finishes; Error is only meaningful after that.
//
// paho's tokens satisfy this interface.
type Token interface {
	Done() <-chan struct{}
	Error() error
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked on paho goroutines and must not block.
// A returned error is logged and otherwise ignored.
type MessageHandler func(topic string, payload []byte) error

// New creates a client for the configured broker. No connection is made
// until Connect is called.
//
// The Last Will publishes "offline" retained on availabilityTopic if the
// controller drops off the broker without a clean Close.
func New(cfg config.MQTTConfig, availabilityTopic string) (*Client, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	if err := ValidateTopic(availabilityTopic); err != nil {
		return nil, fmt.Errorf("availability topic: %w", err)
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, availabilityTopic, byte(cfg.QoS))

	c := &Client{
		cfg:               cfg,
		options:           opts,
		availabilityTopic: availabilityTopic,
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	return c, nil
}

// Connect starts a connection attempt and returns immediately.
//
// The returned Token completes when the broker accepts or refuses the
// connection (bounded by the connect timeout). Connect may be called again
// after a failed attempt or a lost connection.
func (c *Client) Connect() Token {
	return c.client.Connect()
}

// handleConnect is called when the connection is established.
func (c *Client) handleConnect() {
	c.publishAvailability(payloadOnline)
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// publishAvailability publishes the retained availability marker.
func (c *Client) publishAvailability(status string) {
	token := c.client.Publish(c.availabilityTopic, byte(c.cfg.QoS), true, status)
	go c.watchPublish(token, c.availabilityTopic)
}

// Close gracefully disconnects from the MQTT broker.
//
// It publishes "offline" on the availability topic (replacing the retained
// "online"), waits briefly for it to be sent, then disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.client.Publish(c.availabilityTopic, byte(c.cfg.QoS), true, payloadOffline)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	return nil
}

// HealthCheck reports whether the broker connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state as paho sees it.
// It is true from the moment a Connect token completes successfully.
func (c *Client) IsConnected() bool {
	if c.client == nil {
		return false
	}
	return c.client.IsConnected()
}

// SetOnDisconnect sets a callback to be invoked when the connection is lost.
// The error parameter describes why the connection was lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers and async publishes are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.dispatch(handler, msg.Topic(), msg.Payload())
	}
}

// dispatch runs handler with panic recovery.
func (c *Client) dispatch(handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", topic,
					"panic", r,
				)
			}
		}
	}()

	if err := handler(topic, payload); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT handler returned error",
				"topic", topic,
				"error", err,
			)
		}
	}
}
