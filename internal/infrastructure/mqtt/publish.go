package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20 // 1MB

// Publish queues a message for the broker and returns without waiting.
//
// Validation and connection errors are returned immediately. Delivery
// failures after that point are logged through the client's logger.
//
// Retained messages are stored by the broker and handed to late
// subscribers; use them for state and availability topics.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	go c.watchPublish(token, topic)

	return nil
}

// watchPublish logs a publish that failed or was not acknowledged in time.
func (c *Client) watchPublish(token pahomqtt.Token, topic string) {
	logger := c.getLogger()
	if logger == nil {
		return
	}
	if !token.WaitTimeout(defaultPublishTimeout) {
		logger.Warn("MQTT publish not acknowledged",
			"topic", topic,
			"timeout", defaultPublishTimeout,
		)
		return
	}
	if err := token.Error(); err != nil {
		logger.Warn("MQTT publish failed",
			"topic", topic,
			"error", err,
		)
	}
}
