package mqtt

import (
	"fmt"
)

// Subscribe starts a subscription and returns immediately.
//
// The returned Token completes when the broker acknowledges the
// subscription. Subscriptions are not restored automatically: sessions are
// clean, so the caller subscribes again after every reconnect.
//
// Topic filters may use + and # wildcards.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) (Token, error) {
	if err := ValidateFilter(topic); err != nil {
		return nil, err
	}
	if qos > maxQoS {
		return nil, ErrInvalidQoS
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	return c.client.Subscribe(topic, qos, c.wrapHandler(handler)), nil
}
