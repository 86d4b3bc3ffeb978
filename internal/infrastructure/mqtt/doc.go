// Package mqtt provides the broker connection for the door controller.
//
// This package manages:
//   - Connection to the broker with credentials and optional TLS
//   - Non-blocking connect and subscribe that return pollable tokens
//   - Fire-and-forget publishing with asynchronous failure logging
//   - Last Will and Testament on the door's availability topic
//   - Topic builders and topic/filter validation
//
// # Reconnection
//
// paho's automatic reconnect is switched off. The controller's connectivity
// manager decides when to connect, waits on the returned Token from its
// own loop and resubscribes after every new session. The connection-lost
// callback tells it when to start over.
//
// # Availability
//
// The availability topic holds a retained "online" while the controller is
// connected. A clean Close replaces it with "offline"; a crash or network
// loss has the broker publish the same value from the Last Will.
//
// # Usage
//
//	client, err := mqtt.New(cfg.MQTT, "access/door1/status")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	token := client.Connect()
//	select {
//	case <-token.Done():
//	    if err := token.Error(); err != nil {
//	        // retry later
//	    }
//	default:
//	    // still connecting; check again next tick
//	}
package mqtt
