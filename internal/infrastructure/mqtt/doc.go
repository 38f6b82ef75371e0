// Package mqtt provides MQTT client connectivity for the lampgrid gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway publishes lamp state changes and bridge lifecycle events to
// MQTT so external consumers (dashboards, automation engines, recorders)
// can follow the grid without polling the HTTP API.
//
//	lampgrid gateway ──► MQTT Broker ──► external subscribers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish a lamp state update
//	topic := mqtt.Topics{}.LampState("b7c2", "3")
//	client.Publish(topic, []byte(`{"on":true,"bri":200}`), 1, true)
//
//	// Follow every lamp on the grid
//	err = client.Subscribe(mqtt.Topics{}.AllLampStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("%s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
