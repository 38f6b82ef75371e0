package mqtt

import "fmt"

// Topic prefixes for the lampgrid MQTT namespace.
//
// Scheme: lampgrid/{category}/{bridge_id}[/{lamp_id}]
const (
	// TopicPrefix is the base for all lampgrid topics.
	TopicPrefix = "lampgrid"

	// TopicPrefixSystem is the base for gateway-level topics.
	TopicPrefixSystem = "lampgrid/system"
)

// Topics provides builders for lampgrid MQTT topics.
// Using these helpers keeps topic naming consistent across publishers
// and external subscribers.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.LampState("b7c2", "3")
//	// Returns: "lampgrid/state/b7c2/3"
type Topics struct{}

// LampState returns the topic for one lamp's state updates.
//
// Example: lampgrid/state/b7c2/3
func (Topics) LampState(bridgeID, lampID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, bridgeID, lampID)
}

// BridgeStatus returns the topic for bridge lifecycle and liveness events.
//
// Example: lampgrid/bridge/b7c2/status
func (Topics) BridgeStatus(bridgeID string) string {
	return fmt.Sprintf("%s/bridge/%s/status", TopicPrefix, bridgeID)
}

// SystemStatus returns the gateway status topic. Carries the retained
// online/offline payload and the Last Will message.
//
// Example: lampgrid/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllLampStates returns a pattern matching every lamp state update.
//
// Pattern: lampgrid/state/+/+
func (Topics) AllLampStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}

// BridgeLampStates returns a pattern matching one bridge's lamp states.
//
// Pattern: lampgrid/state/b7c2/+
func (Topics) BridgeLampStates(bridgeID string) string {
	return fmt.Sprintf("%s/state/%s/+", TopicPrefix, bridgeID)
}

// AllBridgeStatuses returns a pattern matching every bridge status event.
//
// Pattern: lampgrid/bridge/+/status
func (Topics) AllBridgeStatuses() string {
	return fmt.Sprintf("%s/bridge/+/status", TopicPrefix)
}

// AllTopics returns a pattern matching all lampgrid topics.
// Use with caution, this receives all traffic.
//
// Pattern: lampgrid/#
func (Topics) AllTopics() string {
	return "lampgrid/#"
}
