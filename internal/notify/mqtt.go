package notify

import (
	"encoding/json"
	"time"

	"github.com/lampgrid/lampgrid-core/internal/grid"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/logging"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client the notifier uses.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// MQTTNotifier publishes lamp state and bridge lifecycle events to the
// broker. State topics are retained so late subscribers see the current
// grid immediately.
type MQTTNotifier struct {
	publisher Publisher
	topics    mqtt.Topics
	logger    *logging.Logger
}

// NewMQTTNotifier creates an MQTT-backed state notifier.
func NewMQTTNotifier(publisher Publisher, logger *logging.Logger) *MQTTNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &MQTTNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

// lampStatePayload is the wire form of a lamp state event.
type lampStatePayload struct {
	Ref       grid.LampRef `json:"ref"`
	Name      string       `json:"name"`
	On        bool         `json:"on"`
	Bri       uint8        `json:"bri"`
	Reachable bool         `json:"reachable"`
	Timestamp string       `json:"timestamp"`
}

// bridgeEventPayload is the wire form of a bridge lifecycle event.
type bridgeEventPayload struct {
	BridgeID  string `json:"bridge_id"`
	Name      string `json:"name"`
	Event     string `json:"event"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// LampStateChanged publishes the lamp's post-change state, retained.
func (n *MQTTNotifier) LampStateChanged(lamp grid.Lamp) {
	payload, err := json.Marshal(lampStatePayload{
		Ref:       lamp.Ref,
		Name:      lamp.Name,
		On:        lamp.State.On,
		Bri:       lamp.State.Brightness,
		Reachable: lamp.State.Reachable,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logger.Error("lamp state payload marshal failed", "ref", lamp.Ref.String(), "error", err)
		return
	}

	topic := n.topics.LampState(lamp.Ref.BridgeID, lamp.Ref.LampID)
	if err := n.publisher.PublishRetained(topic, payload); err != nil {
		n.logger.Warn("lamp state publish failed", "topic", topic, "error", err)
	}
}

// BridgeChanged publishes a bridge lifecycle event, retained.
func (n *MQTTNotifier) BridgeChanged(bridge grid.Bridge, event string) {
	payload, err := json.Marshal(bridgeEventPayload{
		BridgeID:  bridge.ID,
		Name:      bridge.Name,
		Event:     event,
		Status:    string(bridge.Status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logger.Error("bridge event payload marshal failed", "bridge_id", bridge.ID, "error", err)
		return
	}

	topic := n.topics.BridgeStatus(bridge.ID)
	if err := n.publisher.PublishRetained(topic, payload); err != nil {
		n.logger.Warn("bridge event publish failed", "topic", topic, "error", err)
	}
}
