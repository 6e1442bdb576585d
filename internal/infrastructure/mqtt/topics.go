package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every Lightscape topic.
const TopicPrefix = "lightscape"

// Topics builds Lightscape MQTT topic names.
//
//	topics := mqtt.Topics{}
//	topics.DeviceCommand("wled", "desk-strip")
//	// lightscape/command/wled/desk-strip
type Topics struct{}

// DeviceCommand is where colour commands for one device are published.
func (Topics) DeviceCommand(protocol, deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, deviceID)
}

// BridgeHealth is where a protocol bridge reports its health.
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, protocol)
}

// AllBridgeHealth matches every bridge health topic.
func (Topics) AllBridgeHealth() string {
	return TopicPrefix + "/health/+"
}

// SystemStatus carries the retained online/offline status of Lightscape.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// EffectState carries the retained state of the effect engine.
func (Topics) EffectState() string {
	return TopicPrefix + "/effect/state"
}

// ProtocolFromHealthTopic extracts the protocol segment from a bridge
// health topic. It returns "" for any other topic.
func ProtocolFromHealthTopic(topic string) string {
	protocol, ok := strings.CutPrefix(topic, TopicPrefix+"/health/")
	if !ok || strings.Contains(protocol, "/") {
		return ""
	}
	return protocol
}
