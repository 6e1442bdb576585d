// Package mqtt connects Lightscape to the device bus.
//
// Lightscape does not talk to LED hardware directly. It publishes colour
// commands to an MQTT broker and protocol bridges (WLED, Hue, DMX, ...)
// translate them for their devices:
//
//	Lightscape ──command──▶ Broker ──▶ Bridge ──▶ LEDs
//	           ◀──health──        ◀──
//
// The client handles:
//   - Connection with auto-reconnect and subscription restore
//   - Last Will and Testament on lightscape/system/status
//   - Publishing with QoS and payload size checks
//   - Subscriptions with panic-safe handlers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceCommand("wled", "desk-strip")
//	err = client.Publish(topic, payload, 0, false)
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Message handlers run on
// paho's goroutines and should return quickly.
package mqtt
