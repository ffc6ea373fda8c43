package server

import (
	"encoding/json"
	"time"

	"github.com/openmbot/mbotlink/internal/engine"
	"github.com/openmbot/mbotlink/internal/protocol"
)

// wsEvent is the JSON shape of an outbound sensor event.
type wsEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Sensor fields, present per type
	Value   *float32 `json:"value,omitempty"`
	Pressed *bool    `json:"pressed,omitempty"`
	Left    *bool    `json:"left,omitempty"`
	Right   *bool    `json:"right,omitempty"`
	Version string   `json:"version,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// wsCommand is the JSON shape of an inbound command request.
type wsCommand struct {
	Command string          `json:"command"`
	Params  protocol.Params `json:"params,omitempty"`
}

// encodeEvent maps a typed engine event to its JSON wire form.
func encodeEvent(ev engine.Event) ([]byte, error) {
	msg := wsEvent{Timestamp: time.Now()}

	switch e := ev.(type) {
	case engine.UltrasonicSensorValue:
		msg.Type = "ultrasonic"
		msg.Value = &e.Value
	case engine.LightnessSensorValue:
		msg.Type = "light"
		msg.Value = &e.Value
	case engine.LinefollowerSensorValue:
		msg.Type = "linefollower"
		msg.Left = &e.Left
		msg.Right = &e.Right
	case engine.ButtonPressed:
		msg.Type = "button"
		msg.Pressed = &e.Pressed
	case engine.FirmwareVersion:
		msg.Type = "version"
		msg.Version = e.Version
	default:
		msg.Type = "unknown"
	}

	return json.Marshal(msg)
}

// encodeError builds an error reply for a failed command.
func encodeError(err error) []byte {
	data, _ := json.Marshal(wsEvent{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     err.Error(),
	})
	return data
}
