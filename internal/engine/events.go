package engine

import "fmt"

// Event is a decoded sensor notification delivered to subscribers. The set
// of variants is closed: one per sensor kind the dispatcher understands.
type Event interface {
	event()
	String() string
}

// ButtonPressed reports the onboard button state.
type ButtonPressed struct {
	Pressed bool
}

// LightnessSensorValue carries a light sensor reading.
type LightnessSensorValue struct {
	Value float32
}

// LinefollowerSensorValue carries both line follower channels plus the raw
// payload for callers that need the undecoded bytes.
type LinefollowerSensorValue struct {
	Left  bool
	Right bool
	Raw   []byte
}

// UltrasonicSensorValue carries a distance reading in centimeters.
type UltrasonicSensorValue struct {
	Value float32
}

// FirmwareVersion carries the controller's version string, received once
// in response to the version query sent at connect time.
type FirmwareVersion struct {
	Version string
}

func (ButtonPressed) event()           {}
func (LightnessSensorValue) event()    {}
func (LinefollowerSensorValue) event() {}
func (UltrasonicSensorValue) event()   {}
func (FirmwareVersion) event()         {}

func (e ButtonPressed) String() string {
	return fmt.Sprintf("ButtonPressed{pressed=%v}", e.Pressed)
}

func (e LightnessSensorValue) String() string {
	return fmt.Sprintf("LightnessSensorValue{value=%.2f}", e.Value)
}

func (e LinefollowerSensorValue) String() string {
	return fmt.Sprintf("LinefollowerSensorValue{left=%v, right=%v}", e.Left, e.Right)
}

func (e UltrasonicSensorValue) String() string {
	return fmt.Sprintf("UltrasonicSensorValue{value=%.2f}", e.Value)
}

func (e FirmwareVersion) String() string {
	return fmt.Sprintf("FirmwareVersion{%s}", e.Version)
}
