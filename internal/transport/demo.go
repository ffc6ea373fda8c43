package transport

import (
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/logging"
	"github.com/openmbot/mbotlink/internal/protocol"
)

// demoFirmwareVersion is what the simulator reports for the version query.
const demoFirmwareVersion = "06.01.104"

// actionGet is the query action byte in outbound commands. Anything else
// (run, reset) the simulator accepts silently, like the real firmware.
const actionGet = 0x01

// Demo simulates a controller for development without hardware. Queries are
// answered synchronously on the caller's goroutine with well-formed frames;
// sensor values drift over a virtual clock so a watcher sees changing
// telemetry.
type Demo struct {
	mu        sync.Mutex
	handler   func([]byte)
	connected bool
	t         float64 // virtual time accumulator
	pressed   bool
}

// NewDemo creates a connected simulator.
func NewDemo() *Demo {
	logging.LogConnection("demo", "opened")
	return &Demo{connected: true}
}

func (d *Demo) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *Demo) OnData(fn func(chunk []byte)) {
	d.mu.Lock()
	d.handler = fn
	d.mu.Unlock()
}

func (d *Demo) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		d.connected = false
		logging.LogConnection("demo", "closed")
	}
	return nil
}

func (d *Demo) Reset() error { return nil }

// Write accepts an outbound command. Query commands produce a reply frame;
// actuator commands are logged and swallowed.
func (d *Demo) Write(p []byte) error {
	if len(p) < 5 || p[0] != protocol.HeaderFirst || p[1] != protocol.HeaderSecond {
		logging.Warn("Demo received malformed command", zap.Int("size", len(p)))
		return nil
	}
	index := p[3]
	action := p[4]

	if action != actionGet {
		logging.Debug("Demo actuator command", zap.String("index", protocol.IndexName(index)))
		return nil
	}

	d.mu.Lock()
	d.t += 0.05
	frame := d.replyLocked(index)
	fn := d.handler
	d.mu.Unlock()

	if frame != nil && fn != nil {
		fn(frame)
	}
	return nil
}

// replyLocked builds the response frame for a query. Callers hold d.mu.
func (d *Demo) replyLocked(index byte) []byte {
	switch index {
	case protocol.IndexVersion:
		return mkDemoFrame(index, protocol.DataString, []byte(demoFirmwareVersion))

	case protocol.IndexUltrasonic:
		// Obstacle drifting between roughly 5cm and 395cm
		dist := 200 + 195*math.Sin(d.t*0.4)
		return mkDemoFrame(index, protocol.DataFloat, floatPayload(float32(dist)))

	case protocol.IndexLightSensor:
		light := 500 + 450*math.Sin(d.t*0.1) + rand.Float64()*10
		return mkDemoFrame(index, protocol.DataFloat, floatPayload(float32(light)))

	case protocol.IndexLineFollower:
		// Wander across the line: channels flip as the virtual robot drifts
		var left, right byte
		if math.Sin(d.t*0.7) > -0.3 {
			left = 128
		}
		if math.Sin(d.t*0.7) < 0.3 {
			right = 128
		}
		return mkDemoFrame(index, protocol.DataFloat, []byte{0x00, 0x00, right, left})

	case protocol.IndexInnerButton:
		// Rare presses
		if rand.Float64() < 0.02 {
			d.pressed = !d.pressed
		}
		v := byte(0)
		if d.pressed {
			v = 1
		}
		return mkDemoFrame(index, protocol.DataByte, []byte{v})

	default:
		logging.Debug("Demo has no sensor for index", zap.String("index", protocol.IndexName(index)))
		return nil
	}
}

// mkDemoFrame assembles a complete inbound frame around a payload.
func mkDemoFrame(index, dataType byte, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+7)
	frame = append(frame, protocol.HeaderFirst, protocol.HeaderSecond, byte(len(payload)+2), index, dataType)
	frame = append(frame, payload...)
	return append(frame, protocol.FooterFirst, protocol.FooterSecond)
}

// floatPayload encodes a float32 in the firmware's little-endian wire order.
func floatPayload(v float32) []byte {
	bits := math.Float32bits(v)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}
