package engine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/logging"
	"github.com/openmbot/mbotlink/internal/protocol"
)

// ErrShortPayload indicates a payload shorter than its decoder requires.
// Such frames are dropped silently: the value is expected to arrive
// complete on a later poll.
var ErrShortPayload = errors.New("payload too short")

// decodeFunc turns a sensor payload into a typed event.
type decodeFunc func(payload []byte) (Event, error)

// decodeTable maps index types to their payload decoders. Like the command
// table it is data-driven: new robot models extend it without touching the
// engine.
var decodeTable = map[byte]decodeFunc{
	protocol.IndexVersion:      decodeVersion,
	protocol.IndexUltrasonic:   decodeUltrasonic,
	protocol.IndexLightSensor:  decodeLightness,
	protocol.IndexLineFollower: decodeLineFollower,
	protocol.IndexInnerButton:  decodeButton,
}

func decodeVersion(p []byte) (Event, error) {
	return FirmwareVersion{Version: string(p)}, nil
}

func decodeUltrasonic(p []byte) (Event, error) {
	v, ok := protocol.FloatFromPayload(p)
	if !ok {
		return nil, ErrShortPayload
	}
	return UltrasonicSensorValue{Value: v}, nil
}

func decodeLightness(p []byte) (Event, error) {
	v, ok := protocol.FloatFromPayload(p)
	if !ok {
		return nil, ErrShortPayload
	}
	return LightnessSensorValue{Value: v}, nil
}

// decodeLineFollower applies the firmware's boolean thresholds: a channel
// reads as on-line when its byte is at least 64.
func decodeLineFollower(p []byte) (Event, error) {
	if len(p) < 4 {
		return nil, ErrShortPayload
	}
	raw := make([]byte, len(p))
	copy(raw, p)
	return LinefollowerSensorValue{
		Left:  p[3] >= 64,
		Right: p[2] >= 64,
		Raw:   raw,
	}, nil
}

func decodeButton(p []byte) (Event, error) {
	if len(p) < 1 {
		return nil, ErrShortPayload
	}
	return ButtonPressed{Pressed: p[0] == 1}, nil
}

// handleFrame classifies, decodes, deduplicates and dispatches one complete
// frame. Every failure short of a programmer error is absorbed here:
// hardware delivery is noisy and a dropped frame just means a stale reading
// until the next poll.
func (e *Engine) handleFrame(frame []byte) {
	resp, err := protocol.Classify(frame)
	if err != nil {
		logging.Debug("Dropping malformed frame", zap.Error(err))
		return
	}

	decode, ok := decodeTable[resp.Index]
	if !ok {
		logging.Warn("Unknown index type, dropping frame",
			zap.String("index", protocol.IndexName(resp.Index)),
			zap.Int("payload_len", len(resp.Payload)),
		)
		return
	}

	ev, err := decode(resp.Payload)
	if err != nil {
		// Incomplete telemetry: not cached, not emitted
		logging.Debug("Dropping undecodable payload",
			zap.String("index", protocol.IndexName(resp.Index)),
			zap.Error(err),
		)
		return
	}

	if !e.updateCache(resp.Index, resp.Payload) {
		logging.Debug("Suppressed duplicate sensor payload",
			zap.String("index", protocol.IndexName(resp.Index)),
		)
		return
	}

	logging.Debug("Dispatching sensor event",
		zap.String("index", protocol.IndexName(resp.Index)),
		zap.String("event", ev.String()),
	)
	e.publish(ev)
}
