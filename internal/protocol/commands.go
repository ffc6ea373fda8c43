package protocol

import (
	"errors"
	"fmt"
	"sort"
)

// Outbound action bytes
const (
	actionGet   = 0x01
	actionRun   = 0x02
	actionReset = 0x04
)

// Device identifiers used in outbound command bodies
const (
	deviceVersion      = 0x00
	deviceUltrasonic   = 0x01
	deviceLightSensor  = 0x03
	deviceDualMotor    = 0x05
	deviceRGBLed       = 0x08
	deviceMotor        = 0x0A
	deviceLineFollower = 0x11
	deviceTone         = 0x22
	deviceButtonInner  = 0x23
)

// Default ports of the onboard peripherals
const (
	portLineFollower = 0x02
	portUltrasonic   = 0x03
	portLightSensor  = 0x06
	portOnboard      = 0x07
	portMotorLeft    = 0x09
)

// ErrUnknownCommand indicates a command name absent from the table. Command
// names are caller-controlled, so unlike transport faults this propagates
// as a hard error.
var ErrUnknownCommand = errors.New("unknown command")

// Params carries named command parameters. Keys the command does not
// recognize are ignored; missing keys take the command's defaults.
type Params map[string]int

// commandSpec is one entry of the command table: the recognized parameter
// keys with their defaults, and the encoder producing the outbound buffer.
type commandSpec struct {
	defaults Params
	build    func(p Params) []byte
}

// commandTable is the data-driven name->encoder mapping. New robot models
// add entries here without touching the engine or the dispatcher.
var commandTable = map[string]commandSpec{
	"playTone": {
		defaults: Params{"frequency": 262, "duration": 250},
		build: func(p Params) []byte {
			fl, fh := u16le(p["frequency"])
			dl, dh := u16le(p["duration"])
			return buildCommand(0x00, actionRun, deviceTone, fl, fh, dl, dh)
		},
	},
	"setMotor": {
		defaults: Params{"port": portMotorLeft, "speed": 100},
		build: func(p Params) []byte {
			sl, sh := u16le(p["speed"])
			return buildCommand(0x00, actionRun, deviceMotor, byte(p["port"]), sl, sh)
		},
	},
	"move": {
		defaults: Params{"left": 0, "right": 0},
		build: func(p Params) []byte {
			ll, lh := u16le(p["left"])
			rl, rh := u16le(p["right"])
			return buildCommand(0x00, actionRun, deviceDualMotor, ll, lh, rl, rh)
		},
	},
	"setLed": {
		defaults: Params{"led": 0, "red": 0, "green": 0, "blue": 0},
		build: func(p Params) []byte {
			return buildCommand(0x00, actionRun, deviceRGBLed, portOnboard, 0x02,
				byte(p["led"]), byte(p["red"]), byte(p["green"]), byte(p["blue"]))
		},
	},
	"stop": {
		defaults: Params{},
		build: func(p Params) []byte {
			return buildCommand(0x00, actionReset)
		},
	},
	"getVersion": {
		defaults: Params{},
		build: func(p Params) []byte {
			return buildCommand(IndexVersion, actionGet, deviceVersion)
		},
	},
	"getUltrasonic": {
		defaults: Params{"port": portUltrasonic},
		build: func(p Params) []byte {
			return buildCommand(IndexUltrasonic, actionGet, deviceUltrasonic, byte(p["port"]))
		},
	},
	"getLineFollower": {
		defaults: Params{"port": portLineFollower},
		build: func(p Params) []byte {
			return buildCommand(IndexLineFollower, actionGet, deviceLineFollower, byte(p["port"]))
		},
	},
	"getLightSensor": {
		defaults: Params{"port": portLightSensor},
		build: func(p Params) []byte {
			return buildCommand(IndexLightSensor, actionGet, deviceLightSensor, byte(p["port"]))
		},
	},
	"getButton": {
		defaults: Params{"port": portOnboard},
		build: func(p Params) []byte {
			return buildCommand(IndexInnerButton, actionGet, deviceButtonInner, byte(p["port"]))
		},
	},
}

// Encode builds the outbound byte buffer for a named command. Encoding is
// pure and deterministic; the same name and parameters always produce the
// same bytes. An unrecognized name fails with ErrUnknownCommand.
func Encode(name string, params Params) ([]byte, error) {
	spec, ok := commandTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	merged := make(Params, len(spec.defaults))
	for k, v := range spec.defaults {
		merged[k] = v
	}
	for k, v := range params {
		if _, known := merged[k]; known {
			merged[k] = v
		}
	}

	return spec.build(merged), nil
}

// Commands returns the sorted names of all known commands.
func Commands() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a copy of a command's recognized parameter keys with
// their default values, or nil for an unknown name.
func Defaults(name string) Params {
	spec, ok := commandTable[name]
	if !ok {
		return nil
	}
	out := make(Params, len(spec.defaults))
	for k, v := range spec.defaults {
		out[k] = v
	}
	return out
}

// buildCommand wraps an action-specific body in the outbound frame layout:
// FF 55 | length | index | body. The length byte counts everything after
// itself. GET commands pass the sensor's index so the firmware echoes it
// back in the response's indexType slot.
func buildCommand(index byte, body ...byte) []byte {
	buf := make([]byte, 0, 4+len(body))
	buf = append(buf, HeaderFirst, HeaderSecond, byte(len(body)+1), index)
	buf = append(buf, body...)
	return buf
}

// u16le splits a value into little-endian low and high bytes. Negative
// values (reverse motor speeds) wrap through the signed 16-bit range.
func u16le(v int) (byte, byte) {
	u := uint16(int16(v))
	return byte(u), byte(u >> 8)
}
