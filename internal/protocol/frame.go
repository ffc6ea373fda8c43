package protocol

import (
	"errors"
	"fmt"
)

// Frame delimiter constants
const (
	HeaderFirst  = 0xFF
	HeaderSecond = 0x55
	FooterFirst  = 0x0D
	FooterSecond = 0x0A

	// MinFrameSize is the minimum number of bytes from the header start
	// before the footer check applies.
	MinFrameSize = 4
)

// Header and Footer are the frame delimiter byte sequences.
var (
	Header = []byte{HeaderFirst, HeaderSecond}
	Footer = []byte{FooterFirst, FooterSecond}
)

// Index type constants (device identifiers of the mCore firmware).
// The set is extensible per robot model; these cover the onboard sensors.
const (
	IndexVersion      = 0x00 // firmware version string
	IndexUltrasonic   = 0x01 // distance in cm, 4-byte float
	IndexLightSensor  = 0x03 // onboard light sensor, 4-byte float
	IndexLineFollower = 0x11 // two-channel line follower
	IndexInnerButton  = 0x23 // onboard push button
)

// Data type discriminators used by the firmware in the dataType slot.
const (
	DataByte   = 0x01
	DataFloat  = 0x02
	DataShort  = 0x03
	DataString = 0x04
	DataDouble = 0x05
)

// ErrMalformedFrame indicates a frame too short or missing its delimiters.
// Malformed frames are dropped by callers, never surfaced to users.
var ErrMalformedFrame = errors.New("malformed frame")

// Field offsets within a complete frame (header through footer).
const (
	offLength   = 2
	offIndex    = 3
	offDataType = 4
	offPayload  = 5
)

// Response is a classified inbound frame.
type Response struct {
	Length   byte   // declared length byte (not validated, see package doc)
	Index    byte   // which sensor or subsystem this frame concerns
	DataType byte   // payload encoding discriminator
	Payload  []byte // bytes between the dataType slot and the footer
	Raw      []byte // complete frame including delimiters
}

// Classify splits a complete frame into its fixed-offset fields.
// The frame must include both delimiters, as produced by Framer.Feed.
func Classify(frame []byte) (*Response, error) {
	if len(frame) < MinFrameSize+len(Footer) {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}
	if frame[0] != HeaderFirst || frame[1] != HeaderSecond {
		return nil, fmt.Errorf("%w: bad header 0x%02x 0x%02x", ErrMalformedFrame, frame[0], frame[1])
	}
	if frame[len(frame)-2] != FooterFirst || frame[len(frame)-1] != FooterSecond {
		return nil, fmt.Errorf("%w: bad footer", ErrMalformedFrame)
	}

	body := frame[:len(frame)-len(Footer)]
	resp := &Response{
		Length: body[offLength],
		Index:  body[offIndex],
		Raw:    frame,
	}
	if len(body) > offDataType {
		resp.DataType = body[offDataType]
	}
	if len(body) > offPayload {
		resp.Payload = body[offPayload:]
	}

	return resp, nil
}

// String returns a human-readable representation of the response
func (r *Response) String() string {
	return fmt.Sprintf("Response{index=%s, dataType=0x%02x, payload=%d bytes}",
		IndexName(r.Index), r.DataType, len(r.Payload))
}

// IndexName returns a human-readable name for an index type
func IndexName(index byte) string {
	switch index {
	case IndexVersion:
		return "Version"
	case IndexUltrasonic:
		return "Ultrasonic"
	case IndexLightSensor:
		return "LightSensor"
	case IndexLineFollower:
		return "LineFollower"
	case IndexInnerButton:
		return "InnerButton"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", index)
	}
}
