// Package protocol implements the mCore robot controller wire protocol.
//
// This package handles frame reassembly, classification, sensor payload
// decoding primitives, and construction of outbound command buffers for
// mCore-class robot controllers reached over a Bluetooth classic serial
// link (RFCOMM). The link delivers arbitrarily chunked byte streams, so the
// central job here is recovering message boundaries and decoding bit-exact
// binary sensor formats.
//
// # Wire Format
//
// Inbound frames from the controller have this structure:
//   - Header: 2 bytes, 0xFF 0x55
//   - Length: 1 byte
//   - Index type: 1 byte (which sensor or subsystem the frame concerns)
//   - Data type: 1 byte (payload encoding discriminator)
//   - Payload: variable length
//   - Footer: 2 bytes, 0x0D 0x0A
//
// Outbound commands share the header but carry no footer:
//   - Header: 2 bytes, 0xFF 0x55
//   - Length: 1 byte (count of bytes after the length byte)
//   - Index type: 1 byte (echoed back by the firmware in responses)
//   - Action: 1 byte (GET / RUN / RESET)
//   - Device, port, and parameter bytes: variable
//
// # Framing
//
// The Framer extracts complete header-to-footer frames from chunked input:
//
//	framer := protocol.NewFramer()
//	for chunk := range link {
//	    for _, frame := range framer.Feed(chunk) {
//	        resp, err := protocol.Classify(frame)
//	        ...
//	    }
//	}
//
// The protocol provides no escaping, so header or footer byte sequences
// occurring inside a payload can desynchronize framing. The framer does not
// attempt to correct for this; it only bounds its internal buffer and
// resynchronizes on overflow.
//
// # Float Decoding
//
// Float sensors (ultrasonic, light) transmit IEEE-754 single-precision
// values least-significant byte first. Decoding is done with explicit
// 32-bit masking and shifting rather than unsafe reinterpretation, and
// results are rounded to two decimals to match firmware precision:
//
//	v, ok := protocol.FloatFromPayload(resp.Payload)
//
// # Commands
//
// Outbound commands are built from a data-driven table so new robot models
// can add entries without touching the engine:
//
//	buf, err := protocol.Encode("playTone", protocol.Params{"frequency": 440})
//
// An unrecognized command name is a programmer error and fails with
// ErrUnknownCommand; this is the only failure mode that propagates to
// callers. Transport and framing faults are absorbed and logged, since
// hardware delivery is inherently noisy.
//
// # Thread Safety
//
// Classification, decoding, and command construction are stateless and safe
// for concurrent use. The Framer is not: its buffer must be owned by a
// single consumer (the engine's inbound loop).
package protocol
