// Package engine is the composition root of the robot protocol stack.
//
// The Engine owns the connection lifecycle, wires the framer's output into
// the response dispatcher, owns the sensor cache, and exposes command
// execution and event subscription. It is a two-state machine:
//
//   - Disconnected: initial and terminal for a given connection. Executing
//     a command is a logged no-op surfaced as ErrNotConnected, never a
//     fault.
//   - Prepared: entered by Connect with an already link-connected
//     transport. Inbound byte chunks are fed to the framer and every
//     complete frame is classified, decoded, deduplicated against the
//     sensor cache, and dispatched to subscribers as a typed event.
//
// Connect sends two acknowledgement tones and a version query before
// starting the monitoring loop, which periodically issues sensor polls
// while the link is up. Disconnect and Reset stop monitoring and clear the
// sensor cache; Reset keeps the link and sends a stop-motion command.
//
// # Concurrency
//
// Each connection runs a single consumer goroutine that exclusively owns
// the framer's buffer; the transport's receive handler only forwards
// ordered chunks over a channel. Outbound sends are non-blocking and
// fire-and-forget: there is no acknowledgement correlation and no
// backpressure from the transport. Sensor staleness is bounded only by the
// poll interval.
package engine
