// Package transport provides the byte-level links the engine drives: a
// serial port transport for real controllers paired over Bluetooth classic
// (the adapter exposes an rfcomm serial device) or plugged in over USB, and
// a demo transport that simulates a controller for development without
// hardware.
//
// Both implement engine.Transport. The serial transport runs a read pump
// goroutine that forwards raw chunks to the registered handler; chunk
// boundaries are arbitrary and carry no protocol meaning.
package transport
