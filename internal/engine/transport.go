package engine

// Transport is the external wireless link responsible for raw byte
// delivery, e.g. a Bluetooth classic RFCOMM serial device. The engine
// holds at most one transport at a time and does not own it; pairing,
// retransmission and encryption are the transport's problem.
type Transport interface {
	// Connected reports whether the underlying link is up.
	Connected() bool

	// Write sends a byte buffer without blocking on delivery. Errors are
	// best-effort indications only; the protocol has no acknowledgements.
	Write(p []byte) error

	// OnData registers the receive handler. Implementations must deliver
	// chunks in arrival order and may reuse the chunk buffer after the
	// handler returns.
	OnData(fn func(chunk []byte))

	// Disconnect tears the link down.
	Disconnect() error

	// Reset clears any transport-level buffers without dropping the link.
	Reset() error
}
