package transport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/logging"
)

// DefaultBaudRate matches the mCore firmware's serial configuration.
const DefaultBaudRate = 115200

// readTimeout bounds each pump read so the goroutine can notice shutdown.
const readTimeout = 100 * time.Millisecond

// Serial is an engine transport over a serial device, typically the rfcomm
// port of a Bluetooth classic pairing or a direct USB connection.
type Serial struct {
	path string
	baud int

	mu        sync.Mutex
	port      serial.Port
	handler   func([]byte)
	connected bool
	done      chan struct{}
}

// OpenSerial opens the serial device and starts its read pump. baud <= 0
// selects DefaultBaudRate.
func OpenSerial(path string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}

	s := &Serial{
		path:      path,
		baud:      baud,
		port:      port,
		connected: true,
		done:      make(chan struct{}),
	}
	logging.LogConnection(path, "opened")
	go s.readPump()
	return s, nil
}

// Connected reports whether the port is open and the pump alive.
func (s *Serial) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Write sends raw bytes to the device.
func (s *Serial) Write(p []byte) error {
	s.mu.Lock()
	port := s.port
	ok := s.connected
	s.mu.Unlock()

	if !ok || port == nil {
		return fmt.Errorf("write %s: port closed", s.path)
	}
	if _, err := port.Write(p); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// OnData registers the receive handler. Only one handler is active; a
// subsequent call replaces the previous one.
func (s *Serial) OnData(fn func(chunk []byte)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// Disconnect stops the pump and closes the port. Safe to call repeatedly.
func (s *Serial) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	close(s.done)
	port := s.port
	s.port = nil
	s.mu.Unlock()

	logging.LogConnection(s.path, "closed")
	if port != nil {
		return port.Close()
	}
	return nil
}

// Reset discards any pending bytes in the OS driver buffers.
func (s *Serial) Reset() error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	if err := port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input %s: %w", s.path, err)
	}
	if err := port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("reset output %s: %w", s.path, err)
	}
	return nil
}

// readPump forwards raw chunks to the handler until the port closes. A read
// error other than timeout marks the transport disconnected; the engine's
// next poll notices and tears the connection down.
func (s *Serial) readPump() {
	buf := make([]byte, 256)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.mu.Lock()
		port := s.port
		s.mu.Unlock()
		if port == nil {
			return
		}

		n, err := port.Read(buf)
		if err != nil {
			logging.Warn("Serial read failed", zap.String("port", s.path), zap.Error(err))
			s.mu.Lock()
			s.connected = false
			s.mu.Unlock()
			return
		}
		if n == 0 {
			// Timeout tick, nothing arrived
			continue
		}

		s.mu.Lock()
		fn := s.handler
		s.mu.Unlock()
		if fn != nil {
			fn(buf[:n])
		}
	}
}
