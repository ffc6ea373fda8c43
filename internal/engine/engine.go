package engine

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/logging"
	"github.com/openmbot/mbotlink/internal/protocol"
)

var (
	// ErrTransportUnavailable indicates Connect was given a nil or
	// link-down transport.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrNotConnected indicates a command was executed while the engine
	// is disconnected. The command is a logged no-op, never a fault.
	ErrNotConnected = errors.New("not connected")
)

// State is the engine's connection state.
type State int

const (
	// Disconnected is the initial state and the terminal state for a
	// given connection.
	Disconnected State = iota
	// Prepared means a transport is attached, the handshake was sent and
	// inbound frames are being dispatched.
	Prepared
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Prepared:
		return "prepared"
	default:
		return "unknown"
	}
}

// Options configures a new Engine. Zero values select the defaults.
type Options struct {
	// PollInterval is the monitoring loop period.
	PollInterval time.Duration
	// Polls overrides the commands issued per interval.
	Polls []PollCommand
}

// Engine composes the framer, dispatcher, sensor cache and monitoring loop
// around one transport. Construct one per controller instance with New.
type Engine struct {
	interval time.Duration
	polls    []PollCommand

	mu        sync.Mutex
	state     State
	transport Transport
	monitor   *Monitor
	cache     map[byte][]byte
	quit      chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates a disconnected engine.
func New(opts Options) *Engine {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	polls := opts.Polls
	if polls == nil {
		polls = DefaultPollCommands()
	}
	return &Engine{
		interval: interval,
		polls:    polls,
		cache:    make(map[byte][]byte),
	}
}

// State returns the current connection state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Connect attaches an already link-connected transport and transitions to
// Prepared: it registers for the receive event, sends two acknowledgement
// tones and a version query, then starts the monitoring loop. Any previous
// transport reference is replaced and the sensor cache cleared.
func (e *Engine) Connect(t Transport) error {
	if t == nil || !t.Connected() {
		logging.Warn("Connect with unavailable transport")
		return ErrTransportUnavailable
	}

	e.mu.Lock()
	if e.state == Prepared {
		logging.Info("Replacing existing connection")
		e.teardownLocked()
	}
	quit := make(chan struct{})
	chunks := make(chan []byte, 64)
	e.transport = t
	e.quit = quit
	e.cache = make(map[byte][]byte)
	e.monitor = NewMonitor(e.interval, e.polls, e.sendPoll)
	mon := e.monitor
	e.mu.Unlock()

	go e.readLoop(chunks, quit)

	t.OnData(func(chunk []byte) {
		cp := make([]byte, len(chunk))
		copy(cp, chunk)
		select {
		case <-quit:
			return
		default:
		}
		select {
		case chunks <- cp:
		default:
			// No backpressure in this design; better to shed than block
			// the transport's read pump.
			logging.Warn("Inbound chunk dropped, buffer full", zap.Int("size", len(cp)))
		}
	})

	// Acknowledge the link audibly, then ask who we are talking to.
	e.sendNow(t, "playTone", protocol.Params{"frequency": 523, "duration": 120})
	e.sendNow(t, "playTone", protocol.Params{"frequency": 659, "duration": 120})
	e.sendNow(t, "getVersion", nil)

	e.mu.Lock()
	e.state = Prepared
	e.mu.Unlock()

	mon.Start()
	logging.Info("Engine prepared", zap.Duration("poll_interval", e.interval))
	return nil
}

// Disconnect stops monitoring, clears the sensor cache, releases the
// transport and returns to Disconnected. Safe to call repeatedly.
func (e *Engine) Disconnect() error {
	e.mu.Lock()
	if e.state == Disconnected {
		e.mu.Unlock()
		return nil
	}
	t := e.transport
	e.state = Disconnected
	e.transport = nil
	e.teardownLocked()
	e.mu.Unlock()

	var err error
	if t != nil {
		err = t.Disconnect()
	}
	logging.Info("Engine disconnected")
	return err
}

// Reset sends a stop-motion command and clears the sensor cache without
// dropping the link. Monitoring stops; a subsequent Connect restarts it.
func (e *Engine) Reset() error {
	e.mu.Lock()
	t := e.transport
	st := e.state
	mon := e.monitor
	e.cache = make(map[byte][]byte)
	e.mu.Unlock()

	if mon != nil {
		mon.Stop()
	}
	if st != Prepared || t == nil {
		return nil
	}

	e.sendNow(t, "stop", nil)
	if err := t.Reset(); err != nil {
		logging.Warn("Transport reset failed", zap.Error(err))
	}
	return nil
}

// Execute encodes a named command and sends it to the controller. An
// unknown command name fails with protocol.ErrUnknownCommand; executing
// while disconnected is a logged no-op returning ErrNotConnected. Delivery
// is fire-and-forget.
func (e *Engine) Execute(name string, params protocol.Params) error {
	buf, err := protocol.Encode(name, params)
	if err != nil {
		return err
	}

	e.mu.Lock()
	t := e.transport
	st := e.state
	e.mu.Unlock()

	if st != Prepared || t == nil || !t.Connected() {
		logging.Warn("Command while disconnected, ignoring", zap.String("command", name))
		return ErrNotConnected
	}

	logging.LogFrame("outbound", buf)
	if err := t.Write(buf); err != nil {
		logging.Warn("Send failed", zap.String("command", name), zap.Error(err))
	}
	return nil
}

// Buffer encodes a named command without sending it, for testing and
// composition.
func (e *Engine) Buffer(name string, params protocol.Params) ([]byte, error) {
	return protocol.Encode(name, params)
}

// Subscribe registers an event handler and returns its cancel function.
// Handlers run on the engine's inbound loop and must not block.
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	e.subMu.Lock()
	if e.subs == nil {
		e.subs = make(map[int]func(Event))
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// teardownLocked stops monitoring, terminates the inbound loop and clears
// the cache. Callers hold e.mu.
func (e *Engine) teardownLocked() {
	if e.monitor != nil {
		e.monitor.Stop()
	}
	if e.quit != nil {
		close(e.quit)
		e.quit = nil
	}
	e.cache = make(map[byte][]byte)
}

// readLoop is the single consumer of inbound chunks. It exclusively owns
// the framer's buffer for the lifetime of one connection.
func (e *Engine) readLoop(chunks <-chan []byte, quit <-chan struct{}) {
	framer := protocol.NewFramer()
	for {
		select {
		case <-quit:
			return
		case chunk := <-chunks:
			logging.LogRawBytes("inbound chunk", chunk)
			for _, frame := range framer.Feed(chunk) {
				logging.LogFrame("inbound", frame)
				e.handleFrame(frame)
			}
		}
	}
}

// sendPoll is the monitor's send function. Polls are skipped while the
// link is down; a dead transport triggers a full disconnect.
func (e *Engine) sendPoll(p PollCommand) {
	e.mu.Lock()
	t := e.transport
	st := e.state
	e.mu.Unlock()

	if st != Prepared || t == nil {
		return
	}
	if !t.Connected() {
		logging.Warn("Transport lost, disconnecting")
		go e.Disconnect()
		return
	}
	e.sendNow(t, p.Name, p.Params)
}

// sendNow encodes and writes without state checks; used for the connect
// handshake and monitor polls where the transport is already in hand.
func (e *Engine) sendNow(t Transport, name string, params protocol.Params) {
	buf, err := protocol.Encode(name, params)
	if err != nil {
		logging.Error("Cannot encode command", zap.String("command", name), zap.Error(err))
		return
	}
	logging.LogFrame("outbound", buf)
	if err := t.Write(buf); err != nil {
		logging.Warn("Send failed", zap.String("command", name), zap.Error(err))
	}
}

// updateCache stores payload for index when it differs bytewise from the
// cached value, reporting whether an event should be emitted.
func (e *Engine) updateCache(index byte, payload []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.cache[index]; ok && bytes.Equal(prev, payload) {
		return false
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	e.cache[index] = cp
	return true
}

// publish fans an event out to subscribers outside any engine lock.
func (e *Engine) publish(ev Event) {
	e.subMu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
