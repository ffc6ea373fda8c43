package engine

import (
	"sync"
	"time"

	"github.com/openmbot/mbotlink/internal/protocol"
)

// DefaultPollInterval is how often the monitoring loop requests fresh
// sensor values. Duplicate suppression in the dispatcher keeps this rate
// from flooding subscribers.
const DefaultPollInterval = 100 * time.Millisecond

// PollCommand names one command the monitoring loop issues per interval.
type PollCommand struct {
	Name   string
	Params protocol.Params
}

// DefaultPollCommands returns the poll set for the onboard sensors.
func DefaultPollCommands() []PollCommand {
	return []PollCommand{
		{Name: "getUltrasonic"},
		{Name: "getLineFollower"},
		{Name: "getLightSensor"},
		{Name: "getButton"},
	}
}

// Monitor is the timer-driven issuer of periodic sensor polls. Start and
// Stop are idempotent: starting a running monitor never creates a second
// timer, stopping a stopped one is a no-op.
type Monitor struct {
	interval time.Duration
	polls    []PollCommand
	send     func(PollCommand)

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// NewMonitor creates a stopped monitor. send is invoked once per poll
// command per interval and must not block.
func NewMonitor(interval time.Duration, polls []PollCommand, send func(PollCommand)) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		interval: interval,
		polls:    polls,
		send:     send,
	}
}

// Start begins periodic polling. Calling Start on a running monitor does
// nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	go m.run(m.stop)
}

// Stop halts polling. Already-issued commands cannot be recalled; Stop only
// prevents scheduling further polls.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
}

// Running reports whether the monitor currently polls.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, p := range m.polls {
				m.send(p)
			}
		}
	}
}
