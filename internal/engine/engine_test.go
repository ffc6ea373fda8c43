package engine

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openmbot/mbotlink/internal/protocol"
)

// fakeTransport records writes and lets tests inject inbound chunks.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	writes    [][]byte
	handler   func([]byte)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{connected: true}
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Write(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakeTransport) OnData(fn func([]byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeTransport) Reset() error { return nil }

func (f *fakeTransport) inject(chunk []byte) {
	f.mu.Lock()
	fn := f.handler
	f.mu.Unlock()
	if fn != nil {
		fn(chunk)
	}
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeTransport) writeAt(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[i]
}

// mkFrame builds a complete inbound frame.
func mkFrame(index, dataType byte, payload []byte) []byte {
	frame := []byte{protocol.HeaderFirst, protocol.HeaderSecond, byte(len(payload) + 2), index, dataType}
	frame = append(frame, payload...)
	return append(frame, protocol.FooterFirst, protocol.FooterSecond)
}

func collectEvents(e *Engine) <-chan Event {
	ch := make(chan Event, 16)
	e.Subscribe(func(ev Event) { ch <- ev })
	return ch
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// quietEngine has a poll interval long enough that monitoring never fires
// during a test.
func quietEngine() *Engine {
	return New(Options{PollInterval: time.Hour})
}

func TestConnectSendsHandshake(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()

	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()

	if got := e.State(); got != Prepared {
		t.Errorf("state = %v, want %v", got, Prepared)
	}

	// Exactly two tone commands and one version query, in that order,
	// before any monitoring poll.
	if n := ft.writeCount(); n != 3 {
		t.Fatalf("handshake writes = %d, want 3", n)
	}
	tonePrefix := []byte{0xFF, 0x55, 0x07, 0x00, 0x02, 0x22}
	for i := 0; i < 2; i++ {
		if !bytes.HasPrefix(ft.writeAt(i), tonePrefix) {
			t.Errorf("write %d = % x, want tone command", i, ft.writeAt(i))
		}
	}
	wantVersion := []byte{0xFF, 0x55, 0x03, 0x00, 0x01, 0x00}
	if !bytes.Equal(ft.writeAt(2), wantVersion) {
		t.Errorf("write 2 = % x, want version query % x", ft.writeAt(2), wantVersion)
	}
}

func TestConnectRequiresConnectedTransport(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	ft.connected = false

	if err := e.Connect(ft); !errors.Is(err, ErrTransportUnavailable) {
		t.Errorf("Connect() error = %v, want ErrTransportUnavailable", err)
	}
	if got := e.State(); got != Disconnected {
		t.Errorf("state = %v, want %v", got, Disconnected)
	}
}

func TestExecuteWhileDisconnected(t *testing.T) {
	e := quietEngine()

	if err := e.Execute("playTone", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Execute() error = %v, want ErrNotConnected", err)
	}
}

func TestExecuteUnknownCommandFailsLoudly(t *testing.T) {
	e := quietEngine()

	// Even while disconnected: a bad name is caller misuse, not a
	// transport condition.
	if err := e.Execute("levitate", nil); !errors.Is(err, protocol.ErrUnknownCommand) {
		t.Errorf("Execute() error = %v, want ErrUnknownCommand", err)
	}
}

func TestExecuteWritesEncodedCommand(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()

	if err := e.Execute("setLed", protocol.Params{"red": 255}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want, err := e.Buffer("setLed", protocol.Params{"red": 255})
	if err != nil {
		t.Fatalf("Buffer() error = %v", err)
	}
	if n := ft.writeCount(); n != 4 {
		t.Fatalf("writes = %d, want 4", n)
	}
	if !bytes.Equal(ft.writeAt(3), want) {
		t.Errorf("sent % x, want % x", ft.writeAt(3), want)
	}
}

func TestDuplicateSuppression(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()
	events := collectEvents(e)

	frame := mkFrame(protocol.IndexUltrasonic, protocol.DataFloat, []byte{0x00, 0x00, 0x48, 0x43})

	ft.inject(frame)
	ev := waitEvent(t, events)
	us, ok := ev.(UltrasonicSensorValue)
	if !ok {
		t.Fatalf("event = %T, want UltrasonicSensorValue", ev)
	}
	if us.Value != 200.0 {
		t.Errorf("value = %v, want 200.0", us.Value)
	}

	// Same payload again: suppressed entirely
	ft.inject(frame)
	assertNoEvent(t, events)

	// Different payload: emitted
	ft.inject(mkFrame(protocol.IndexUltrasonic, protocol.DataFloat, []byte{0x00, 0x00, 0xC8, 0x42}))
	ev = waitEvent(t, events)
	if us := ev.(UltrasonicSensorValue); us.Value != 100.0 {
		t.Errorf("value = %v, want 100.0", us.Value)
	}
}

func TestShortPayloadDroppedNotCached(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()
	events := collectEvents(e)

	// Two payload bytes where the float decoder needs four
	ft.inject(mkFrame(protocol.IndexLightSensor, protocol.DataFloat, []byte{0x00, 0x00}))
	assertNoEvent(t, events)

	// The complete reading on a later poll is not suppressed
	ft.inject(mkFrame(protocol.IndexLightSensor, protocol.DataFloat, []byte{0x00, 0x00, 0x80, 0x3F}))
	ev := waitEvent(t, events)
	if ls := ev.(LightnessSensorValue); ls.Value != 1.0 {
		t.Errorf("value = %v, want 1.0", ls.Value)
	}
}

func TestUnknownIndexDropped(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()
	events := collectEvents(e)

	ft.inject(mkFrame(0x7F, protocol.DataByte, []byte{0x01}))
	assertNoEvent(t, events)
}

func TestChunkedFrameDispatch(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()
	events := collectEvents(e)

	frame := mkFrame(protocol.IndexLineFollower, protocol.DataFloat, []byte{0x00, 0x00, 70, 50})
	for i := range frame {
		ft.inject(frame[i : i+1])
	}

	ev := waitEvent(t, events)
	lf, ok := ev.(LinefollowerSensorValue)
	if !ok {
		t.Fatalf("event = %T, want LinefollowerSensorValue", ev)
	}
	if lf.Left || !lf.Right {
		t.Errorf("left=%v right=%v, want left=false right=true", lf.Left, lf.Right)
	}
}

func TestCacheClearedOnReconnect(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	events := collectEvents(e)

	frame := mkFrame(protocol.IndexInnerButton, protocol.DataByte, []byte{0x01})
	ft.inject(frame)
	waitEvent(t, events)

	if err := e.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if got := e.State(); got != Disconnected {
		t.Fatalf("state = %v, want %v", got, Disconnected)
	}

	ft2 := newFakeTransport()
	if err := e.Connect(ft2); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()

	// The same payload as before the disconnect must produce an event on
	// first reception: the cache was cleared.
	ft2.inject(frame)
	ev := waitEvent(t, events)
	if bp := ev.(ButtonPressed); !bp.Pressed {
		t.Errorf("pressed = false, want true")
	}
}

func TestResetClearsCacheAndStopsMonitoring(t *testing.T) {
	e := New(Options{PollInterval: 20 * time.Millisecond})
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()
	events := collectEvents(e)

	frame := mkFrame(protocol.IndexInnerButton, protocol.DataByte, []byte{0x01})
	ft.inject(frame)
	waitEvent(t, events)

	// Wait for at least one poll round beyond the 3 handshake writes
	deadline := time.Now().Add(time.Second)
	for ft.writeCount() <= 3 {
		if time.Now().After(deadline) {
			t.Fatal("no monitoring polls observed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := e.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := e.State(); got != Prepared {
		t.Errorf("state after reset = %v, want %v", got, Prepared)
	}

	// The stop-motion command went out
	stop := []byte{0xFF, 0x55, 0x02, 0x00, 0x04}
	found := false
	for i := 0; i < ft.writeCount(); i++ {
		if bytes.Equal(ft.writeAt(i), stop) {
			found = true
			break
		}
	}
	if !found {
		t.Error("stop command not sent on reset")
	}

	// Monitoring halted: write count settles
	time.Sleep(50 * time.Millisecond)
	n := ft.writeCount()
	time.Sleep(80 * time.Millisecond)
	if m := ft.writeCount(); m != n {
		t.Errorf("writes grew from %d to %d after reset", n, m)
	}

	// Cache cleared: the pre-reset payload dispatches again
	ft.inject(frame)
	waitEvent(t, events)
}

func TestVersionEvent(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()
	events := collectEvents(e)

	ft.inject(mkFrame(protocol.IndexVersion, protocol.DataString, []byte("06.01.104")))
	ev := waitEvent(t, events)
	fv, ok := ev.(FirmwareVersion)
	if !ok {
		t.Fatalf("event = %T, want FirmwareVersion", ev)
	}
	if fv.Version != "06.01.104" {
		t.Errorf("version = %q, want %q", fv.Version, "06.01.104")
	}
}

func TestSubscribeCancel(t *testing.T) {
	e := quietEngine()
	ft := newFakeTransport()
	if err := e.Connect(ft); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer e.Disconnect()

	ch := make(chan Event, 16)
	cancel := e.Subscribe(func(ev Event) { ch <- ev })
	cancel()

	ft.inject(mkFrame(protocol.IndexInnerButton, protocol.DataByte, []byte{0x01}))
	select {
	case ev := <-ch:
		t.Fatalf("event after cancel: %s", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
