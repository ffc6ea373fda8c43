package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openmbot/mbotlink/internal/engine"
)

const (
	logLines   = 8
	driveSpeed = 150
	turnSpeed  = 100
)

// sensorEventMsg wraps an engine event for the update loop.
type sensorEventMsg struct {
	event engine.Event
}

// dashboardKeyMap defines key bindings for the dashboard screen
type dashboardKeyMap struct {
	Forward  key.Binding
	Backward key.Binding
	Left     key.Binding
	Right    key.Binding
	Stop     key.Binding
	Tone     key.Binding
	Reset    key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Forward, k.Stop, k.Tone, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Forward, k.Backward, k.Left, k.Right},
		{k.Stop, k.Tone, k.Reset, k.Quit},
	}
}

func newKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Forward: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "forward"),
		),
		Backward: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "backward"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "right"),
		),
		Stop: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "stop"),
		),
		Tone: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "beep"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// readings holds the latest value per sensor.
type readings struct {
	firmware   string
	ultrasonic *float32
	light      *float32
	lineLeft   bool
	lineRight  bool
	lineKnown  bool
	pressed    bool
}

// DashboardModel is the live dashboard screen.
type DashboardModel struct {
	engine *engine.Engine
	port   string
	events <-chan engine.Event

	readings readings
	log      []string

	width   int
	spinner spinner.Model
	help    help.Model
	keys    dashboardKeyMap
}

// NewDashboardModel creates a dashboard for a connected engine. events is
// the channel a Subscribe handler feeds; the caller owns the subscription.
func NewDashboardModel(eng *engine.Engine, port string, events <-chan engine.Event) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return DashboardModel{
		engine:  eng,
		port:    port,
		events:  events,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
		width:   72,
	}
}

// waitForEvent blocks on the event channel as a Bubble Tea command.
func (m DashboardModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return tea.Quit()
		}
		return sensorEventMsg{event: ev}
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width > 100 {
			m.width = 100
		}
		return m, nil

	case sensorEventMsg:
		m.apply(msg.event)
		return m, m.waitForEvent()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.engine.Execute("stop", nil)
			return m, tea.Quit
		case key.Matches(msg, m.keys.Forward):
			m.drive(driveSpeed, driveSpeed)
		case key.Matches(msg, m.keys.Backward):
			m.drive(-driveSpeed, -driveSpeed)
		case key.Matches(msg, m.keys.Left):
			m.drive(-turnSpeed, turnSpeed)
		case key.Matches(msg, m.keys.Right):
			m.drive(turnSpeed, -turnSpeed)
		case key.Matches(msg, m.keys.Stop):
			m.engine.Execute("stop", nil)
			m.appendLog("stop")
		case key.Matches(msg, m.keys.Tone):
			m.engine.Execute("playTone", nil)
			m.appendLog("beep")
		case key.Matches(msg, m.keys.Reset):
			m.engine.Reset()
			m.appendLog("reset")
		}
		return m, nil
	}

	return m, nil
}

// apply folds one sensor event into the latest-readings view.
func (m *DashboardModel) apply(ev engine.Event) {
	switch e := ev.(type) {
	case engine.FirmwareVersion:
		m.readings.firmware = e.Version
	case engine.UltrasonicSensorValue:
		v := e.Value
		m.readings.ultrasonic = &v
	case engine.LightnessSensorValue:
		v := e.Value
		m.readings.light = &v
	case engine.LinefollowerSensorValue:
		m.readings.lineLeft = e.Left
		m.readings.lineRight = e.Right
		m.readings.lineKnown = true
	case engine.ButtonPressed:
		m.readings.pressed = e.Pressed
	}
	m.appendLog(ev.String())
}

func (m *DashboardModel) drive(left, right int) {
	m.engine.Execute("move", map[string]int{"left": left, "right": right})
	m.appendLog(fmt.Sprintf("move left=%d right=%d", left, right))
}

func (m *DashboardModel) appendLog(line string) {
	stamp := time.Now().Format("15:04:05")
	m.log = append(m.log, fmt.Sprintf("%s  %s", stamp, line))
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

func (m DashboardModel) View() string {
	var b strings.Builder

	state := m.engine.State()
	status := StatusDisconnectedStyle.Render("● disconnected")
	if state == engine.Prepared {
		status = StatusConnectedStyle.Render("● connected")
	}
	title := fmt.Sprintf("mbotlink  %s  %s", m.port, status)
	if m.readings.firmware != "" {
		title += lipgloss.NewStyle().Foreground(MutedColor).Render("  fw " + m.readings.firmware)
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(PanelStyle(m.width - 2).Render(m.renderReadings()))
	b.WriteString("\n")

	for _, line := range m.log {
		b.WriteString(LogLineStyle.Render("  " + line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func (m DashboardModel) renderReadings() string {
	rows := []string{
		m.spinner.View() + " live readings",
		m.floatRow("ultrasonic", m.readings.ultrasonic, "cm"),
		m.floatRow("light", m.readings.light, ""),
		m.lineRow(),
		m.buttonRow(),
	}
	return strings.Join(rows, "\n")
}

func (m DashboardModel) floatRow(label string, v *float32, unit string) string {
	value := "—"
	if v != nil {
		value = fmt.Sprintf("%.2f %s", *v, unit)
	}
	return SensorLabelStyle.Render(label) + SensorValueStyle.Render(value)
}

func (m DashboardModel) lineRow() string {
	if !m.readings.lineKnown {
		return SensorLabelStyle.Render("line") + SensorValueStyle.Render("—")
	}
	render := func(on bool, name string) string {
		if on {
			return SensorOnStyle.Render(name)
		}
		return SensorValueStyle.Render(name)
	}
	return SensorLabelStyle.Render("line") +
		render(m.readings.lineLeft, "left") + "  " + render(m.readings.lineRight, "right")
}

func (m DashboardModel) buttonRow() string {
	value := SensorValueStyle.Render("released")
	if m.readings.pressed {
		value = SensorOnStyle.Render("pressed")
	}
	return SensorLabelStyle.Render("button") + value
}

// Run starts the dashboard program and blocks until quit.
func Run(eng *engine.Engine, port string, events <-chan engine.Event) error {
	p := tea.NewProgram(NewDashboardModel(eng, port, events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
