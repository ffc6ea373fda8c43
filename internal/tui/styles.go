package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the dashboard
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - connected, on-line
	ErrorColor   = lipgloss.Color("#FF5555") // Red - disconnected
	WarningColor = lipgloss.Color("#FFA500") // Orange - stale values
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the dashboard header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			PaddingLeft(1)

	// StatusConnectedStyle renders the prepared state marker
	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// StatusDisconnectedStyle renders the disconnected state marker
	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	// SensorLabelStyle is for sensor names in the readings panel
	SensorLabelStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Width(14)

	// SensorValueStyle is for current sensor values
	SensorValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// SensorOnStyle highlights boolean sensors that read active
	SensorOnStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// LogLineStyle is for event log entries
	LogLineStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SpinnerStyle is for the polling activity spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// PanelStyle returns the bordered box for the readings panel
func PanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width).
		Padding(0, 1)
}
