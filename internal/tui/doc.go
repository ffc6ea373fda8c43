// Package tui implements the interactive terminal dashboard: live sensor
// readings from the monitoring loop, a scrolling event log, and key
// bindings for driving the robot. Built on Bubble Tea; engine events are
// forwarded into the program as messages.
package tui
