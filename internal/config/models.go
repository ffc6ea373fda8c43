package config

import "time"

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int               `yaml:"version"`
	Robots      map[string]*Robot `yaml:"robots,omitempty"` // keyed by nickname
	Preferences *Preferences      `yaml:"preferences,omitempty"`
}

// Robot stores per-robot connection settings and metadata. Entries are
// created the first time a robot is connected to by name.
type Robot struct {
	Port     string    `yaml:"port,omitempty"`      // serial device path
	BaudRate int       `yaml:"baud_rate,omitempty"` // 0 selects the default
	LastSeen time.Time `yaml:"last_seen,omitempty"` // last successful connect
	Firmware string    `yaml:"firmware,omitempty"`  // last reported version
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultRobot   string `yaml:"default_robot,omitempty"` // nickname used when none is given
	PollIntervalMS int    `yaml:"poll_interval_ms"`        // monitoring loop period
	ServerAddr     string `yaml:"server_addr,omitempty"`   // websocket bridge listen address
	LogLevel       string `yaml:"log_level,omitempty"`     // overridden by MBOTLINK_LOG_LEVEL
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Robots:  make(map[string]*Robot),
		Preferences: &Preferences{
			PollIntervalMS: 100,
			ServerAddr:     "localhost:8645",
		},
	}
}

// GetRobot retrieves robot metadata by nickname. Returns nil if the robot
// doesn't exist in the registry.
func (r *Registry) GetRobot(nickname string) *Robot {
	return r.Robots[nickname]
}

// EnsureRobot ensures a robot entry exists, creating a default one if
// needed, and returns it.
func (r *Registry) EnsureRobot(nickname string) *Robot {
	if r.Robots == nil {
		r.Robots = make(map[string]*Robot)
	}
	if robot, exists := r.Robots[nickname]; exists {
		return robot
	}
	robot := &Robot{}
	r.Robots[nickname] = robot
	return robot
}

// RecordConnection updates the last seen timestamp, port and firmware
// version after a successful connect.
func (r *Registry) RecordConnection(nickname, port, firmware string) {
	robot := r.EnsureRobot(nickname)
	robot.LastSeen = time.Now()
	robot.Port = port
	if firmware != "" {
		robot.Firmware = firmware
	}
}

// PollInterval returns the configured monitoring period as a duration,
// falling back to the default for zero or missing preferences.
func (r *Registry) PollInterval() time.Duration {
	if r.Preferences == nil || r.Preferences.PollIntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(r.Preferences.PollIntervalMS) * time.Millisecond
}
