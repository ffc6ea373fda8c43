// Package config manages the user configuration file: connection defaults,
// per-robot metadata and application preferences, stored as YAML in the
// platform config directory. Loading is lazy and shared; saving is atomic.
package config
