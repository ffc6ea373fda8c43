// Package server exposes the engine over WebSocket for browser dashboards
// and external tooling. Sensor events fan out to every connected client as
// JSON; clients send {"command": name, "params": {...}} objects to drive
// the robot.
package server
