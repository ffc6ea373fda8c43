// Package discovery enumerates serial ports that may carry a robot
// controller. Bluetooth classic pairings surface as rfcomm (Linux) or
// cu.*SPP (macOS) devices; USB links surface as ttyUSB/ttyACM or COM ports.
// Enumeration classifies each port and orders candidates so callers can
// offer a best-guess default.
package discovery
