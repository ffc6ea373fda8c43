package discovery

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.bug.st/serial"
)

// Kind classifies how a serial port reaches the controller.
type Kind int

const (
	// KindUnknown is a port that matched no known naming pattern.
	KindUnknown Kind = iota
	// KindBluetooth is an rfcomm or SPP bridge device.
	KindBluetooth
	// KindUSB is a direct USB serial adapter.
	KindUSB
)

func (k Kind) String() string {
	switch k {
	case KindBluetooth:
		return "bluetooth"
	case KindUSB:
		return "usb"
	default:
		return "unknown"
	}
}

// Port is one enumerated serial port candidate.
type Port struct {
	// Path is the device path to open (e.g., "/dev/rfcomm0").
	Path string

	// Kind is the link classification derived from the path.
	Kind Kind

	// DiscoveredAt is when the port was enumerated.
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the port
func (p Port) String() string {
	return fmt.Sprintf("%s (%s)", p.Path, p.Kind)
}

// Naming patterns by platform. Bluetooth patterns outrank USB because a
// paired controller is the expected setup; USB is the flashing/bench case.
var (
	bluetoothPattern = regexp.MustCompile(`(rfcomm\d+|cu\..*(SPP|Makeblock|MBot).*|tty\..*(SPP|Makeblock|MBot).*)$`)
	usbPattern       = regexp.MustCompile(`(ttyUSB\d+|ttyACM\d+|cu\.usb.*|COM\d+)$`)
)

// listPorts is swapped in tests.
var listPorts = serial.GetPortsList

// ListPorts enumerates serial ports and classifies each one. The result is
// ordered best-candidate first: Bluetooth, then USB, then everything else,
// alphabetically within each class.
func ListPorts() ([]Port, error) {
	paths, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	now := time.Now()
	ports := make([]Port, 0, len(paths))
	for _, path := range paths {
		ports = append(ports, Port{
			Path:         path,
			Kind:         classify(path),
			DiscoveredAt: now,
		})
	}

	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].Kind != ports[j].Kind {
			return rank(ports[i].Kind) < rank(ports[j].Kind)
		}
		return ports[i].Path < ports[j].Path
	})
	return ports, nil
}

// BestGuess returns the most likely controller port, or an error when
// nothing is enumerable.
func BestGuess() (Port, error) {
	ports, err := ListPorts()
	if err != nil {
		return Port{}, err
	}
	if len(ports) == 0 {
		return Port{}, fmt.Errorf("no serial ports found")
	}
	return ports[0], nil
}

func classify(path string) Kind {
	switch {
	case bluetoothPattern.MatchString(path):
		return KindBluetooth
	case usbPattern.MatchString(path):
		return KindUSB
	default:
		return KindUnknown
	}
}

func rank(k Kind) int {
	switch k {
	case KindBluetooth:
		return 0
	case KindUSB:
		return 1
	default:
		return 2
	}
}
