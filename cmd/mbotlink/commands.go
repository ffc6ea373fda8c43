package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openmbot/mbotlink/internal/config"
	"github.com/openmbot/mbotlink/internal/discovery"
	"github.com/openmbot/mbotlink/internal/engine"
	"github.com/openmbot/mbotlink/internal/logging"
	"github.com/openmbot/mbotlink/internal/protocol"
	"github.com/openmbot/mbotlink/internal/server"
	"github.com/openmbot/mbotlink/internal/transport"
	"github.com/openmbot/mbotlink/internal/tui"
)

// Persistent flags shared by the connection-using commands
var (
	portFlag     string
	baudFlag     int
	demoFlag     bool
	logLevelFlag string
	configFlag   string
)

var (
	addrFlag   string
	dryRunFlag bool
)

// initLogging applies the flag level, falling back to the environment.
func initLogging() error {
	if logLevelFlag != "" {
		return logging.Initialize(logLevelFlag)
	}
	return logging.InitializeFromEnv()
}

// loadConfig honors an explicit --config path over the default location.
func loadConfig() (*config.Registry, error) {
	if configFlag != "" {
		return config.LoadRegistryFromFile(configFlag)
	}
	return config.LoadRegistry()
}

// resolvePort picks the serial port: flag, then the configured default
// robot, then the best discovered candidate.
func resolvePort(reg *config.Registry) (string, error) {
	if portFlag != "" {
		return portFlag, nil
	}
	if reg != nil && reg.Preferences != nil && reg.Preferences.DefaultRobot != "" {
		if robot := reg.GetRobot(reg.Preferences.DefaultRobot); robot != nil && robot.Port != "" {
			return robot.Port, nil
		}
	}
	best, err := discovery.BestGuess()
	if err != nil {
		return "", fmt.Errorf("no port given and discovery failed: %w (try --port or --demo)", err)
	}
	return best.Path, nil
}

// connect builds the transport and brings the engine up. The returned label
// names the link for display.
func connect() (*engine.Engine, string, error) {
	if err := initLogging(); err != nil {
		return nil, "", fmt.Errorf("failed to initialize logging: %w", err)
	}

	reg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}

	eng := engine.New(engine.Options{PollInterval: reg.PollInterval()})

	if demoFlag {
		if err := eng.Connect(transport.NewDemo()); err != nil {
			return nil, "", err
		}
		return eng, "demo", nil
	}

	port, err := resolvePort(reg)
	if err != nil {
		return nil, "", err
	}
	t, err := transport.OpenSerial(port, baudFlag)
	if err != nil {
		return nil, "", err
	}
	if err := eng.Connect(t); err != nil {
		t.Disconnect()
		return nil, "", err
	}

	// Save only touches the default location, so skip it for --config runs
	if name := reg.Preferences.DefaultRobot; name != "" && configFlag == "" {
		reg.RecordConnection(name, port, "")
		if err := reg.Save(); err != nil {
			logging.Warn("Could not save config: " + err.Error())
		}
	}
	return eng, port, nil
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive dashboard with live sensor readings",
	Long: `Connect to the robot and open the interactive dashboard.

Shows the latest reading per sensor as the monitoring loop polls, a
scrolling event log, and drive keys (arrows/wasd, space to stop).`,
	Example: `  # Dashboard on the best discovered port
  mbotlink monitor

  # Dashboard against the simulator
  mbotlink monitor --demo`,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("monitor needs a terminal; use 'mbotlink watch' for plain output")
	}

	eng, label, err := connect()
	if err != nil {
		return err
	}
	defer eng.Disconnect()

	events := make(chan engine.Event, 64)
	cancel := eng.Subscribe(func(ev engine.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer cancel()

	return tui.Run(eng, label, events)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream sensor events as plain text",
	Long: `Connect to the robot and print every decoded sensor event to stdout,
one per line, until interrupted. Duplicate readings are suppressed by the
engine, so only changes appear.`,
	Example: `  mbotlink watch
  mbotlink watch --demo | tee session.log`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, label, err := connect()
	if err != nil {
		return err
	}
	defer eng.Disconnect()

	fmt.Printf("connected to %s, watching (ctrl-c to stop)\n", label)
	cancel := eng.Subscribe(func(ev engine.Event) {
		fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), ev)
	})
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	return nil
}

var execCmd = &cobra.Command{
	Use:   "exec <command> [key=value...]",
	Short: "Execute a single named command",
	Long: `Encode and send one command to the robot. Parameters are given as
key=value pairs; keys a command does not recognize are ignored and missing
keys take the command's defaults.

With --dry-run the encoded bytes are printed without connecting.`,
	Example: `  # Beep with defaults
  mbotlink exec playTone

  # Custom tone
  mbotlink exec playTone frequency=440 duration=500

  # Drive both motors
  mbotlink exec move left=120 right=120

  # Show the wire bytes without sending
  mbotlink exec setLed red=255 --dry-run

  # List available commands
  mbotlink exec list`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the encoded bytes instead of sending")
}

func runExec(cmd *cobra.Command, args []string) error {
	name := args[0]
	if name == "list" {
		for _, n := range protocol.Commands() {
			fmt.Println(n)
		}
		return nil
	}

	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	if dryRunFlag {
		buf, err := protocol.Encode(name, params)
		if err != nil {
			return err
		}
		fmt.Println(strings.ToUpper(hex.EncodeToString(buf)))
		return nil
	}

	eng, _, err := connect()
	if err != nil {
		return err
	}
	defer eng.Disconnect()

	if err := eng.Execute(name, params); err != nil {
		return err
	}
	// Give the write a moment to drain before dropping the link
	time.Sleep(200 * time.Millisecond)
	return nil
}

// parseParams turns key=value arguments into command parameters.
func parseParams(args []string) (protocol.Params, error) {
	params := make(protocol.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("bad parameter %q, want key=value", arg)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("bad value for %q: %w", key, err)
		}
		params[key] = n
	}
	return params, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the robot over WebSocket",
	Long: `Connect to the robot and run the WebSocket bridge. Sensor events fan
out to every connected client as JSON; clients send
{"command": name, "params": {...}} objects to drive the robot.`,
	Example: `  mbotlink serve
  mbotlink serve --addr localhost:9000 --demo`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, then localhost:8645)")
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, label, err := connect()
	if err != nil {
		return err
	}
	defer eng.Disconnect()

	addr := addrFlag
	if addr == "" {
		if reg, err := loadConfig(); err == nil && reg.Preferences != nil && reg.Preferences.ServerAddr != "" {
			addr = reg.Preferences.ServerAddr
		} else {
			addr = "localhost:8645"
		}
	}

	srv := server.New(&server.Config{Addr: addr}, eng)
	fmt.Printf("robot on %s, bridge on ws://%s/ws (ctrl-c to stop)\n", label, addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	return srv.Start()
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial port candidates",
	Long: `Enumerate serial ports and classify each as bluetooth, usb, or
unknown. The list is ordered best-candidate first; the top entry is what a
connection without --port would use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := discovery.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Printf("%-28s %s\n", p.Path, p.Kind)
		}
		return nil
	},
}
