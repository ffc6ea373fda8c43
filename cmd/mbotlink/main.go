// Mbotlink is a command-line controller for mBot-style robots speaking the
// 0xFF 0x55 serial protocol over Bluetooth classic or USB.
//
// It provides an interactive dashboard, a plain-text sensor watcher, direct
// command execution, a WebSocket bridge for external tooling, and serial
// port discovery.
//
// Usage:
//
//	mbotlink [command] [flags]
//
// Running without arguments launches the dashboard.
// See 'mbotlink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openmbot/mbotlink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mbotlink",
	Short: "mBot Robot Controller",
	Long: `A command-line controller for mBot-style robots.

Connects over a serial port (Bluetooth classic rfcomm or USB), drives the
robot with named commands, and streams decoded sensor telemetry.

If no command is specified, the interactive dashboard will launch.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "Serial port path (default: config, then best discovered candidate)")
	rootCmd.PersistentFlags().IntVar(&baudFlag, "baud", 0, "Baud rate (default 115200)")
	rootCmd.PersistentFlags().BoolVar(&demoFlag, "demo", false, "Use a simulated robot instead of hardware")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error; default silent)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default: platform config directory)")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mbotlink %s (commit: %s)\n", version.Version, version.Commit)
	},
}
