// Package main is the entry point for the SipStream TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sipsmart/sipstream/internal/app"
	"github.com/sipsmart/sipstream/internal/config"
	"github.com/sipsmart/sipstream/internal/services"
	"github.com/sipsmart/sipstream/internal/ui/tabs/dashboard"
	"github.com/sipsmart/sipstream/internal/ui/tabs/history"
	"github.com/sipsmart/sipstream/internal/ui/tabs/info"
	"github.com/sipsmart/sipstream/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize the service manager over the BLE link
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 3. Start scanning for the sensor right away
	svcManager.StartStream()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state, cfg.DailyGoalML, cfg.ChartWindow), // Tab 0: live metrics
		history.New(state),                                     // Tab 1: recorded sips
		info.New(state, cfg),                                   // Tab 2: configuration and app info
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 7. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`SipStream - BLE liquid-flow sensor monitor

Usage:
  sipstream [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  s               Start the sensor stream
  d               Disconnect and stop
  x               Reset session metrics and history
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  SIPSTREAM_DEVICE_NAME       Advertised sensor name (default: XIAO_Flow)
  SIPSTREAM_TX_UUID           Notify characteristic UUID
  SIPSTREAM_SIP_THRESHOLD_ML  Active-flow threshold in mL (default: 0.5)
  SIPSTREAM_SIP_GAP           Idle gap that finalizes a sip (default: 2s)
  SIPSTREAM_CHART_WINDOW      Flow chart window (default: 120s)
  SIPSTREAM_REFRESH_INTERVAL  UI snapshot poll interval (default: 500ms)
  SIPSTREAM_SCAN_TIMEOUT      BLE scan timeout (default: 10s)
  SIPSTREAM_DB_PATH           Session store path (default: in-memory)
  SIPSTREAM_DAILY_GOAL_ML     Daily hydration goal (default: 2000)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/sipstream/.env
  - ~/.sipstream/.env

For more information, visit: https://github.com/sipsmart/sipstream`)
}
