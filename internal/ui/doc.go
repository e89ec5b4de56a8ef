// Package ui provides terminal output components for the n2klink CLIs.
//
// This package uses Bubble Tea and Lipgloss to render both curated
// command output and the full-screen live traffic monitor. The two modes
// serve different commands:
//
//   - Static components follow a "render once and exit" pattern for
//     commands like scan, profile and send
//   - The monitor is an interactive, full-screen TUI for watching bus
//     traffic in real time
//
// # Static Components
//
//   - Header: Command banner showing operation name and parameters
//   - Result: Success/failure/warning boxes with styled details
//   - Printer: io.Writer wrapper that sizes output to the terminal
//   - Confirm: y/n prompts, including the transmission safety prompt
//   - RenderGatewayList / RenderProfileTable: discovery and registry
//     listings
//
// Example:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Gateway Scan", "n2klink-cfg scan serial", nil)
//	// ... do work ...
//	p.PrintSuccess("Scan Complete", map[string]string{"Found": "2"})
//
// # Live Monitor
//
// The monitor follows the Elm architecture with immutable state updates
// and a Model-Update-View pattern. Decoded messages and stream errors
// reach it through a Feed, whose OnMessage and OnError methods plug
// straight into a gateway.Config. The feed never blocks the receive
// loop: when the UI falls behind, events are dropped and counted, and
// the drop count is shown in the status line.
//
//	feed := ui.NewFeed()
//	dev, err := gateway.New(gateway.Config{
//	    Conn:      conn,
//	    OnMessage: feed.OnMessage,
//	    OnError:   feed.OnError,
//	})
//	// ... start dev.Run in a goroutine, then:
//	err = ui.RunMonitor(ui.NewMonitorModel(target, feed, dev.Stats))
//
// Framework components used: bubbles/spinner for the waiting state,
// bubbles/textinput for the PGN filter, bubbles/help and bubbles/key
// for context-aware key bindings.
//
// # Key Bindings
//
//   - ↑/↓, pgup/pgdn: scroll through retained traffic
//   - G: jump back to the live tail
//   - p: pause row collection (traffic still counted)
//   - f: filter by PGN (decimal or 0x hex, error rows always shown)
//   - c: clear the scrollback
//   - q: quit
//
// # Logging Integration
//
// Commands using this package keep zap logging silent by default so the
// curated output stays clean. Set N2KLINK_LOG_LEVEL or pass --log-level
// to direct structured logs to stderr alongside the UI.
package ui
