package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/n2klink/capture"
	"github.com/muurk/n2klink/gateway"
	"github.com/muurk/n2klink/internal/config"
	"github.com/muurk/n2klink/internal/logging"
	"github.com/muurk/n2klink/internal/ui"
	"github.com/muurk/n2klink/protocol"
	"github.com/muurk/n2klink/transport"
)

// Gateway selection flags
var (
	devicePath  string
	baudRate    int
	tcpAddr     string
	wsURL       string
	profileName string
	logLevel    string
)

// Per-command flags
var (
	replayFast   bool
	sendPGN      uint32
	sendData     string
	sendPriority uint8
	sendDest     uint8
	sendYes      bool
)

func init() {
	// Gateway selection flags (persistent on root)
	rootCmd.PersistentFlags().StringVar(&devicePath, "device", "", "Serial device path (e.g. /dev/ttyUSB0)")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", transport.DefaultBaud, "Serial baud rate")
	rootCmd.PersistentFlags().StringVar(&tcpAddr, "tcp", "", "TCP gateway address (host:port)")
	rootCmd.PersistentFlags().StringVar(&wsURL, "ws", "", "WebSocket gateway URL (ws://host:port/path)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Named gateway profile from the registry")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Add subcommands directly to root
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(sendCmd)
}

// watchCmd launches the full-screen live monitor
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch live bus traffic in a full-screen monitor",
	Long: `Launch the full-screen live traffic monitor.

The monitor shows decoded messages as they arrive: timestamp, message
type, PGN, source and destination, priority and payload bytes. Stream
errors appear inline, so a noisy link is visible at a glance.

Key bindings: p pauses collection, f filters by PGN, c clears the
scrollback, arrow keys scroll through history, q quits.`,
	Example: `  # Watch the default profile
  n2klink-mon watch
  # Or simply (watch is default):
  n2klink-mon

  # Watch a specific serial gateway
  n2klink-mon watch --device /dev/ttyUSB0

  # Watch an ethernet gateway
  n2klink-mon watch --tcp 192.168.1.100:60001`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, target, err := openConn(ctx)
	if err != nil {
		return err
	}

	feed := ui.NewFeed()
	dev, err := gateway.New(gateway.Config{
		Conn:      conn,
		OnMessage: feed.OnMessage,
		OnError:   feed.OnError,
	})
	if err != nil {
		conn.Close()
		return err
	}

	runDone := make(chan error, 1)
	go func() {
		err := dev.Run(ctx)
		feed.Close()
		runDone <- err
	}()

	uiErr := ui.RunMonitor(ui.NewMonitorModel(target, feed, dev.Stats))

	dev.Close()
	cancel()
	runErr := <-runDone

	if uiErr != nil {
		return uiErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// dumpCmd prints decoded traffic line by line
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print decoded traffic line by line",
	Long: `Print one line per decoded message to stdout until interrupted.

Stream errors go to stderr, so stdout stays a clean message log that
can be piped into grep or awk.`,
	Example: `  # Dump the default profile
  n2klink-mon dump

  # Watch position updates only
  n2klink-mon dump --device /dev/ttyUSB0 | grep pgn=129025`,
	RunE: runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := openConn(ctx)
	if err != nil {
		return err
	}

	dev, err := gateway.New(gateway.Config{
		Conn: conn,
		OnMessage: func(proto string, msgType byte, msg protocol.Message) {
			fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), msg)
		},
		OnError: func(perr *protocol.Error) {
			fmt.Fprintf(os.Stderr, "%s  stream error: %s\n", time.Now().Format("15:04:05.000"), perr)
		},
	})
	if err != nil {
		conn.Close()
		return err
	}
	defer dev.Close()

	err = dev.Run(ctx)

	stats := dev.Stats()
	fmt.Fprintf(os.Stderr, "\n%d messages, %d errors, %d bytes received\n",
		stats.Messages, stats.Errors, stats.BytesReceived)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// recordCmd captures traffic to a file
var recordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Record bus traffic to a capture file",
	Long: `Record decoded gateway traffic to a capture file until interrupted.

Each message is stored with its arrival time, so 'replay' can later
reproduce the original pacing. Stream errors are not recorded; they are
reported on stderr as they happen.`,
	Example: `  # Record the default profile until Ctrl-C
  n2klink-mon record harbor-exit.n2kcap

  # Record a specific gateway
  n2klink-mon record --device /dev/ttyUSB0 sea-trial.n2kcap`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	path := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, target, err := openConn(ctx)
	if err != nil {
		return err
	}

	writer, err := capture.Create(path)
	if err != nil {
		conn.Close()
		return err
	}

	p := ui.NewPrinter(nil)
	p.PrintHeader("Traffic Recording", "n2klink-mon record", map[string]string{
		"Gateway": target,
		"File":    path,
	})
	p.Println("Recording... press Ctrl-C to stop.")
	p.Newline()

	var encodeFailures int
	dev, err := gateway.New(gateway.Config{
		Conn: conn,
		OnMessage: func(proto string, msgType byte, msg protocol.Message) {
			body, err := protocol.EncodeMessage(msg)
			if err != nil {
				encodeFailures++
				return
			}
			if err := writer.AppendFrame(body); err != nil {
				fmt.Fprintf(os.Stderr, "capture write failed: %v\n", err)
			}
		},
		OnError: func(perr *protocol.Error) {
			fmt.Fprintf(os.Stderr, "stream error: %s\n", perr)
		},
	})
	if err != nil {
		writer.Close()
		conn.Close()
		return err
	}

	runErr := dev.Run(ctx)
	dev.Close()

	count := writer.Count()
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close capture file: %w", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		p.PrintError("Recording Failed", runErr, []string{
			fmt.Sprintf("%d messages were captured before the failure", count),
			"Check the gateway connection and try again",
		})
		return runErr
	}

	details := map[string]string{
		"Messages": fmt.Sprintf("%d", count),
		"File":     path,
	}
	if encodeFailures > 0 {
		details["Skipped"] = fmt.Sprintf("%d", encodeFailures)
	}
	p.PrintSuccess("Recording Complete", details)
	return nil
}

// replayCmd plays a capture file back through the decoder
var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a capture file through the decoder",
	Long: `Replay a capture file, printing each message the way 'dump' does.

By default replay reproduces the recorded pacing, sleeping the original
gap between messages (capped at 5 seconds). Use --fast to decode the
whole file at full speed.

Replay never touches a gateway; it feeds the recorded frames back
through the stream decoder, so it also serves as a capture file
integrity check.`,
	Example: `  # Replay with original timing
  n2klink-mon replay harbor-exit.n2kcap

  # Decode a capture as fast as possible
  n2klink-mon replay --fast sea-trial.n2kcap`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayFast, "fast", false, "Replay at full speed, ignoring recorded timing")
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logging.Initialize(logLevel); err != nil {
		_ = err
	}

	reader, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	var messages, streamErrors int
	parser := protocol.NewParser(
		func(proto string, msgType byte, msg protocol.Message) {
			messages++
			fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), msg)
		},
		func(perr *protocol.Error) {
			streamErrors++
			fmt.Fprintf(os.Stderr, "stream error: %s\n", perr)
		},
	)

	fed, err := capture.Replay(ctx, reader, parser.Feed, !replayFast)

	fmt.Fprintf(os.Stderr, "\n%d frames replayed, %d messages decoded, %d errors\n",
		fed, messages, streamErrors)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// sendCmd transmits a single message onto the bus
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit a single NMEA 2000 message onto the bus",
	Long: `Build a transmit record from PGN, priority, destination and payload
bytes and send it through the gateway onto the live bus.

Transmitting affects every device on the network, so the command asks
for confirmation first. Pass --yes to skip the prompt in scripts.`,
	Example: `  # Request product information from all devices (ISO Request)
  n2klink-mon send --pgn 59904 --data 14F001 --dst 255

  # Addressed request to node 0x23, skipping the prompt
  n2klink-mon send --pgn 59904 --data 14F001 --dst 35 --yes`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().Uint32Var(&sendPGN, "pgn", 0, "Parameter Group Number to transmit")
	sendCmd.Flags().StringVar(&sendData, "data", "", "Payload bytes as hex (e.g. B1640500FFFFFFFF)")
	sendCmd.Flags().Uint8Var(&sendPriority, "priority", 6, "Message priority (0-7, lower is more urgent)")
	sendCmd.Flags().Uint8Var(&sendDest, "dst", protocol.AddressGlobal, "Destination node address (255 broadcasts)")
	sendCmd.Flags().BoolVar(&sendYes, "yes", false, "Skip the transmission confirmation prompt")
	_ = sendCmd.MarkFlagRequired("pgn")
}

func runSend(cmd *cobra.Command, args []string) error {
	data, err := parseHexPayload(sendData)
	if err != nil {
		return fmt.Errorf("invalid --data: %w", err)
	}

	msg, err := protocol.NewN2KSend(sendPGN, sendPriority, sendDest, data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, target, err := openConn(ctx)
	if err != nil {
		return err
	}

	dev, err := gateway.New(gateway.Config{Conn: conn})
	if err != nil {
		conn.Close()
		return err
	}
	defer dev.Close()

	if !sendYes && !ui.ConfirmBusTransmission(target, msg.String()) {
		return nil
	}

	p := ui.NewPrinter(nil)
	if err := dev.Send(ctx, msg); err != nil {
		p.PrintError("Transmission Failed", err, []string{
			"Check the gateway connection",
			"Serial gateways need a moment after plugging in",
		})
		return err
	}

	p.PrintSuccess("Message Transmitted", map[string]string{
		"PGN":         fmt.Sprintf("%d", sendPGN),
		"Priority":    fmt.Sprintf("%d", sendPriority),
		"Destination": formatDest(sendDest),
		"Payload":     fmt.Sprintf("%d bytes", len(data)),
		"Gateway":     target,
	})
	return nil
}

// openConn selects and opens the gateway transport. Explicit flags win
// over --profile, which wins over the registry's default profile.
func openConn(ctx context.Context) (transport.Conn, string, error) {
	// Silent unless --log-level or N2KLINK_LOG_LEVEL asks for output
	if err := logging.Initialize(logLevel); err != nil {
		_ = err
	}

	switch {
	case devicePath != "":
		conn, err := transport.OpenSerial(transport.SerialConfig{Device: devicePath, Baud: baudRate})
		if err != nil {
			return nil, "", err
		}
		return conn, devicePath, nil

	case tcpAddr != "":
		conn, err := transport.DialTCP(ctx, tcpAddr)
		if err != nil {
			return nil, "", err
		}
		return conn, tcpAddr, nil

	case wsURL != "":
		conn, err := transport.DialWS(ctx, wsURL)
		if err != nil {
			return nil, "", err
		}
		return conn, wsURL, nil
	}

	// No explicit transport, fall back to the profile registry
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, "", err
	}

	name := profileName
	if name == "" {
		name = reg.DefaultProfileName()
	}
	if name == "" {
		return nil, "", errors.New("no gateway selected: pass --device, --tcp or --ws, " +
			"or add a profile with 'n2klink-cfg profile add'")
	}

	profile := reg.GetProfile(name)
	if profile == nil {
		return nil, "", fmt.Errorf("profile %q not found (see 'n2klink-cfg profile list')", name)
	}

	conn, err := openProfile(ctx, profile)
	if err != nil {
		return nil, "", fmt.Errorf("profile %q: %w", name, err)
	}

	// Best-effort last-seen stamp; a read-only config dir is not fatal
	if reg.UpdateProfileLastSeen(name) {
		_ = reg.Save()
	}
	return conn, profile.Target(), nil
}

func openProfile(ctx context.Context, p *config.Profile) (transport.Conn, error) {
	switch p.Transport {
	case config.TransportSerial:
		return transport.OpenSerial(transport.SerialConfig{Device: p.Device, Baud: p.Baud})
	case config.TransportTCP:
		return transport.DialTCP(ctx, p.Addr)
	case config.TransportWS:
		return transport.DialWS(ctx, p.Addr)
	default:
		return nil, fmt.Errorf("unknown transport %q", p.Transport)
	}
}

// parseHexPayload decodes a hex payload string, tolerating spaces and
// commas between bytes.
func parseHexPayload(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ",", "", "0x", "", "0X", "").Replace(s)
	if cleaned == "" {
		return nil, nil
	}
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func formatDest(dst uint8) string {
	if dst == protocol.AddressGlobal {
		return "broadcast"
	}
	return fmt.Sprintf("%d (0x%02x)", dst, dst)
}
