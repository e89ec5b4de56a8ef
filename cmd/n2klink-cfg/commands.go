package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/n2klink/discovery"
	"github.com/muurk/n2klink/internal/config"
	"github.com/muurk/n2klink/internal/logging"
	"github.com/muurk/n2klink/internal/ui"
	"github.com/muurk/n2klink/transport"
)

// Command flags
var (
	logLevel    string
	scanTimeout int
	addSerial   string
	addBaud     int
	addTCP      string
	addWS       string
	addNotes    string
	addDefault  bool
	removeYes   bool
	initForce   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	scanCmd.AddCommand(scanSerialCmd)
	scanCmd.AddCommand(scanNetCmd)

	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileDefaultCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(initCmd)
}

// scanCmd groups the discovery commands
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for NMEA 2000 gateways",
	Long: `Scan for NGT-1 style gateways on serial ports or the local network.

Use 'scan serial' for USB gateways and 'scan net' for ethernet and WiFi
gateways that announce themselves over mDNS.`,
}

// scanSerialCmd lists serial port gateway candidates
var scanSerialCmd = &cobra.Command{
	Use:   "serial",
	Short: "List serial ports that look like gateways",
	Long: `List local serial devices matching the patterns NGT-1 style USB
gateways show up under (ttyUSB/ttyACM on Linux, cu.usbserial on macOS,
COM ports on Windows).

The scan is purely a directory listing; it does not open or probe any
port, so it is safe to run while another program holds the gateway.`,
	Example: `  # List candidate serial gateways
  n2klink-cfg scan serial`,
	RunE: runScanSerial,
}

func runScanSerial(cmd *cobra.Command, args []string) error {
	initLogging()

	gateways := discovery.ScanSerial()

	if len(gateways) == 0 {
		fmt.Println("No serial gateway candidates found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check the gateway's USB cable is connected")
		fmt.Println("  - On Linux, verify your user is in the dialout group")
		fmt.Println("  - The FTDI driver may take a moment to create the device node")
		return nil
	}

	fmt.Printf("Found %d candidate(s):\n\n", len(gateways))
	fmt.Println(ui.RenderGatewayList(gateways))
	fmt.Println("Use 'n2klink-cfg profile add <name> --serial <device>' to save one")
	fmt.Println("Use 'n2klink-mon watch --device <device>' to try one directly")

	return nil
}

// scanNetCmd discovers network gateways via mDNS
var scanNetCmd = &cobra.Command{
	Use:   "net",
	Short: "Scan the local network for gateways",
	Long: `Scan for network gateways using mDNS/DNS-SD discovery.

This listens for service announcements from ethernet and WiFi gateways
(W2K-1 style) and displays each with its address and metadata.`,
	Example: `  # Scan for 10 seconds (default)
  n2klink-cfg scan net

  # Quick 3-second scan
  n2klink-cfg scan net --timeout 3`,
	RunE: runScanNet,
}

func init() {
	scanNetCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScanNet(cmd *cobra.Command, args []string) error {
	initLogging()

	fmt.Printf("Scanning for network gateways (timeout: %ds)...\n\n", scanTimeout)

	gateways, err := discovery.ScanNetwork(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(gateways) == 0 {
		fmt.Println("No gateways found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the gateway is powered and on this network segment")
		fmt.Println("  - mDNS does not cross most routers; connect to the same subnet")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Gateways without mDNS can still be added with 'profile add --tcp'")
		return nil
	}

	fmt.Printf("Found %d gateway(s):\n\n", len(gateways))
	fmt.Println(ui.RenderGatewayList(gateways))
	fmt.Println("Use 'n2klink-cfg profile add <name> --tcp <addr>' to save one")

	return nil
}

// profileCmd groups the registry commands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage gateway connection profiles",
	Long: `Manage the named connection profiles stored in the config file.

Profiles give gateways stable names, so 'n2klink-mon --profile helm'
works wherever the boat's network puts the gateway today.`,
}

// profileAddCmd saves a new profile
var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a gateway profile",
	Long: `Add a named gateway profile to the registry.

Exactly one transport must be given: --serial for a local device path,
--tcp for a raw socket address, or --ws for a WebSocket URL. Adding a
profile with an existing name replaces it.`,
	Example: `  # USB gateway on the default baud rate
  n2klink-cfg profile add usb --serial /dev/ttyUSB0

  # Ethernet gateway, made the default
  n2klink-cfg profile add helm --tcp 192.168.1.100:60001 --default

  # WebSocket gateway with a note
  n2klink-cfg profile add wifi --ws ws://192.168.4.1:8080/n2k --notes "flybridge AP"`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileAdd,
}

func init() {
	profileAddCmd.Flags().StringVar(&addSerial, "serial", "", "Serial device path (e.g. /dev/ttyUSB0)")
	profileAddCmd.Flags().IntVar(&addBaud, "baud", transport.DefaultBaud, "Serial baud rate")
	profileAddCmd.Flags().StringVar(&addTCP, "tcp", "", "TCP gateway address (host:port)")
	profileAddCmd.Flags().StringVar(&addWS, "ws", "", "WebSocket gateway URL")
	profileAddCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form note shown in profile list")
	profileAddCmd.Flags().BoolVar(&addDefault, "default", false, "Make this the default profile")
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	initLogging()
	name := args[0]

	selectors := 0
	for _, v := range []string{addSerial, addTCP, addWS} {
		if v != "" {
			selectors++
		}
	}
	if selectors != 1 {
		return errors.New("exactly one of --serial, --tcp or --ws is required")
	}

	profile := &config.Profile{Notes: addNotes}
	switch {
	case addSerial != "":
		profile.Transport = config.TransportSerial
		profile.Device = addSerial
		profile.Baud = addBaud
	case addTCP != "":
		profile.Transport = config.TransportTCP
		profile.Addr = addTCP
	case addWS != "":
		profile.Transport = config.TransportWS
		profile.Addr = addWS
	}

	if err := profile.Validate(); err != nil {
		return err
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	replaced := reg.GetProfile(name) != nil
	reg.SetProfile(name, profile)
	if addDefault {
		reg.Preferences.DefaultProfile = name
	}

	if err := reg.Save(); err != nil {
		return err
	}

	title := "Profile Added"
	if replaced {
		title = "Profile Replaced"
	}
	details := map[string]string{
		"Name":      name,
		"Transport": profile.Transport,
		"Target":    profile.Target(),
	}
	if addDefault {
		details["Default"] = "yes"
	}
	ui.NewPrinter(nil).PrintSuccess(title, details)
	return nil
}

// profileListCmd shows the registry contents
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured gateway profiles",
	Example: `  # Show all profiles
  n2klink-cfg profile list
  # Or simply (list is default):
  n2klink-cfg`,
	RunE: runProfileList,
}

func runProfileList(cmd *cobra.Command, args []string) error {
	initLogging()

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	fmt.Println(ui.RenderProfileTable(reg))
	return nil
}

// profileRemoveCmd deletes a profile
var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a gateway profile",
	Example: `  # Remove with confirmation
  n2klink-cfg profile remove old-boat

  # Remove without prompting
  n2klink-cfg profile remove old-boat --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileRemove,
}

func init() {
	profileRemoveCmd.Flags().BoolVar(&removeYes, "yes", false, "Skip the confirmation prompt")
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	initLogging()
	name := args[0]

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	profile := reg.GetProfile(name)
	if profile == nil {
		return fmt.Errorf("profile %q not found", name)
	}

	if !removeYes {
		if !ui.Confirm(fmt.Sprintf("Remove profile %q (%s)", name, profile.Target())) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	reg.RemoveProfile(name)
	if err := reg.Save(); err != nil {
		return err
	}

	ui.NewPrinter(nil).PrintSuccess("Profile Removed", map[string]string{"Name": name})
	return nil
}

// profileDefaultCmd selects the default profile
var profileDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default gateway profile",
	Long: `Set the profile n2klink-mon connects to when no flags are given.`,
	Example: `  # Make "helm" the default gateway
  n2klink-cfg profile default helm`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileDefault,
}

func runProfileDefault(cmd *cobra.Command, args []string) error {
	initLogging()
	name := args[0]

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	if reg.GetProfile(name) == nil {
		return fmt.Errorf("profile %q not found (see 'n2klink-cfg profile list')", name)
	}

	reg.Preferences.DefaultProfile = name
	if err := reg.Save(); err != nil {
		return err
	}

	fmt.Printf("Default profile set to %q\n", name)
	return nil
}

// initCmd writes a starter config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file with example profiles",
	Long: `Create the config file with commented example profiles.

The examples show the serial and TCP profile shapes; edit them to match
your gateway or replace them with 'profile add'.`,
	Example: `  # Create the starter config
  n2klink-cfg init

  # Overwrite an existing config
  n2klink-cfg init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	initLogging()

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		ui.NewPrinter(nil).PrintWarning("Config Already Exists", map[string]string{
			"Path": path,
			"Hint": "pass --force to overwrite it",
		})
		return nil
	}

	if err := config.CreateDefaultConfig(); err != nil {
		return err
	}

	ui.NewPrinter(nil).PrintSuccess("Config Created", map[string]string{"Path": path})
	return nil
}

// initLogging is silent unless --log-level or N2KLINK_LOG_LEVEL is set
func initLogging() {
	if err := logging.Initialize(logLevel); err != nil {
		_ = err
	}
}
