// Package discovery locates NMEA 2000 gateways reachable from this host.
//
// Two kinds of gateway are found: USB serial adapters enumerated from
// the local device tree, and network bridges advertising themselves over
// multicast DNS (mDNS) with the "_nmea-2000._tcp" service type.
//
// # Discovery Process
//
// Network discovery works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements from gateway bridges
//  3. Collects instance information (name, IP, port, TXT metadata)
//  4. Returns the gateways seen within the timeout period
//
// Serial discovery globs the OS device tree for the node names USB
// serial adapters show up under (ttyUSB*, ttyACM*, cu.usbserial* and
// friends) and reports each as a candidate gateway. It cannot tell an
// NMEA gateway from any other USB serial device; opening the port and
// watching for valid frames is the caller's confirmation step.
//
// # Usage Example
//
//	gateways, err := discovery.ScanNetwork(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, gw := range gateways {
//	    fmt.Printf("Found: %s at %s\n", gw.Name, gw.Addr())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions
// can run simultaneously without interference.
package discovery
