//go:build ignore

// Analyze-capture summarizes an n2klink capture file.
//
// It walks every record, decodes the frame bodies and prints traffic
// statistics: which PGNs were seen, how often, from which sources, and
// what went wrong. Useful for sizing a capture before replaying it and
// for spotting gateways that emit malformed frames.
//
// Usage:
//
//	go run tools/analyze-capture.go <capture-file>
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/muurk/n2klink/capture"
	"github.com/muurk/n2klink/protocol"
)

type pgnStats struct {
	pgn     uint32
	count   int
	bytes   int
	minLen  int
	maxLen  int
	sources map[byte]int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-capture <capture-file>")
		fmt.Println("Example: analyze-capture sea-trial.n2kcap")
		os.Exit(1)
	}

	filename := os.Args[1]
	reader, err := capture.Open(filename)
	if err != nil {
		fmt.Printf("Error opening capture: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	var (
		records    int
		first      time.Time
		last       time.Time
		typeCounts = make(map[byte]int)
		perPGN     = make(map[uint32]*pgnStats)
		failures   []string
	)

	for {
		rec, err := reader.Next()
		if err != nil {
			break
		}
		records++

		if first.IsZero() {
			first = rec.Time
		}
		last = rec.Time

		msg, err := protocol.ParseMessage(rec.Frame)
		if err != nil {
			if len(failures) < 20 {
				failures = append(failures, fmt.Sprintf("record %d: %v", records, err))
			}
			continue
		}

		typeCounts[msg.Type()]++
		recordPGN(perPGN, msg)
	}

	fmt.Printf("=== n2klink Capture Analyzer ===\n")
	fmt.Printf("File:     %s\n", filename)
	fmt.Printf("Records:  %d\n", records)

	if span := last.Sub(first); span > 0 {
		fmt.Printf("Span:     %s (%.1f msg/s)\n", span.Round(time.Millisecond),
			float64(records)/span.Seconds())
	}
	fmt.Println()

	printTypeCounts(typeCounts)
	printPGNTable(perPGN)

	if len(failures) > 0 {
		fmt.Printf("Decode failures (first %d):\n", len(failures))
		for _, f := range failures {
			fmt.Printf("  %s\n", f)
		}
		fmt.Println()
	}
}

// recordPGN folds one message into the per-PGN counters.
func recordPGN(perPGN map[uint32]*pgnStats, msg protocol.Message) {
	stats, ok := perPGN[msg.PGN()]
	if !ok {
		stats = &pgnStats{pgn: msg.PGN(), minLen: -1, sources: make(map[byte]int)}
		perPGN[msg.PGN()] = stats
	}

	var data []byte
	source := -1
	switch m := msg.(type) {
	case *protocol.N2KReceiveMessage:
		data = m.Data
	case *protocol.N2KSendMessage:
		data = m.Data
	case *protocol.CANFrameMessage:
		data = m.Data
		source = int(m.Source)
	case *protocol.N2KDataMessage:
		data = m.Data
		source = int(m.Source)
	}

	stats.count++
	stats.bytes += len(data)
	if stats.minLen < 0 || len(data) < stats.minLen {
		stats.minLen = len(data)
	}
	if len(data) > stats.maxLen {
		stats.maxLen = len(data)
	}
	if source >= 0 {
		stats.sources[byte(source)]++
	}
}

func printTypeCounts(typeCounts map[byte]int) {
	if len(typeCounts) == 0 {
		return
	}

	types := make([]byte, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	fmt.Println("Message types:")
	for _, t := range types {
		fmt.Printf("  0x%02x %-12s %d\n", t, protocol.GetMessageTypeName(t), typeCounts[t])
	}
	fmt.Println()
}

func printPGNTable(perPGN map[uint32]*pgnStats) {
	if len(perPGN) == 0 {
		return
	}

	all := make([]*pgnStats, 0, len(perPGN))
	for _, s := range perPGN {
		all = append(all, s)
	}
	// Busiest PGNs first
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].pgn < all[j].pgn
	})

	fmt.Println("PGN traffic (busiest first):")
	fmt.Println("PGN     Count   Bytes     Payload    Sources")
	fmt.Println("------  ------  --------  ---------  -------------------------")

	for _, s := range all {
		payload := fmt.Sprintf("%d-%d", s.minLen, s.maxLen)
		if s.minLen == s.maxLen {
			payload = fmt.Sprintf("%d", s.minLen)
		}
		fmt.Printf("%6d  %6d  %8d  %-9s  %s\n",
			s.pgn, s.count, s.bytes, payload, formatSources(s.sources))
	}
	fmt.Println()
}

// formatSources renders source addresses with counts, busiest first.
func formatSources(sources map[byte]int) string {
	if len(sources) == 0 {
		return "-"
	}

	addrs := make([]byte, 0, len(sources))
	for a := range sources {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		if sources[addrs[i]] != sources[addrs[j]] {
			return sources[addrs[i]] > sources[addrs[j]]
		}
		return addrs[i] < addrs[j]
	})

	out := ""
	for i, a := range addrs {
		if i > 0 {
			out += " "
		}
		if i == 4 && len(addrs) > 5 {
			out += fmt.Sprintf("+%d more", len(addrs)-4)
			break
		}
		out += fmt.Sprintf("0x%02x(%d)", a, sources[a])
	}
	return out
}
