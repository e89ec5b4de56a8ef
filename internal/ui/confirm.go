package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prompts the user with a yes/no question and returns true only
// when the answer starts with y or Y. Any read error counts as a no.
func Confirm(prompt string) bool {
	promptStyle := lipgloss.NewStyle().Foreground(TextColor).Bold(true)
	fmt.Print(promptStyle.Render(prompt + " [y/N]: "))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}

// ConfirmBusTransmission displays a warning box and prompts before a frame
// is transmitted onto a live NMEA 2000 network. Returns true if the user
// confirmed, false otherwise.
func ConfirmBusTransmission(target string, description string) bool {
	width := GetTerminalWidth()
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   %s  WARNING  ─  LIVE BUS TRANSMISSION", WarningMarker))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	lines = append(lines, bulletStyle.Render("   • This will transmit onto the NMEA 2000 bus via "+target))
	lines = append(lines, bulletStyle.Render("   • Message: "+description))
	lines = append(lines, bulletStyle.Render("   • Other instruments on the network will see this message"))
	lines = append(lines, "")

	disclaimerStyle := lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true).
		Width(width - 12).
		PaddingLeft(3)
	lines = append(lines, disclaimerStyle.Render(
		"Transmitting malformed or misleading data on a vessel network can "+
			"affect navigation displays and autopilots. Only proceed on a bench "+
			"network or when you know what the message does."))
	lines = append(lines, "")

	content := strings.Join(lines, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(content)

	fmt.Println(box)
	fmt.Println()

	if Confirm("Transmit this message") {
		fmt.Println()
		return true
	}

	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	fmt.Println()
	fmt.Println(cancelStyle.Render("  Transmission cancelled."))
	fmt.Println()
	return false
}
