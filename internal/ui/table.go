package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/n2klink/discovery"
	"github.com/muurk/n2klink/internal/config"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Bold(true)

	gatewayNameStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	gatewayKindStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor)

	gatewayFieldStyle = lipgloss.NewStyle().
				Foreground(MutedColor)
)

// RenderGatewayList renders discovered gateways as numbered entries with
// their connection details and any mDNS metadata.
func RenderGatewayList(gateways []*discovery.Gateway) string {
	var b strings.Builder

	for i, gw := range gateways {
		name := gatewayNameStyle.Render(gw.Name)
		kind := gatewayKindStyle.Render("[" + string(gw.Kind) + "]")
		b.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, name, kind))

		label := "Address"
		if gw.Kind == discovery.KindSerial {
			label = "Device"
		}
		b.WriteString(fmt.Sprintf("   %s %s\n",
			gatewayFieldStyle.Render(label+":"), gw.Addr()))

		if len(gw.Metadata) > 0 {
			keys := make([]string, 0, len(gw.Metadata))
			for key := range gw.Metadata {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				b.WriteString(fmt.Sprintf("   %s %s\n",
					gatewayFieldStyle.Render(key+":"), gw.Metadata[key]))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderProfileTable renders the saved gateway profiles as an aligned table.
// The default profile is marked with an asterisk.
func RenderProfileTable(reg *config.Registry) string {
	names := reg.ProfileNames()
	if len(names) == 0 {
		return SubtitleStyle.Render("  No profiles saved. Use 'n2klink-cfg profile add' to create one.") + "\n"
	}

	defaultName := ""
	if reg.Preferences != nil {
		defaultName = reg.Preferences.DefaultProfile
	}

	// Column widths driven by content
	targets := make(map[string]string, len(names))
	nameWidth := len("NAME")
	targetWidth := len("TARGET")
	for _, name := range names {
		profile := reg.Gateways[name]

		target := profile.Target()
		if profile.Transport == config.TransportSerial && profile.Baud != 0 {
			target = fmt.Sprintf("%s @%d", profile.Device, profile.Baud)
		}
		targets[name] = target

		if w := len(name) + 2; w > nameWidth { // room for the default marker
			nameWidth = w
		}
		if w := len(target); w > targetWidth {
			targetWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("  %-*s  %-9s  %-*s  %-9s  %s",
		nameWidth, "NAME", "TRANSPORT", targetWidth, "TARGET", "LAST SEEN", "NOTES")))
	b.WriteString("\n")

	for _, name := range names {
		profile := reg.Gateways[name]

		marker := "  "
		if name == defaultName {
			marker = "* "
		}

		b.WriteString(fmt.Sprintf("  %s%-*s  %-9s  %-*s  %-9s  %s\n",
			marker, nameWidth-2, name, profile.Transport,
			targetWidth, targets[name], formatAge(profile.LastSeen), profile.Notes))
	}

	if defaultName != "" {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("  * default profile"))
		b.WriteString("\n")
	}

	return b.String()
}

// formatAge renders a timestamp as a coarse age like "3d" or "5m".
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
