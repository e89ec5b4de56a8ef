package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/n2klink/gateway"
	"github.com/muurk/n2klink/internal/version"
	"github.com/muurk/n2klink/protocol"
)

// maxRows bounds the scrollback kept by the monitor.
const maxRows = 2000

// Messages for monitor events
type eventMsg struct {
	event Event
}

type feedClosedMsg struct{}

type statusTickMsg time.Time

// monitorKeyMap defines key bindings for the live monitor
type monitorKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Latest   key.Binding
	Pause    key.Binding
	Clear    key.Binding
	Filter   key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Pause, k.Filter, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Latest},
		{k.Pause, k.Filter, k.Clear, k.Quit},
	}
}

// filterKeyMap defines key bindings while editing the PGN filter
type filterKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k filterKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k filterKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Cancel},
	}
}

// MonitorModel is the live traffic monitor screen state
type MonitorModel struct {
	// Stream state
	target      string
	feed        *Feed
	stats       func() gateway.Stats
	rows        []Row
	total       int
	errCount    int
	streamEnded bool

	// View state
	paused bool
	offset int // lines scrolled back from the live tail, 0 = follow

	// PGN filter state
	filterMode  bool
	filterSet   bool
	filterPGN   uint32
	filterErr   string
	FilterInput textinput.Model

	// UI state
	Width      int
	Height     int
	Spinner    spinner.Model
	Help       help.Model
	Keys       monitorKeyMap
	FilterKeys filterKeyMap
	started    time.Time
}

// NewMonitorModel creates a monitor bound to an event feed. target names
// the connection for display; stats may be nil when no byte counters are
// available (file replay).
func NewMonitorModel(target string, feed *Feed, stats func() gateway.Stats) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	filterInput := textinput.New()
	filterInput.Placeholder = "129026 or 0x1F802"
	filterInput.CharLimit = 8
	filterInput.Width = 20

	keys := monitorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll back"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll forward"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page back"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page forward"),
		),
		Latest: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "jump to live"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter PGN"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	filterKeys := filterKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	return MonitorModel{
		target:      target,
		feed:        feed,
		stats:       stats,
		FilterInput: filterInput,
		Spinner:     s,
		Help:        help.New(),
		Keys:        keys,
		FilterKeys:  filterKeys,
		started:     time.Now(),
	}
}

// Init starts listening on the feed
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.feed),
		m.Spinner.Tick,
		statusTick(),
	)
}

// waitForEvent blocks on the feed and wraps the next event as a message
func waitForEvent(feed *Feed) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-feed.C
		if !ok {
			return feedClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// statusTick refreshes the status line once a second
func statusTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filterMode {
			return m.updateFilterMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width

	case eventMsg:
		m.total++
		if msg.event.Err != nil {
			m.errCount++
		}
		if !m.paused {
			m.rows = append(m.rows, buildRow(msg.event))
			if len(m.rows) > maxRows {
				m.rows = m.rows[len(m.rows)-maxRows:]
			}
		}
		return m, waitForEvent(m.feed)

	case feedClosedMsg:
		m.streamEnded = true

	case spinner.TickMsg:
		// The spinner only runs while waiting for the first traffic
		if m.total == 0 && !m.streamEnded {
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}

	case statusTickMsg:
		if !m.streamEnded {
			return m, statusTick()
		}
	}

	return m, nil
}

// updateNormalMode handles keyboard input outside the filter editor
func (m MonitorModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.bodyHeight()

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Pause):
		m.paused = !m.paused

	case key.Matches(msg, m.Keys.Clear):
		m.rows = nil
		m.offset = 0

	case key.Matches(msg, m.Keys.Filter):
		m.filterMode = true
		m.filterErr = ""
		if m.filterSet {
			m.FilterInput.SetValue(strconv.FormatUint(uint64(m.filterPGN), 10))
		} else {
			m.FilterInput.SetValue("")
		}
		m.FilterInput.Focus()

	case key.Matches(msg, m.Keys.Up):
		m.offset = m.clampOffset(m.offset + 1)

	case key.Matches(msg, m.Keys.Down):
		m.offset = m.clampOffset(m.offset - 1)

	case key.Matches(msg, m.Keys.PageUp):
		m.offset = m.clampOffset(m.offset + page)

	case key.Matches(msg, m.Keys.PageDown):
		m.offset = m.clampOffset(m.offset - page)

	case key.Matches(msg, m.Keys.Latest):
		m.offset = 0
	}

	return m, nil
}

// updateFilterMode handles keyboard input while editing the PGN filter
func (m MonitorModel) updateFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.FilterKeys.Cancel):
		m.filterMode = false
		m.filterErr = ""
		m.FilterInput.Blur()
		return m, nil

	case key.Matches(msg, m.FilterKeys.Confirm):
		value := strings.TrimSpace(m.FilterInput.Value())
		if value == "" {
			// Empty input clears the filter
			m.filterSet = false
			m.filterMode = false
			m.FilterInput.Blur()
			return m, nil
		}

		pgn, err := strconv.ParseUint(value, 0, 32)
		if err != nil || pgn > protocol.MaxPGN {
			m.filterErr = fmt.Sprintf("not a PGN: %q", value)
			return m, nil
		}

		m.filterPGN = uint32(pgn)
		m.filterSet = true
		m.filterMode = false
		m.filterErr = ""
		m.offset = 0
		m.FilterInput.Blur()
		return m, nil
	}

	m.FilterInput, cmd = m.FilterInput.Update(msg)
	return m, cmd
}

// visibleRows applies the PGN filter. Error rows always show, whatever
// the filter, so corruption is never hidden.
func (m MonitorModel) visibleRows() []Row {
	if !m.filterSet {
		return m.rows
	}
	filtered := make([]Row, 0, len(m.rows))
	for _, row := range m.rows {
		if row.IsError || row.PGN == m.filterPGN {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// bodyHeight returns how many row lines fit between header and footer
func (m MonitorModel) bodyHeight() int {
	height := m.Height
	if height == 0 {
		height = 24
	}
	chrome := 5 // title, divider, divider, status, help
	if m.filterMode {
		chrome++
	}
	body := height - chrome
	if body < 3 {
		body = 3
	}
	return body
}

func (m MonitorModel) clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	max := len(m.visibleRows()) - m.bodyHeight()
	if max < 0 {
		max = 0
	}
	if offset > max {
		return max
	}
	return offset
}

// View renders the monitor screen
func (m MonitorModel) View() string {
	width := m.Width
	if width == 0 {
		width = 80
	}

	sections := []string{
		m.renderTitle(width),
		RenderHorizontalDivider(width, "─"),
		m.renderBody(width),
	}
	if m.filterMode {
		sections = append(sections, m.renderFilterLine())
	}
	sections = append(sections,
		RenderHorizontalDivider(width, "─"),
		m.renderStatus(width),
		m.renderHelp(),
	)

	return strings.Join(sections, "\n")
}

// renderTitle renders the top bar with application name and target
func (m MonitorModel) renderTitle(width int) string {
	left := TitleStyle.Render("N2KLINK MONITOR") + " " +
		SubtitleStyle.Render("v"+version.Version)
	right := HeaderParamValueStyle.Render(m.target)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderBody renders the scrolling row window or the waiting spinner
func (m MonitorModel) renderBody(width int) string {
	body := m.bodyHeight()

	if m.total == 0 {
		var waiting string
		if m.streamEnded {
			waiting = SubtitleStyle.Render("Stream ended before any traffic arrived.")
		} else {
			waiting = fmt.Sprintf("%s %s", m.Spinner.View(),
				SubtitleStyle.Render("Waiting for traffic on "+m.target+"..."))
		}
		return lipgloss.Place(width, body, lipgloss.Center, lipgloss.Center, waiting)
	}

	filtered := m.visibleRows()

	offset := m.offset
	if max := len(filtered) - body; offset > max {
		if max < 0 {
			max = 0
		}
		offset = max
	}

	end := len(filtered) - offset
	start := end - body
	if start < 0 {
		start = 0
	}

	dataWidth := width - 50 // columns before the hex payload
	if dataWidth < 8 {
		dataWidth = 8
	}

	lines := make([]string, 0, body)
	for _, row := range filtered[start:end] {
		lines = append(lines, row.render(dataWidth))
	}
	for len(lines) < body {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// renderFilterLine renders the PGN filter input
func (m MonitorModel) renderFilterLine() string {
	line := "  Filter PGN: " + m.FilterInput.View()
	if m.filterErr != "" {
		line += "  " + ErrorMessageStyle.Render(m.filterErr)
	}
	return line
}

// renderStatus renders the counters line
func (m MonitorModel) renderStatus(width int) string {
	parts := []string{
		fmt.Sprintf("%d msgs", m.total-m.errCount),
		fmt.Sprintf("%d errs", m.errCount),
	}

	if dropped := m.feed.Dropped(); dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", dropped))
	}
	if m.stats != nil {
		parts = append(parts, humanBytes(m.stats().BytesReceived))
	}
	parts = append(parts, fmt.Sprintf("up %s", time.Since(m.started).Round(time.Second)))

	line := StatusBarStyle.Render("  " + strings.Join(parts, "  •  "))

	var flags []string
	if m.paused {
		flags = append(flags, PausedStyle.Render("PAUSED"))
	}
	if m.filterSet {
		flags = append(flags, RowPGNStyle.Render(fmt.Sprintf("pgn %d", m.filterPGN)))
	}
	if m.offset > 0 {
		flags = append(flags, SubtitleStyle.Render(fmt.Sprintf("scrollback %d", m.offset)))
	}
	if m.streamEnded {
		flags = append(flags, ErrorMessageStyle.Render("stream ended"))
	}

	if len(flags) > 0 {
		flagText := strings.Join(flags, " ")
		gap := width - lipgloss.Width(line) - lipgloss.Width(flagText) - 2
		if gap < 1 {
			gap = 1
		}
		line += strings.Repeat(" ", gap) + flagText
	}

	return line
}

// renderHelp renders the context-sensitive key help
func (m MonitorModel) renderHelp() string {
	if m.filterMode {
		return "  " + m.Help.View(m.FilterKeys)
	}
	return "  " + m.Help.View(m.Keys)
}

// humanBytes renders a byte count with a binary unit suffix.
func humanBytes(n uint64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// RunMonitor runs the monitor program in the alternate screen until the
// user quits.
func RunMonitor(m MonitorModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}
