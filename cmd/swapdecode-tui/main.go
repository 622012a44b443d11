// Command swapdecode-tui renders a live-scrolling table of decoded swaps
// read as newline-delimited JSON from stdin, e.g.:
//
//	swapdecode-fetch -slot 123456789 | jq -c '.swaps[]' | swapdecode-tui
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/solswap-labs/meteora-decode/swapdecode"
)

const maxRows = 200

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var columns = []table.Column{
	{Title: "SLOT", Width: 10},
	{Title: "PLATFORM", Width: 14},
	{Title: "SIDE", Width: 6},
	{Title: "BASE AMT", Width: 14},
	{Title: "QUOTE AMT", Width: 14},
	{Title: "POOL", Width: 24},
}

type eventMsg swapdecode.SwapEvent
type eofMsg struct{}
type errMsg struct{ err error }

type model struct {
	tbl    table.Model
	events []swapdecode.SwapEvent
	lines  *bufio.Scanner
	done   bool
	err    error
}

func newModel(r io.Reader) model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	t.SetStyles(st)

	return model{tbl: t, lines: bufio.NewScanner(r)}
}

func readNext(lines *bufio.Scanner) tea.Cmd {
	return func() tea.Msg {
		for lines.Scan() {
			line := strings.TrimSpace(lines.Text())
			if line == "" {
				continue
			}
			var ev swapdecode.SwapEvent
			if err := json.Unmarshal([]byte(line), &ev); err != nil {
				return errMsg{err}
			}
			return eventMsg(ev)
		}
		if err := lines.Err(); err != nil {
			return errMsg{err}
		}
		return eofMsg{}
	}
}

func (m model) Init() tea.Cmd {
	return readNext(m.lines)
}

func rowFor(ev swapdecode.SwapEvent) table.Row {
	pool := ev.Pool
	if len(pool) > 24 {
		pool = pool[:23] + "…"
	}
	return table.Row{
		strconv.FormatUint(ev.Slot, 10),
		string(ev.Platform),
		string(ev.Side),
		strconv.FormatUint(ev.BaseAmount, 10),
		strconv.FormatUint(ev.QuoteAmount, 10),
		pool,
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.tbl.SetWidth(msg.Width)
		m.tbl.SetHeight(msg.Height - 3)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	case eventMsg:
		m.events = append(m.events, swapdecode.SwapEvent(msg))
		if len(m.events) > maxRows {
			m.events = m.events[len(m.events)-maxRows:]
		}
		rows := make([]table.Row, len(m.events))
		for i, ev := range m.events {
			rows[i] = rowFor(ev)
		}
		m.tbl.SetRows(rows)
		m.tbl.GotoBottom()
		return m, readNext(m.lines)
	case eofMsg:
		m.done = true
		return m, nil
	case errMsg:
		m.err = msg.err
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(" swapdecode — %d swaps seen ", len(m.events))))
	b.WriteString("\n")
	b.WriteString(m.tbl.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(dimStyle.Render(fmt.Sprintf("stream error: %v (press q to quit)", m.err)))
	case m.done:
		b.WriteString(dimStyle.Render("— end of stream, press q to quit —"))
	default:
		b.WriteString(dimStyle.Render("↑/↓ to scroll, q to quit"))
	}
	return b.String()
}

func main() {
	p := tea.NewProgram(newModel(os.Stdin))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "swapdecode-tui:", err)
		os.Exit(1)
	}
}
