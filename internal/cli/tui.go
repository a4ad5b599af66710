package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cyclesolver/pkg/observability"
)

// Messages from the table hooks into the build model.
type (
	buildStartMsg struct {
		table   string
		entries int
	}
	buildDepthMsg struct {
		table  string
		depth  int
		filled int
	}
	buildDoneMsg struct {
		table    string
		maxDepth int
		err      error
	}
	allDoneMsg struct{ err error }
	tickMsg    time.Time
)

// buildRow is the displayed state of one table build.
type buildRow struct {
	table   string
	entries int
	depth   int
	filled  int
	done    bool
	err     error
}

// buildModel renders live pruning-table build progress.
type buildModel struct {
	rows     []buildRow
	index    map[string]int
	frame    int
	finished bool
	err      error
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func newBuildModel() buildModel {
	return buildModel{index: map[string]int{}}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m buildModel) Init() tea.Cmd {
	return tick()
}

func (m buildModel) row(table string) (buildModel, int) {
	if i, ok := m.index[table]; ok {
		return m, i
	}
	m.index[table] = len(m.rows)
	m.rows = append(m.rows, buildRow{table: table})
	return m, len(m.rows) - 1
}

func (m buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case buildStartMsg:
		var i int
		m, i = m.row(msg.table)
		m.rows[i].entries = msg.entries
	case buildDepthMsg:
		var i int
		m, i = m.row(msg.table)
		m.rows[i].depth = msg.depth
		m.rows[i].filled += msg.filled
	case buildDoneMsg:
		var i int
		m, i = m.row(msg.table)
		m.rows[i].done = true
		m.rows[i].depth = msg.maxDepth
		m.rows[i].err = msg.err
	case allDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m buildModel) View() string {
	if m.finished {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Building pruning tables"))
	b.WriteString("\n\n")
	for _, row := range m.rows {
		icon := styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
		switch {
		case row.err != nil:
			icon = styleIconError.Render(iconError)
		case row.done:
			icon = styleIconSuccess.Render(iconSuccess)
		}
		line := fmt.Sprintf("%s %-24s %s", icon, row.table,
			StyleDim.Render(fmt.Sprintf("depth %d · %d/%d entries", row.depth, row.filled, row.entries)))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// teaTableHooks forwards table build events into a running bubbletea program.
type teaTableHooks struct {
	observability.NoopTableHooks
	p *tea.Program
}

func (h teaTableHooks) OnBuildStart(_ context.Context, table string, entries int) {
	h.p.Send(buildStartMsg{table: table, entries: entries})
}

func (h teaTableHooks) OnBuildDepth(_ context.Context, table string, depth, filled int) {
	h.p.Send(buildDepthMsg{table: table, depth: depth, filled: filled})
}

func (h teaTableHooks) OnBuildComplete(_ context.Context, table string, maxDepth int, _ time.Duration, err error) {
	h.p.Send(buildDoneMsg{table: table, maxDepth: maxDepth, err: err})
}

// runWithBuildProgress runs fn while displaying live build progress.
// Table hooks are restored when the run finishes.
func runWithBuildProgress(ctx context.Context, fn func(context.Context) error) error {
	p := tea.NewProgram(newBuildModel(), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	prev := observability.Tables()
	observability.SetTableHooks(teaTableHooks{p: p})
	defer observability.SetTableHooks(prev)

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx)
		errCh <- err
		p.Send(allDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return <-errCh
}
