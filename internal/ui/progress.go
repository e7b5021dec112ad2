// Package ui renders live benchmark progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"smap/internal/bench"
)

const (
	statusWidth  = 10
	elapsedWidth = 10
)

type progressModel struct {
	title   string
	events  <-chan bench.Event
	spinner spinner.Model
	prog    progress.Model
	rows    []fileRow
	index   map[string]int
	width   int
	done    bool
}

type fileRow struct {
	path    string
	status  string
	stage   bench.Stage
	elapsed time.Duration
	runs    int
	err     error
}

type eventMsg bench.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that follows bench events
// until the channel is closed.
func NewProgressModel(title string, files []string, events <-chan bench.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	rows := make([]fileRow, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		rows = append(rows, fileRow{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		rows:    rows,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.apply(bench.Event(msg))
		return m, tea.Batch(cmd, m.waitEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(msg.Width-4, 10)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case progress.FrameMsg:
		next, cmd := m.prog.Update(msg)
		m.prog = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-elapsedWidth-6, 20)
	for _, row := range m.rows {
		status := statusStyle(row.status).Render(fmt.Sprintf("%*s", statusWidth, row.status))
		elapsed := ""
		if row.elapsed > 0 {
			elapsed = row.elapsed.Round(time.Microsecond).String()
		}
		fmt.Fprintf(&b, "  %s %*s %s\n", status, elapsedWidth, elapsed, truncate(row.path, nameWidth))
		if row.err != nil {
			b.WriteString("    ")
			b.WriteString(statusStyle("error").Render(truncate(row.err.Error(), nameWidth)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev bench.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	row := &m.rows[idx]
	if label := statusLabel(ev.Stage, ev.Status); label != "" {
		row.status = label
	}
	row.stage = ev.Stage
	if ev.Elapsed > 0 {
		row.elapsed = ev.Elapsed
	}
	if ev.Stage == bench.StageIterate && ev.Status == bench.StatusWorking {
		row.runs++
	}
	if ev.Status == bench.StatusError {
		row.err = ev.Err
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range m.rows {
		switch row.status {
		case "done", "error":
			total++
		default:
			total += stageWeight(row.stage)
		}
	}
	return total / float64(len(m.rows))
}

func stageWeight(stage bench.Stage) float64 {
	switch stage {
	case bench.StageRead:
		return 0.1
	case bench.StageParse:
		return 0.4
	case bench.StageIterate:
		return 0.8
	case bench.StageDispose:
		return 0.95
	default:
		return 0
	}
}

func statusLabel(stage bench.Stage, status bench.Status) string {
	switch status {
	case bench.StatusQueued:
		return "queued"
	case bench.StatusDone:
		return "done"
	case bench.StatusError:
		return "error"
	case bench.StatusWorking:
		switch stage {
		case bench.StageRead:
			return "reading"
		case bench.StageParse:
			return "parsing"
		case bench.StageIterate:
			return "iterating"
		case bench.StageDispose:
			return "disposing"
		}
	}
	return ""
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
