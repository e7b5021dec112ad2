package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"smap/internal/bench"
)

// Run drives the progress model on out until events is closed.
func Run(title string, files []string, events <-chan bench.Event, out io.Writer) error {
	p := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
