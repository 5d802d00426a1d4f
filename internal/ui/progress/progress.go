// Package progress renders a terminal progress bar over a batch conversion,
// the interactive counterpart to the default per-file log lines.
package progress

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jpslite/internal/core/convert"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

type progressMsg convert.ProgressEvent

type doneMsg struct {
	err error
}

type model struct {
	bar      progress.Model
	current  string
	done     int
	total    int
	failures []string
	finished bool
	aborted  bool
	err      error
}

func newModel() model {
	return model{
		bar: progress.New(progress.WithDefaultGradient()),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.aborted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 72 {
			m.bar.Width = 72
		}
	case progressMsg:
		m.done = msg.Index
		m.total = msg.Total
		m.current = fmt.Sprintf("%s -> %s", filepath.Base(msg.Input), filepath.Base(msg.Output))
		if msg.Err != nil {
			m.failures = append(m.failures, fmt.Sprintf("%s: %v", msg.Input, msg.Err))
		}
		return m, m.bar.SetPercent(float64(msg.Index) / float64(msg.Total))
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Sequence(m.bar.SetPercent(1), tea.Quit)
	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Converting trajectory files"))
	sb.WriteString("\n\n  ")
	sb.WriteString(m.bar.View())
	sb.WriteString(fmt.Sprintf("  %d/%d\n", m.done, m.total))
	if m.current != "" {
		sb.WriteString("  " + fileStyle.Render(m.current) + "\n")
	}
	for _, f := range m.failures {
		sb.WriteString("  " + errorStyle.Render("✗ "+f) + "\n")
	}
	if m.finished && len(m.failures) == 0 {
		sb.WriteString("\n  " + successStyle.Render("✓ Finished converting files") + "\n")
	}
	return sb.String()
}

// Run executes the batch under a progress bar and returns the conversion
// results once the bar has drained. Quitting the bar early cancels the batch
// and reports an error instead of pretending the run completed.
func Run(ctx context.Context, c *convert.Converter) ([]convert.Result, error) {
	return run(ctx, c, tea.NewProgram(newModel()))
}

func run(ctx context.Context, c *convert.Converter, p *tea.Program) ([]convert.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results []convert.Result
		runErr  error
	)
	batchDone := make(chan struct{})
	go func() {
		defer close(batchDone)
		results, runErr = c.Run(ctx, func(ev convert.ProgressEvent) {
			p.Send(progressMsg(ev))
		})
		p.Send(doneMsg{err: runErr})
	}()

	final, err := p.Run()
	// Stop the batch before touching results: the goroutine still owns them
	// until batchDone closes.
	cancel()
	<-batchDone

	if err != nil {
		return results, err
	}
	if m, ok := final.(model); ok && m.aborted {
		return results, fmt.Errorf("batch aborted after %d of %d conversions", m.done, m.total)
	}
	return results, runErr
}
