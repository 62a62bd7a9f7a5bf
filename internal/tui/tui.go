// Package tui shows render progress in the terminal with Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/fluxreel/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

type State int

const (
	StateRendering State = iota
	StateCancelling
	StateComplete
	StateError
)

// RenderFunc runs one render pass, reporting delivered frames through
// progress.
type RenderFunc func(ctx context.Context, progress func(done, total int)) (engine.Report, error)

// counters are written by the render goroutine and read on ticks.
type counters struct {
	done  atomic.Int64
	total atomic.Int64
}

// Model is the Bubble Tea model for a render.
type Model struct {
	state    State
	title    string
	spinner  spinner.Model
	progress progress.Model
	render   RenderFunc
	counts   *counters

	done, total int
	start       time.Time
	report      engine.Report
	err         error

	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates a model that runs render when started.
func NewModel(ctx context.Context, title string, render RenderFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(ctx)
	return Model{
		state:    StateRendering,
		title:    title,
		spinner:  sp,
		progress: prog,
		render:   render,
		counts:   &counters{},
		start:    time.Now(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

type (
	// TickMsg polls the frame counters.
	TickMsg struct{}

	// DoneMsg is sent when the render returns.
	DoneMsg struct {
		Report engine.Report
		Err    error
	}
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRender(), m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.state == StateRendering {
				m.cancel()
				m.state = StateCancelling
				return m, nil
			}
			if m.state != StateCancelling {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if m.state == StateRendering || m.state == StateCancelling {
			m.done = int(m.counts.done.Load())
			m.total = int(m.counts.total.Load())
			cmds = append(cmds, m.progress.SetPercent(m.percent()), m.tick())
		}

	case DoneMsg:
		m.report = msg.Report
		m.done, m.total = msg.Report.Delivered, msg.Report.Frames
		m.err = msg.Err
		m.state = StateComplete
		if msg.Err != nil {
			m.state = StateError
		}
		m.cancel()
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) startRender() tea.Cmd {
	counts := m.counts
	return func() tea.Msg {
		rep, err := m.render(m.ctx, func(done, total int) {
			counts.done.Store(int64(done))
			counts.total.Store(int64(total))
		})
		return DoneMsg{Report: rep, Err: err}
	}
}

func (m Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// eta extrapolates the remaining time from the average frame rate so far.
func (m Model) eta(now time.Time) time.Duration {
	if m.done <= 0 || m.total <= m.done {
		return 0
	}
	per := now.Sub(m.start) / time.Duration(m.done)
	return (per * time.Duration(m.total-m.done)).Round(time.Second)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fluxreel · " + m.title))
	b.WriteString("\n")

	switch m.state {
	case StateComplete:
		b.WriteString(boxStyle.Render(strings.TrimRight(m.report.String(), "\n")))
	case StateError:
		msg := "render failed"
		if errors.Is(m.err, context.Canceled) {
			msg = "render cancelled"
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("[!] %s: %v", msg, m.err)))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.progress.ViewAs(m.percent()))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Frames: %d/%d | ETA: %s", m.done, m.total, m.eta(time.Now()))))
		b.WriteString("\n\n")
		if m.state == StateCancelling {
			b.WriteString(dimStyle.Render("cancelling..."))
		} else {
			b.WriteString(dimStyle.Render("esc/q: cancel"))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// Report returns the result of a finished model.
func (m Model) Report() (engine.Report, error) { return m.report, m.err }

// Run renders with a progress view and returns the render's result.
func Run(ctx context.Context, title string, render RenderFunc) (engine.Report, error) {
	p := tea.NewProgram(NewModel(ctx, title, render))
	final, err := p.Run()
	if err != nil {
		return engine.Report{}, err
	}
	return final.(Model).Report()
}
