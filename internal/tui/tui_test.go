package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/fluxreel/internal/engine"
)

func TestModelProgress(t *testing.T) {
	render := func(ctx context.Context, progress func(done, total int)) (engine.Report, error) {
		progress(5, 10)
		return engine.Report{Frames: 10, Delivered: 10, Workers: 2, Elapsed: time.Second}, nil
	}
	m := NewModel(context.Background(), "demo.yaml", render)

	msg := m.startRender()()
	done, ok := msg.(DoneMsg)
	if !ok {
		t.Fatalf("startRender returned %T", msg)
	}

	next, _ := m.Update(TickMsg{})
	m = next.(Model)
	if m.done != 5 || m.total != 10 {
		t.Errorf("counters = %d/%d", m.done, m.total)
	}
	if v := m.View(); !strings.Contains(v, "Frames: 5/10") {
		t.Errorf("view = %q", v)
	}

	next, cmd := m.Update(done)
	m = next.(Model)
	if m.state != StateComplete || cmd == nil {
		t.Fatalf("state = %v, cmd = %v", m.state, cmd)
	}
	if v := m.View(); !strings.Contains(v, "PERFORMANCE REPORT") {
		t.Errorf("complete view = %q", v)
	}
	if rep, err := m.Report(); err != nil || rep.Delivered != 10 {
		t.Errorf("report = %+v, %v", rep, err)
	}
}

func TestModelCancel(t *testing.T) {
	m := NewModel(context.Background(), "x", func(ctx context.Context, _ func(int, int)) (engine.Report, error) {
		<-ctx.Done()
		return engine.Report{}, ctx.Err()
	})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.state != StateCancelling {
		t.Fatalf("state = %v", m.state)
	}
	if m.ctx.Err() == nil {
		t.Fatal("render context should be cancelled")
	}

	next, _ = m.Update(m.startRender()())
	m = next.(Model)
	if m.state != StateError || !errors.Is(m.err, context.Canceled) {
		t.Errorf("state = %v, err = %v", m.state, m.err)
	}
	if v := m.View(); !strings.Contains(v, "render cancelled") {
		t.Errorf("view = %q", v)
	}
}

func TestETA(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := Model{start: start, done: 25, total: 100}
	if got := m.eta(start.Add(10 * time.Second)); got != 30*time.Second {
		t.Errorf("eta = %v", got)
	}
	m.done = 0
	if got := m.eta(start.Add(time.Second)); got != 0 {
		t.Errorf("eta with no frames = %v", got)
	}
}

func TestWindowResize(t *testing.T) {
	m := NewModel(context.Background(), "x", nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	if w := next.(Model).progress.Width; w != 80 {
		t.Errorf("width = %d", w)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 10, Height: 40})
	if w := next.(Model).progress.Width; w != 20 {
		t.Errorf("width = %d", w)
	}
}
