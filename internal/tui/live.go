// Package tui is a bubbletea viewer that pulls a lazily produced solution
// one tick at a time.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/session"
	"github.com/san-kum/rkode/internal/viz"
)

const (
	historyCapacity = 600
	maxSpeed        = 256
	tickInterval    = 16 * time.Millisecond
)

// Source is the pull side of a session pass.
type Source interface {
	Next() (ode.Sample[[]float64], bool)
	Stats() session.Stats
}

// Options labels the view and fixes the time window for the progress bar.
type Options struct {
	Problem  string
	Method   string
	TInitial float64
	TFinal   float64
	Labels   []string
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type Model struct {
	src  Source
	opts Options

	history   []ode.Sample[[]float64]
	stepSizes []float64
	pulled    int

	paused bool
	done   bool
	speed  int

	width, height int
}

func New(src Source, opts Options) Model {
	return Model{
		src:       src,
		opts:      opts,
		history:   make([]ode.Sample[[]float64], 0, historyCapacity),
		stepSizes: make([]float64, 0, historyCapacity),
		speed:     1,
		width:     80,
		height:    24,
	}
}

// Run blocks until the viewer quits.
func Run(src Source, opts Options) error {
	_, err := tea.NewProgram(New(src, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			m.pull(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "space":
		m.paused = !m.paused
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-":
		m.speed = max(m.speed/2, 1)
	case "n":
		if m.paused {
			m.pull(1)
		}
	}
	return m, nil
}

// pull appends up to n samples and marks the model done once the source
// runs out.
func (m *Model) pull(n int) {
	for range n {
		s, ok := m.src.Next()
		if !ok {
			m.done = true
			return
		}
		m.pulled++
		m.history = appendBounded(m.history, s)
		m.stepSizes = appendBounded(m.stepSizes, s.StepSize)
	}
}

func appendBounded[T any](xs []T, v T) []T {
	if len(xs) < historyCapacity {
		return append(xs, v)
	}
	out := make([]T, historyCapacity)
	copy(out, xs[1:])
	out[historyCapacity-1] = v
	return out
}

// Pulled is the number of samples consumed so far.
func (m Model) Pulled() int { return m.pulled }

func (m Model) Done() bool { return m.done }

func (m Model) Paused() bool { return m.paused }

func (m Model) Speed() int { return m.speed }

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(viz.Title.Render(fmt.Sprintf("%s  ·  %s", m.opts.Problem, m.opts.Method)))
	b.WriteString("  ")
	b.WriteString(m.status())
	b.WriteString("\n\n")

	if len(m.history) == 0 {
		b.WriteString(viz.Subtle.Render("waiting for the first sample"))
		b.WriteString("\n")
		b.WriteString(m.hints())
		return b.String()
	}

	last := m.history[len(m.history)-1]
	b.WriteString(viz.ProgressBar(m.progress(last.T), 40))
	b.WriteString(fmt.Sprintf("  t=%.4f / %.4f\n\n", last.T, m.opts.TFinal))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.statePanel(last), "  ", m.phasePanel()))
	b.WriteString("\n")

	states := make([][]float64, len(m.history))
	for i, s := range m.history {
		states[i] = s.Y
	}
	if chart, err := viz.PlotComponents(states, []int{0}, viz.PlotOptions{
		Width: min(max(m.width-12, 20), 100), Height: 8, Caption: m.label(0) + " over recent samples",
	}); err == nil {
		b.WriteString(chart)
		b.WriteString("\n")
	}

	b.WriteString(viz.MetricLabel.Render("step size"))
	b.WriteString(viz.SparklineChart(m.stepSizes[1:], 60))
	b.WriteString("\n")
	b.WriteString(m.hints())
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.done:
		return viz.StatusPaused.Render("DONE")
	case m.paused:
		return viz.StatusPaused.Render("PAUSED")
	default:
		return viz.StatusRunning.Render(fmt.Sprintf("RUNNING x%d", m.speed))
	}
}

func (m Model) progress(t float64) float64 {
	span := m.opts.TFinal - m.opts.TInitial
	if span <= 0 {
		return 1
	}
	return (t - m.opts.TInitial) / span
}

func (m Model) label(i int) string {
	if i < len(m.opts.Labels) {
		return m.opts.Labels[i]
	}
	return fmt.Sprintf("y%d", i)
}

func (m Model) statePanel(last ode.Sample[[]float64]) string {
	fields := make([]viz.Field, 0, len(last.Y)+5)
	for i, v := range last.Y {
		fields = append(fields, viz.Field{Label: m.label(i), Value: fmt.Sprintf("% .6g", v)})
	}

	stats := m.src.Stats()
	fields = append(fields,
		viz.Field{Label: "step size", Value: fmt.Sprintf("%.4g", last.StepSize)},
		viz.Field{Label: "steps", Value: fmt.Sprint(stats.Steps)},
		viz.Field{Label: "evaluations", Value: fmt.Sprint(stats.Evaluations)},
	)
	if last.Adaptive != nil {
		fields = append(fields,
			viz.Field{Label: "step error", Value: fmt.Sprintf("%.3g", last.Adaptive.StepError)},
			viz.Field{Label: "rejected", Value: fmt.Sprint(stats.AccumulatedAttempts)},
		)
	}
	if stats.AccuracyWarnings > 0 {
		fields = append(fields, viz.Field{
			Label: "warnings",
			Value: viz.StatusWarning.Render(fmt.Sprint(stats.AccuracyWarnings)),
		})
	}
	return viz.Summary("state", fields)
}

func (m Model) phasePanel() string {
	if len(m.history[0].Y) < 2 {
		return ""
	}
	xs := make([]float64, len(m.history))
	ys := make([]float64, len(m.history))
	for i, s := range m.history {
		xs[i], ys[i] = s.Y[0], s.Y[1]
	}
	canvas := viz.PhasePortrait(xs, ys, 32, 10)
	return viz.Panel.Render(viz.Subtle.Render(m.label(0)+" vs "+m.label(1)) + "\n" + canvas.String())
}

func (m Model) hints() string {
	return viz.KeyHint.Render("space pause · n step · +/- speed · q quit")
}
