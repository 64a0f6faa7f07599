// Package tui renders a live terminal view of a run.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/progress"
	"github.com/san-kum/cosimrun/internal/runner"
)

const (
	barWidth    = 36
	sparkWidth  = 36
	historySize = 512
)

type progressMsg progress.Event

type sampleMsg struct {
	t     cosim.TimePoint
	value float64
}

type doneMsg struct {
	res *runner.Result
	err error
}

type model struct {
	title  string
	column string
	begin  cosim.TimePoint
	end    cosim.TimePoint

	percent int
	current cosim.TimePoint
	history []float64

	done bool
	res  *runner.Result
	err  error
}

func newModel(title, column string, begin, end cosim.TimePoint) model {
	return model{title: title, column: column, begin: begin, end: end, current: begin}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case progressMsg:
		if msg.Percent > m.percent {
			m.percent = msg.Percent
		}
		if msg.Time > m.current {
			m.current = msg.Time
		}
	case sampleMsg:
		m.current = max(m.current, msg.t)
		m.history = append(m.history, msg.value)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
	case doneMsg:
		m.done = true
		m.res = msg.res
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.done && m.err != nil:
		statusIcon = red.Render("✕")
		statusText = red.Render("failed")
	case m.done:
		statusIcon = cyan.Render("✓")
		statusText = cyan.Render("done")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.title), statusText))

	filled := m.percent * barWidth / 100
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	timeStr := fmt.Sprintf("t=%ss/%ss", m.current, m.end)
	b.WriteString(fmt.Sprintf("   %s %s  %s\n", bar, white.Render(fmt.Sprintf("%3d%%", m.percent)), dim.Render(timeStr)))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("\n   %s %s\n", dim.Render(m.column), cyan.Render(sparkline(m.history, sparkWidth))))
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString("   " + red.Render(m.err.Error()) + "\n")
		}
		if m.res != nil {
			b.WriteString(dim.Render(fmt.Sprintf("   %d rows  %d steps  wall %s", m.res.Rows, m.res.Steps, m.res.WallTime)) + "\n")
			if m.res.RealTimeFactor > 0 {
				b.WriteString(dim.Render(fmt.Sprintf("   real time factor %.2f", m.res.RealTimeFactor)) + "\n")
			}
		}
		return b.String()
	}

	b.WriteString("\n" + dim.Render("   q hide view") + "\n")
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func repeat(s string, n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat(s, n)
}
