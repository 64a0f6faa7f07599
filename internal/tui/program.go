package tui

import (
	"fmt"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/progress"
	"github.com/san-kum/cosimrun/internal/recorder"
	"github.com/san-kum/cosimrun/internal/runner"
)

// Sink forwards progress events to a running program.
type Sink struct {
	p *tea.Program
}

func (s Sink) Progress(ev progress.Event) {
	s.p.Send(progressMsg(ev))
}

// Sampler forwards the first real column of every recorded row.
type Sampler struct {
	p *tea.Program
}

func (s Sampler) OnRecord(t cosim.TimePoint, values *cosim.VariableValues) {
	if len(values.Real.Values) == 0 {
		return
	}
	v := values.Real.Values[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.p.Send(sampleMsg{t: t, value: v})
}

var (
	_ progress.Sink     = Sink{}
	_ recorder.Observer = Sampler{}
)

// RunFunc performs a run, reporting through the given sink and observer.
type RunFunc func(sink progress.Sink, obs recorder.Observer) (*runner.Result, error)

// Run shows the progress view while run executes on its own goroutine.
// Closing the view early does not interrupt the run.
func Run(title, column string, begin, end cosim.TimePoint, run RunFunc) (*runner.Result, error) {
	p := tea.NewProgram(newModel(title, column, begin, end))

	done := make(chan doneMsg, 1)
	go func() {
		res, err := run(Sink{p: p}, Sampler{p: p})
		msg := doneMsg{res: res, err: err}
		done <- msg
		p.Send(msg)
	}()

	_, viewErr := p.Run()
	msg := <-done
	if msg.err == nil && viewErr != nil {
		return msg.res, fmt.Errorf("progress view: %w", viewErr)
	}
	return msg.res, msg.err
}
