// Package progress reports how far a run has come through its simulated
// time interval.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"time"

	"github.com/san-kum/cosimrun/internal/cosim"
)

type Event struct {
	Percent int
	Time    cosim.TimePoint
}

type Sink interface {
	Progress(ev Event)
}

// Reporter emits an Event each time the run crosses one of a set of evenly
// spaced percentage thresholds. Reported percentages never decrease.
type Reporter struct {
	begin    cosim.TimePoint
	duration time.Duration
	steps    int
	interval int
	reached  int
	last     int
	sink     Sink
}

// New creates a Reporter with count thresholds at k*100/count percent
// between begin and begin+duration, or one threshold every resolution
// percent when resolution is positive. The last threshold is always 100.
func New(begin cosim.TimePoint, duration time.Duration, count, resolution int, sink Sink) *Reporter {
	r := &Reporter{begin: begin, duration: duration, sink: sink, steps: 1}
	switch {
	case resolution > 0:
		r.interval = min(resolution, 100)
		r.steps = (100 + r.interval - 1) / r.interval
	case count > 0:
		r.steps = min(count, 100)
	}
	return r
}

// Interval is the resolution in percent, or 0 for count based thresholds.
func (r *Reporter) Interval() int { return r.interval }
func (r *Reporter) Last() int     { return r.last }

func (r *Reporter) threshold(k int) int {
	if r.interval > 0 {
		return min(k*r.interval, 100)
	}
	return k * 100 / r.steps
}

// crossed returns how many thresholds t has reached.
func (r *Reporter) crossed(t cosim.TimePoint) int {
	elapsed := t.Sub(r.begin)
	if r.duration <= 0 || elapsed >= r.duration {
		return r.steps
	}
	if elapsed <= 0 {
		return 0
	}
	if r.interval > 0 {
		return scaled(elapsed, r.duration, 100) / r.interval
	}
	return scaled(elapsed, r.duration, r.steps)
}

// scaled is floor(elapsed*n/duration) without overflow, for
// 0 <= elapsed < duration.
func scaled(elapsed, duration time.Duration, n int) int {
	hi, lo := bits.Mul64(uint64(elapsed), uint64(n))
	q, _ := bits.Div64(hi, lo, uint64(duration))
	return int(q)
}

func (r *Reporter) Update(t cosim.TimePoint) {
	k := r.crossed(t)
	if k <= r.reached {
		return
	}
	r.reached = k
	r.last = r.threshold(k)
	if r.sink != nil {
		r.sink.Progress(Event{Percent: r.last, Time: t})
	}
}

// LogSink writes human readable progress to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Progress(ev Event) {
	s.Logger.Info(fmt.Sprintf("%d%% complete", ev.Percent), "t", ev.Time.String())
}

// MachineSink writes one "progress: N%" line per event.
type MachineSink struct {
	W io.Writer
}

func (s MachineSink) Progress(ev Event) {
	fmt.Fprintf(s.W, "progress: %d%%\n", ev.Percent)
}

// Multi fans events out to several sinks.
type Multi []Sink

func (m Multi) Progress(ev Event) {
	for _, s := range m {
		s.Progress(ev)
	}
}
