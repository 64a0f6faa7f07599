package cosim

import (
	"math"
	"strconv"
	"time"
)

// TimePoint is a point in simulated time, in nanoseconds from the
// simulation epoch. It is unrelated to wall-clock time.
type TimePoint int64

func TimePointFromSeconds(s float64) TimePoint {
	return TimePoint(math.Round(s * float64(time.Second)))
}

func DurationFromSeconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func (t TimePoint) Seconds() float64 {
	return float64(t) / float64(time.Second)
}

func (t TimePoint) Add(d time.Duration) TimePoint {
	return t + TimePoint(d)
}

func (t TimePoint) Sub(u TimePoint) time.Duration {
	return time.Duration(t - u)
}

// String renders the time in seconds using fixed notation.
func (t TimePoint) String() string {
	return strconv.FormatFloat(t.Seconds(), 'f', -1, 64)
}
