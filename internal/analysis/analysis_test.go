package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func sine(freq, dt float64, n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * freq * float64(i) * dt)
	}
	return data
}

func TestFFT_PadsToPowerOfTwo(t *testing.T) {
	if got := len(FFT(make([]float64, 5))); got != 8 {
		t.Errorf("expected 8 bins, got %d", got)
	}
	if got := len(FFT(make([]float64, 8))); got != 8 {
		t.Errorf("expected 8 bins, got %d", got)
	}
}

func TestFFT_Constant(t *testing.T) {
	out := FFT([]float64{1, 1, 1, 1})
	if math.Abs(real(out[0])-4) > 1e-12 {
		t.Errorf("expected DC 4, got %v", out[0])
	}
	for i := 1; i < len(out); i++ {
		if math.Abs(real(out[i]))+math.Abs(imag(out[i])) > 1e-12 {
			t.Errorf("expected zero bin %d, got %v", i, out[i])
		}
	}
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		dt   float64
		n    int
	}{
		{"2Hz", 2, 0.01, 512},
		{"0.5Hz", 0.5, 0.05, 300},
		{"padded", 3, 0.01, 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DominantFrequency(sine(tt.freq, tt.dt, tt.n), tt.dt)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(s.Frequency-tt.freq) > s.BinWidth {
				t.Errorf("expected %f Hz within %f, got %f", tt.freq, s.BinWidth, s.Frequency)
			}
			if math.Abs(s.Period-1/s.Frequency) > 1e-12 {
				t.Errorf("period %f does not match frequency %f", s.Period, s.Frequency)
			}
		})
	}
}

func TestDominantFrequency_Offset(t *testing.T) {
	data := sine(2, 0.01, 512)
	for i := range data {
		data[i] += 100
	}
	s, err := DominantFrequency(data, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.Frequency-2) > s.BinWidth {
		t.Errorf("mean offset should not hide the signal, got %f Hz", s.Frequency)
	}
}

func TestDominantFrequency_Errors(t *testing.T) {
	if _, err := DominantFrequency([]float64{1, 2}, 0.1); !errors.Is(err, ErrTooFewSamples) {
		t.Errorf("expected ErrTooFewSamples, got %v", err)
	}
	if _, err := DominantFrequency(make([]float64, 8), 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestPhasePortrait(t *testing.T) {
	n := 200
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		a := 2 * math.Pi * float64(i) / float64(n)
		xs[i], ys[i] = math.Cos(a), math.Sin(a)
	}
	xs[5] = math.NaN()

	p, err := NewPhasePortrait("x", "v", xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != n-1 {
		t.Errorf("expected %d points, got %d", n-1, len(p.Points))
	}

	out := PhasePortraitToASCII(p, 40, 20)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 21 {
		t.Fatalf("expected 21 lines, got %d", len(lines))
	}
	if !strings.ContainsAny(out, "·•●") {
		t.Error("expected plotted points")
	}
	if !strings.Contains(out, "E") {
		t.Error("expected end marker")
	}
	if !strings.HasPrefix(lines[20], "x: x [-1, 1]  y: v [-1, 1]") {
		t.Errorf("unexpected footer %q", lines[20])
	}
}

func TestPhasePortraitToASCII_Layout(t *testing.T) {
	p, err := NewPhasePortrait("a", "b", []float64{-1, 0, 1, 1}, []float64{-1, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	out := PhasePortraitToASCII(p, 11, 11)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	grid := make([][]rune, 11)
	for i := range grid {
		grid[i] = []rune(lines[i])
	}

	// padded view is [-1.2, 1.2] on both axes, so -1 maps to cell 0 and
	// 1 to cell 9 (bottom row 10 - 9 = 1)
	if grid[10][0] != 'S' {
		t.Errorf("expected start marker bottom left, got %q", grid[10][0])
	}
	if grid[1][9] != 'E' {
		t.Errorf("expected end marker top right, got %q", grid[1][9])
	}
	// one sample against two in the busiest cell
	if grid[5][5] != '•' {
		t.Errorf("expected the origin sample at the axis crossing, got %q", grid[5][5])
	}
	if grid[5][0] != '─' || grid[0][5] != '│' {
		t.Errorf("expected zero axes, got %q and %q", grid[5][0], grid[0][5])
	}
	if lines[11] != "x: a [-1, 1]  y: b [-1, 1]" {
		t.Errorf("unexpected footer %q", lines[11])
	}
}

func TestPhasePortrait_Mismatch(t *testing.T) {
	if _, err := NewPhasePortrait("x", "y", []float64{1}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if PhasePortraitToASCII(nil, 10, 10) != "" {
		t.Error("expected empty output for nil portrait")
	}
}
