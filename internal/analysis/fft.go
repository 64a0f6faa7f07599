package analysis

import (
	"errors"
	"math"
	"math/cmplx"
)

var ErrTooFewSamples = errors.New("analysis: need at least 4 samples")

// FFT transforms data, zero padded to the next power of two.
func FFT(data []float64) []complex128 {
	n := nextPow2(len(data))
	padded := make([]float64, n)
	copy(padded, data)
	return fft(padded)
}

func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PowerSpectrum returns the magnitude of each non-negative frequency bin of
// data with its mean removed.
func PowerSpectrum(data []float64) []float64 {
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := FFT(centered)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

type Spectrum struct {
	Frequency float64 `json:"frequency"`
	Period    float64 `json:"period"`
	Magnitude float64 `json:"magnitude"`
	BinWidth  float64 `json:"bin_width"`
}

// DominantFrequency finds the strongest non-zero frequency of samples taken
// every dt seconds.
func DominantFrequency(data []float64, dt float64) (Spectrum, error) {
	if len(data) < 4 {
		return Spectrum{}, ErrTooFewSamples
	}
	if dt <= 0 {
		return Spectrum{}, errors.New("analysis: sample interval must be positive")
	}

	ps := PowerSpectrum(data)
	n := nextPow2(len(data))
	binWidth := 1 / (float64(n) * dt)

	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}

	s := Spectrum{
		Frequency: float64(best) * binWidth,
		Magnitude: ps[best],
		BinWidth:  binWidth,
	}
	if s.Frequency > 0 {
		s.Period = 1 / s.Frequency
	}
	return s, nil
}
