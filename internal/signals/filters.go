package signals

import "math"

// Delay shifts a sampled sequence by round(td/ts) samples using an FIR
// structure with a single unit tap at that offset. Samples before the delay
// line has filled are zero; call sites overwrite them with a steady-state
// value where that matters. A zero-sample delay is the identity.
func Delay(x []float64, td, ts float64) []float64 {
	out := make([]float64, len(x))
	n := 0
	if ts > 0 {
		n = int(math.Round(td / ts))
	}
	if n <= 0 {
		copy(out, x)
		return out
	}
	for i := n; i < len(x); i++ {
		out[i] = x[i-n]
	}
	return out
}

// LowPass applies a first-order low-pass filter with cut-off frequency fc
// and sampling frequency fs, obtained from the bilinear transform of
// H(s) = wc/(s+wc), wc = 2*pi*fc. The filter state is initialized so the
// output starts at x[0] with no start-up transient (unity DC gain).
func LowPass(x []float64, fc, fs float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	wc := 2 * math.Pi * fc
	c := 2 * fs
	// H(z) numerator b0 = b1, denominator {1, a1}.
	b := wc / (c + wc)
	a1 := (wc - c) / (c + wc)

	prevX := x[0]
	prevY := x[0]
	for i, v := range x {
		y := b*(v+prevX) - a1*prevY
		out[i] = y
		prevX = v
		prevY = y
	}
	return out
}
