package signals

import "fmt"

// Interval is a closed time range [T0, T1]. An open interval has no upper
// bound and runs to the end of the signal.
type Interval struct {
	T0   float64
	T1   float64
	Open bool
}

// Intervals consumes raw boundary values pairwise into closed intervals.
// An odd trailing boundary becomes an open interval running to the end of
// the simulation.
func Intervals(bounds []float64) []Interval {
	out := make([]Interval, 0, (len(bounds)+1)/2)
	for i := 0; i+1 < len(bounds); i += 2 {
		out = append(out, Interval{T0: bounds[i], T1: bounds[i+1]})
	}
	if len(bounds)%2 == 1 {
		out = append(out, Interval{T0: bounds[len(bounds)-1], Open: true})
	}
	return out
}

// Contains reports whether time t falls inside the interval. Both ends are
// inclusive.
func (iv Interval) Contains(t float64) bool {
	if t < iv.T0 {
		return false
	}
	return iv.Open || t <= iv.T1
}

func (iv Interval) String() string {
	if iv.Open {
		return fmt.Sprintf("%g s : ..", iv.T0)
	}
	return fmt.Sprintf("%g s : %g s", iv.T0, iv.T1)
}

// Window is an interval-restricted copy of one signal. Metric functions
// operate on windows and never mutate the shared table.
type Window struct {
	T []float64
	Y []float64
}

// Empty reports whether the window selected zero samples.
func (w Window) Empty() bool {
	return len(w.T) == 0
}

// Slice restricts a (time, signal) pair to the given interval, copying the
// selected samples.
func Slice(t, y []float64, iv Interval) Window {
	w := Window{}
	for i, tv := range t {
		if i >= len(y) {
			break
		}
		if iv.Contains(tv) {
			w.T = append(w.T, tv)
			w.Y = append(w.Y, y[i])
		}
	}
	return w
}
