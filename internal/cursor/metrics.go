package cursor

import (
	"fmt"
	"math"

	"github.com/user/mtb_analyzer_go/internal/cases"
	"github.com/user/mtb_analyzer_go/internal/reference"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

// Metric results are pre-formatted strings so one table cell carries both
// the value and its context. Every metric has a fixed "<label>: error"
// sentinel for windows it cannot be computed on.

func metricStart(w signals.Window) string {
	if w.Empty() {
		return "Inst: error"
	}
	return fmt.Sprintf("Start: y(%.3f) = %.3f", w.T[0], w.Y[0])
}

func metricEnd(w signals.Window) string {
	if w.Empty() {
		return "Inst: error"
	}
	n := len(w.T) - 1
	return fmt.Sprintf("End: y(%.3f) = %.3f", w.T[n], w.Y[n])
}

func metricDelta(w signals.Window) string {
	if w.Empty() {
		return "Inst: error"
	}
	dy := w.Y[len(w.Y)-1] - w.Y[0]
	return fmt.Sprintf("Delta: Δy = %.3f", dy)
}

func metricMin(w signals.Window) string {
	if w.Empty() {
		return "Min: error"
	}
	min, at := w.Y[0], w.T[0]
	for i, v := range w.Y {
		if v < min {
			min, at = v, w.T[i]
		}
	}
	return fmt.Sprintf("Min: %.3f at t = %.3f s", min, at)
}

func metricMax(w signals.Window) string {
	if w.Empty() {
		return "Max: error"
	}
	max, at := w.Y[0], w.T[0]
	for i, v := range w.Y {
		if v > max {
			max, at = v, w.T[i]
		}
	}
	return fmt.Sprintf("Max: %.3f at t = %.3f s", max, at)
}

func metricMean(w signals.Window) string {
	if w.Empty() {
		return "Mean: error"
	}
	sum := 0.0
	for _, v := range w.Y {
		sum += v
	}
	return fmt.Sprintf("Mean: %.3f", sum/float64(len(w.Y)))
}

// gradient computes the numerical derivative dy/dt with central
// differences in the interior and one-sided differences at the ends.
func gradient(t, y []float64) []float64 {
	out := make([]float64, len(y))
	n := len(y)
	out[0] = (y[1] - y[0]) / (t[1] - t[0])
	out[n-1] = (y[n-1] - y[n-2]) / (t[n-1] - t[n-2])
	for i := 1; i < n-1; i++ {
		out[i] = (y[i+1] - y[i-1]) / (t[i+1] - t[i-1])
	}
	return out
}

func metricGrad(w signals.Window, kind Type) string {
	label := map[Type]string{GradMin: "Grad (min)", GradMax: "Grad (max)", GradMean: "Grad (mean)"}[kind]
	if len(w.T) < 2 {
		return label + ": error"
	}
	grad := gradient(w.T, w.Y)
	var v float64
	switch kind {
	case GradMin:
		v = grad[0]
		for _, g := range grad {
			v = math.Min(v, g)
		}
	case GradMax:
		v = grad[0]
		for _, g := range grad {
			v = math.Max(v, g)
		}
	case GradMean:
		for _, g := range grad {
			v += g
		}
		v /= float64(len(grad))
	}
	// Report per minute, the unit the ramp-rate requirements are stated in.
	return fmt.Sprintf("%s: %.3f pu/min", label, v*60)
}

// metricResponse is the delay from the window start until the signal first
// moves 10 % of the total step. A flat window has no step to respond to.
func metricResponse(w signals.Window) string {
	if w.Empty() {
		return "Response delay: error"
	}
	y0 := w.Y[0]
	dy := w.Y[len(w.Y)-1] - y0
	if dy == 0 {
		return fmt.Sprintf("Response delay: %.3f s", math.NaN())
	}
	threshold := y0 + 0.1*dy
	tMin, tMax := math.Inf(1), math.Inf(-1)
	for i, v := range w.Y {
		if (dy > 0 && v <= threshold) || (dy < 0 && v >= threshold) {
			tMin = math.Min(tMin, w.T[i])
			tMax = math.Max(tMax, w.T[i])
		}
	}
	if tMax < tMin {
		return fmt.Sprintf("Response delay: %.3f s", 0.0)
	}
	return fmt.Sprintf("Response delay: %.3f s", tMax-tMin)
}

// metricRiseFall is the 10 % to 90 % rise (or fall) time of the step in
// the window. A degenerate step with no samples inside the band resolves
// to zero rather than an undefined value.
func metricRiseFall(w signals.Window) string {
	if w.Empty() {
		return "Rise/Fall time: error"
	}
	y0 := w.Y[0]
	dy := w.Y[len(w.Y)-1] - y0
	lo, hi := y0+0.1*dy, y0+0.9*dy

	tMin, tMax := math.Inf(1), math.Inf(-1)
	for i, v := range w.Y {
		inBand := v >= lo && v <= hi
		if dy <= 0 {
			inBand = v <= lo && v >= hi
		}
		if inBand {
			tMin = math.Min(tMin, w.T[i])
			tMax = math.Max(tMax, w.T[i])
		}
	}
	elapsed := 0.0
	if tMax >= tMin {
		elapsed = tMax - tMin
	}
	label := "Rise time"
	if dy <= 0 {
		label = "Fall time"
	}
	return fmt.Sprintf("%s: %.3f s", label, elapsed)
}

// metricSettling is the elapsed time from the window start until the
// signal last leaves a +/-2 % band around the settled value, taken as the
// mean of the final 5 % of the window. A signal never outside the band
// has settled immediately.
func metricSettling(w signals.Window) string {
	if w.Empty() {
		return "Settling time: error"
	}
	const tol = 2.0 // [%]
	n := len(w.Y)
	tail := n / 20
	if tail < 1 {
		tail = 1
	}
	final := 0.0
	for _, v := range w.Y[n-tail:] {
		final += v
	}
	final /= float64(tail)

	band := math.Abs(final-w.Y[0]) * tol / 100
	settled := 0.0
	for i, v := range w.Y {
		if math.Abs(v-final) >= band && band > 0 {
			settled = w.T[i] - w.T[0]
		}
	}
	return fmt.Sprintf("Settling time: %.3f s", settled)
}

// metricOvershoot reports the peak excursion beyond the final value as a
// fraction of the step size, with the matching second-order damping-ratio
// estimate. No overshoot maps to full damping.
func metricOvershoot(w signals.Window) string {
	if w.Empty() {
		return "Overshoot: error"
	}
	y0 := w.Y[0]
	y1 := w.Y[len(w.Y)-1]
	dy := math.Abs(y1 - y0)

	yMin, yMax := w.Y[0], w.Y[0]
	for _, v := range w.Y {
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}

	ratio := 0.0
	if y1 > y0 && yMax > y1 {
		ratio = (yMax - y1) / dy
	} else if y1 <= y0 && yMin < y1 {
		ratio = math.Abs(yMin-y1) / dy
	}

	zeta := 1.0
	if ratio > 0 {
		a := math.Log(ratio) / math.Pi
		zeta = math.Sqrt(a * a / (1 + a*a))
	}
	return fmt.Sprintf("Overshoot: %.2f %% (ζ ≈ %.3f)", ratio*100, zeta)
}

// metricFSMDroop inverse-solves the FSM droop law from the observed power
// and frequency endpoints. If the frequency already deviates at the window
// start, the deviation endpoint is the first sample; otherwise the last.
func metricFSMDroop(p, f signals.Window, db float64) string {
	if p.Empty() || f.Empty() {
		return "FSM droop: error"
	}
	fn := reference.NominalFrequency

	fNew, pNew, pRef := endpoint(p, f)
	df := fNew - fn
	if pNew == pRef {
		return fmt.Sprintf("FSM droop: %.2f%%", math.Inf(1))
	}
	var droop float64
	if df < 0 {
		droop = -100 * (fNew - fn + db) / (fn * (pNew - pRef))
	} else {
		droop = -100 * (fNew - fn - db) / (fn * (pNew - pRef))
	}
	return fmt.Sprintf("FSM droop: %.2f%%", droop)
}

// metricLFSMDroop inverse-solves the LFSM droop law, measured from the
// area's corner frequency instead of the deadband edge.
func metricLFSMDroop(p, f signals.Window, dk int) string {
	if p.Empty() || f.Empty() {
		return "LFSM droop: error"
	}
	fn := reference.NominalFrequency

	fNew, pNew, pRef := endpoint(p, f)
	f1 := 49.8
	if dk == 1 {
		if fNew > fn {
			f1 = 50.2
		}
	} else {
		f1 = 49.5
		if fNew > fn {
			f1 = 50.5
		}
	}
	if pNew == pRef {
		return fmt.Sprintf("LFSM droop: %.2f%%", math.Inf(1))
	}
	droop := -100 * (fNew - f1) / (fn * (pNew - pRef))
	return fmt.Sprintf("LFSM droop: %.2f%%", droop)
}

// endpoint orients the droop calculation: when the auxiliary signal is
// still nominal at the window start the event lies at the end, otherwise
// the window starts inside the event and ends at the reference.
func endpoint(p, f signals.Window) (fNew, pNew, pRef float64) {
	fn := reference.NominalFrequency
	last := len(f.Y) - 1
	if math.Abs(fn-f.Y[0]) < 0.01 {
		return f.Y[last], p.Y[len(p.Y)-1], p.Y[0]
	}
	return f.Y[0], p.Y[0], p.Y[len(p.Y)-1]
}

// metricQUDroop inverse-solves the Q(U) droop law from the observed Q and
// U endpoints. Zero delta-Q yields an infinite slope.
func metricQUDroop(q, u signals.Window, uref float64) string {
	if q.Empty() || u.Empty() {
		return "Q(U) droop: error"
	}
	dq := q.Y[len(q.Y)-1] - q.Y[0]
	du := u.Y[len(u.Y)-1] - u.Y[0]
	droop := -100 * du / uref * reference.NominalQ / dq
	return fmt.Sprintf("Q(U) droop: %.2f%%", droop)
}

// metricQUTol compares the settled reactive power against the value the
// Q(U) law requires for the settled voltage.
func metricQUTol(q, u signals.Window, cs cases.Case, settings cases.Settings) string {
	if q.Empty() || u.Empty() {
		return "Q(U) tol: error"
	}
	uEnd := u.Y[len(u.Y)-1]
	qEnd := q.Y[len(q.Y)-1]
	want := reference.IdealQU(0, cs.U0, uEnd, settings.VDroop)
	return fmt.Sprintf("Q(U) tol: ΔQ = %.3f pu", qEnd-want)
}

// metricFFCDelta compares the observed reactive-current contribution at
// the deepest point of the dip against the fast-fault-current requirement.
func metricFFCDelta(iq, u signals.Window, settings cases.Settings) string {
	if iq.Empty() || u.Empty() {
		return "FFC delta: error"
	}
	iq0 := iq.Y[0]
	dip := 0
	for i, v := range u.Y {
		if v < u.Y[dip] {
			dip = i
		}
	}
	want := reference.GuideFFC(u.Y[dip], iq0, settings.DK(), settings.DSO())
	return fmt.Sprintf("FFC delta: ΔIq = %.3f pu", want-iq.Y[dip])
}
