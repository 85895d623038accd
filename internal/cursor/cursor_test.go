package cursor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/mtb_analyzer_go/internal/cases"
	"github.com/user/mtb_analyzer_go/internal/logging"
	"github.com/user/mtb_analyzer_go/internal/result"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

func window(t, y []float64) signals.Window {
	return signals.Window{T: t, Y: y}
}

func ramp(n int, ts float64) (t, y []float64) {
	t = make([]float64, n)
	y = make([]float64, n)
	for i := range t {
		t[i] = float64(i) * ts
		y[i] = float64(i)
	}
	return t, y
}

func TestTypeFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"MIN", Min},
		{"min", Min},
		{" GRAD_MEAN ", GradMean},
		{"FFC_DELTA", FFCDelta},
	}
	for _, tc := range tests {
		got, err := TypeFromString(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("TypeFromString(%q) = (%v, %v), want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := TypeFromString("bogus"); err == nil {
		t.Error("expected an error for an unknown metric token")
	}
}

func TestStartEndDelta(t *testing.T) {
	w := window([]float64{1, 2, 3}, []float64{0.5, 0.7, 0.8})
	if got := metricStart(w); got != "Start: y(1.000) = 0.500" {
		t.Errorf("start: %q", got)
	}
	// End reports the last sample's true timestamp.
	if got := metricEnd(w); got != "End: y(3.000) = 0.800" {
		t.Errorf("end: %q", got)
	}
	if got := metricDelta(w); got != "Delta: Δy = 0.300" {
		t.Errorf("delta: %q", got)
	}
}

func TestEmptyWindowSentinels(t *testing.T) {
	w := signals.Window{}
	tests := []struct {
		got, want string
	}{
		{metricStart(w), "Inst: error"},
		{metricMin(w), "Min: error"},
		{metricMax(w), "Max: error"},
		{metricMean(w), "Mean: error"},
		{metricGrad(w, GradMin), "Grad (min): error"},
		{metricResponse(w), "Response delay: error"},
		{metricSettling(w), "Settling time: error"},
		{metricOvershoot(w), "Overshoot: error"},
		{metricFSMDroop(w, w, 0), "FSM droop: error"},
		{metricQUDroop(w, w, 1.0), "Q(U) droop: error"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}

func TestMinMaxBoundTheWindow(t *testing.T) {
	w := window([]float64{0, 1, 2, 3, 4}, []float64{0.5, -0.2, 0.9, 0.1, 0.3})
	if got := metricMin(w); got != "Min: -0.200 at t = 1.000 s" {
		t.Errorf("min: %q", got)
	}
	if got := metricMax(w); got != "Max: 0.900 at t = 2.000 s" {
		t.Errorf("max: %q", got)
	}
}

func TestGradOfLinearRamp(t *testing.T) {
	// Slope 1 pu/s everywhere, so min == mean == max == 60 pu/min.
	tt, yy := ramp(10, 1)
	w := window(tt, yy)
	for _, kind := range []Type{GradMin, GradMax, GradMean} {
		got := metricGrad(w, kind)
		if !strings.HasSuffix(got, "60.000 pu/min") {
			t.Errorf("%v: %q", kind, got)
		}
	}
}

func TestResponseDelay(t *testing.T) {
	// Step from 0 to 1 at t=3: samples at or below the 10% threshold span
	// t=0..2, so the delay is 2 s.
	w := window(
		[]float64{0, 1, 2, 3, 4, 5},
		[]float64{0, 0, 0, 1, 1, 1},
	)
	if got := metricResponse(w); got != "Response delay: 2.000 s" {
		t.Errorf("response: %q", got)
	}
	// A flat window has no step to measure.
	flat := window([]float64{0, 1, 2}, []float64{0.5, 0.6, 0.5})
	if got := metricResponse(flat); got != "Response delay: NaN s" {
		t.Errorf("flat response: %q", got)
	}
}

func TestRiseFallTime(t *testing.T) {
	// A clean step has no samples strictly inside the 10-90% band, so the
	// rise time collapses to zero.
	w := window(
		[]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		[]float64{0, 0, 0, 1, 1, 1, 1, 1, 1, 1},
	)
	if got := metricRiseFall(w); got != "Rise time: 0.000 s" {
		t.Errorf("step rise: %q", got)
	}
	// A gradual rise: band samples at y=0.25, 0.5, 0.75 span t=1..3.
	grad := window(
		[]float64{0, 1, 2, 3, 4},
		[]float64{0, 0.25, 0.5, 0.75, 1},
	)
	if got := metricRiseFall(grad); got != "Rise time: 2.000 s" {
		t.Errorf("gradual rise: %q", got)
	}
	fall := window(
		[]float64{0, 1, 2, 3, 4},
		[]float64{1, 0.75, 0.5, 0.25, 0},
	)
	if got := metricRiseFall(fall); got != "Fall time: 2.000 s" {
		t.Errorf("fall: %q", got)
	}
}

func TestSettlingTime(t *testing.T) {
	// Settles after the excursion at t=2.
	w := window(
		[]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		[]float64{0, 0.5, 1.4, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0},
	)
	if got := metricSettling(w); got != "Settling time: 2.000 s" {
		t.Errorf("settling: %q", got)
	}
	// Never outside the band: settled from the start.
	flat := window([]float64{0, 1, 2, 3}, []float64{1, 1, 1, 1})
	if got := metricSettling(flat); got != "Settling time: 0.000 s" {
		t.Errorf("flat settling: %q", got)
	}
}

func TestOvershoot(t *testing.T) {
	// Step 0 -> 1 with a peak of 1.2: 20% overshoot.
	w := window(
		[]float64{0, 1, 2, 3, 4},
		[]float64{0, 1.2, 1.05, 1.0, 1.0},
	)
	got := metricOvershoot(w)
	if !strings.HasPrefix(got, "Overshoot: 20.00 %") {
		t.Errorf("overshoot: %q", got)
	}
	// No overshoot maps to full damping.
	mono := window([]float64{0, 1, 2}, []float64{0, 0.5, 1})
	if got := metricOvershoot(mono); got != "Overshoot: 0.00 % (ζ ≈ 1.000)" {
		t.Errorf("no overshoot: %q", got)
	}
}

func TestFSMDroop(t *testing.T) {
	// Frequency starts nominal, rises to 50.2 Hz; power sheds 0.08 pu.
	// With zero deadband the droop is -100*(0.2)/(50*(-0.08)) = 5%.
	p := window([]float64{0, 1}, []float64{0.5, 0.42})
	f := window([]float64{0, 1}, []float64{50.0, 50.2})
	if got := metricFSMDroop(p, f, 0); got != "FSM droop: 5.00%" {
		t.Errorf("fsm droop: %q", got)
	}
	// Zero delta-P gives an infinite droop.
	flat := window([]float64{0, 1}, []float64{0.5, 0.5})
	if got := metricFSMDroop(flat, f, 0); got != "FSM droop: +Inf%" {
		t.Errorf("inf droop: %q", got)
	}
}

func TestLFSMDroop(t *testing.T) {
	// DK1 over-frequency: corner 50.2 Hz. f ends at 50.7, P sheds 0.2 pu:
	// -100*(50.7-50.2)/(50*(-0.2)) = 5%.
	p := window([]float64{0, 1}, []float64{0.7, 0.5})
	f := window([]float64{0, 1}, []float64{50.0, 50.7})
	if got := metricLFSMDroop(p, f, 1); got != "LFSM droop: 5.00%" {
		t.Errorf("lfsm droop: %q", got)
	}
}

func TestQUDroop(t *testing.T) {
	// dU = -0.04 at Uref=1, dQ = 0.33: -100*(-0.04)/1*0.33/0.33 = 4%.
	q := window([]float64{0, 1}, []float64{0, 0.33})
	u := window([]float64{0, 1}, []float64{1.0, 0.96})
	if got := metricQUDroop(q, u, 1.0); got != "Q(U) droop: 4.00%" {
		t.Errorf("qu droop: %q", got)
	}
}

func TestEvaluateColumn(t *testing.T) {
	e := &Evaluator{
		Settings: cases.Settings{Area: "DK1", Un: 400, Pn: 100},
		Log:      logging.New(""),
	}
	time := make([]float64, 20)
	p := make([]float64, 20)
	for i := range time {
		time[i] = float64(i)
		p[i] = 0.5
	}
	table := signals.NewTable(time)
	table.AddColumn("P_pu_PoC", p)

	c := Cursor{
		Rank:       1,
		Title:      "active power",
		Options:    []Type{Min, Max, Mean},
		EMTSignals: []string{`MTB\P_pu_PoC`},
		TimeRanges: []float64{0, 5, 10}, // [0,5] and [10,..]
	}
	res := result.Result{Type: result.EMTCsv, Project: "proj", Group: "emt"}

	col, ok := e.Evaluate(c, res, table, cases.Case{})
	if !ok {
		t.Fatal("expected a column")
	}
	if len(col.Values) != 6 {
		t.Fatalf("expected 3 options x 2 intervals = 6 rows, got %d", len(col.Values))
	}
	if labels := c.RowLabels(); len(labels) != 6 || labels[1] != "10 s : .." {
		t.Fatalf("row labels: %v", labels)
	}
	for _, v := range col.Values {
		if strings.Contains(v, "error") {
			t.Errorf("unexpected sentinel %q", v)
		}
	}
	if col.Values[4] != "Mean: 0.500" {
		t.Errorf("mean row: %q", col.Values[4])
	}
}

func TestEvaluateMissingSignal(t *testing.T) {
	e := &Evaluator{Settings: cases.Settings{}, Log: logging.New("")}
	table := signals.NewTable([]float64{0, 1, 2})
	c := Cursor{Options: []Type{Min}, EMTSignals: []string{`MTB\absent`}, TimeRanges: []float64{0}}
	if _, ok := e.Evaluate(c, result.Result{Type: result.EMTCsv}, table, cases.Case{}); ok {
		t.Fatal("a cursor with no resolved signals contributes no column")
	}
}

func TestReadCursorSetup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cursorSetup.csv")
	content := "rank;title;cursor_options;emt_signals;rms_signals;time_ranges\n" +
		"3;Ppoc ramp;MIN, MAX, GRAD_MAX;MTB\\P_pu_PoC;##mtb\\P_PoC;0, 10, 20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cursors, err := ReadCursorSetup(path)
	if err != nil {
		t.Fatalf("ReadCursorSetup: %v", err)
	}
	if len(cursors) != 1 {
		t.Fatalf("expected 1 cursor, got %d", len(cursors))
	}
	c := cursors[0]
	if c.Rank != 3 || c.Title != "Ppoc ramp" {
		t.Errorf("header fields: %+v", c)
	}
	if len(c.Options) != 3 || c.Options[2] != GradMax {
		t.Errorf("options: %v", c.Options)
	}
	if len(c.TimeRanges) != 3 || c.TimeRanges[2] != 20 {
		t.Errorf("time ranges: %v", c.TimeRanges)
	}
	if ivs := c.Intervals(); len(ivs) != 2 || !ivs[1].Open {
		t.Errorf("intervals: %+v", ivs)
	}
}

func TestReadCursorSetupBadMetric(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cursorSetup.csv")
	content := "rank;title;cursor_options;emt_signals;rms_signals;time_ranges\n" +
		"3;bad;NOPE;sig;;0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCursorSetup(path); err == nil {
		t.Fatal("expected an error for an unknown metric token")
	}
}
