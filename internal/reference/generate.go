package reference

import (
	"fmt"
	"math"

	"github.com/user/mtb_analyzer_go/internal/cases"
	"github.com/user/mtb_analyzer_go/internal/logging"
	"github.com/user/mtb_analyzer_go/internal/result"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

// Raw hierarchical names of the simulator signals the generators consume.
const (
	sigP       = `MTB\P_pu_PoC`
	sigQ       = `MTB\Q_pu_PoC`
	sigF       = `MTB\pll_f_hz`
	sigVmag    = `MTB\fft_pos_Vmag_pu`
	sigId      = `MTB\fft_pos_Id_pu`
	sigIq      = `MTB\fft_pos_Iq_pu`
	sigPref    = `MTB\mtb_s_pref_pu`
	sigQref    = `MTB\mtb_s_qref`
	sigQUDroop = `MTB\mtb_s_qudroop`
)

// Chart groups the derived columns belong to.
const (
	FigureP         = "Ppoc"
	FigureQ         = "Qpoc"
	FigureIActive   = "Iactive"
	FigureIReactive = "Ireactive"
)

// Overlay tags one derived reference column with the chart group it should
// be drawn on.
type Overlay struct {
	Figure string
	Signal string
}

// Generator derives ideal and guide reference-response columns for one
// rank. The settings are shared, read-only project configuration; the
// logger is the injected run sink.
type Generator struct {
	Settings cases.Settings
	Log      *logging.Logger
}

// column resolves the raw signal name for the result format and fetches it
// from the table. Absence is a data-availability gap: it is logged and the
// dependent derivation is skipped, per the sentinel-not-abort policy.
func (g *Generator) column(res result.Result, table *signals.Table, raw string) ([]float64, bool) {
	name := res.ColumnName(raw)
	col, ok := table.Column(name)
	if !ok {
		g.Log.Printf("Signal %q not found in result file: %s", name, res.Path)
	}
	return col, ok
}

func (g *Generator) warnAddColumn(table *signals.Table, name string, values []float64) bool {
	if err := table.AddColumn(name, values); err != nil {
		g.Log.Printf("Failed to add reference column: %v", err)
		return false
	}
	return true
}

// Ideal appends the strict standard-mandated reference columns for the
// case to the table and returns their chart-group tags. Only EMT-family
// results carry an ideal overlay.
func (g *Generator) Ideal(res result.Result, table *signals.Table, cs cases.Case) ([]Overlay, error) {
	if !res.Type.IsEMT() {
		return nil, nil
	}
	t := table.ShiftedTime(g.Settings.PSCADInitTime)

	switch cs.Kind {
	case cases.KindPRampStep:
		return g.idealPRamp(res, table, cs, t)
	case cases.KindFrequencySupport:
		return g.idealLFSM(res, table, cs, t)
	case cases.KindVoltageSupport:
		return g.idealQU(res, table, cs, t)
	case cases.KindPowerFactorControl:
		return g.idealQPF(res, table, cs)
	case cases.KindFaultRideThrough:
		return g.idealFFC(res, table, t)
	}
	return nil, nil
}

func (g *Generator) idealPRamp(res result.Result, table *signals.Table, cs cases.Case, t []float64) ([]Overlay, error) {
	ev, ok := cs.Event1()
	if !ok || ev.Type != "Pref" {
		return nil, fmt.Errorf("rank %d: P-ramp case needs a Pref event, got %+v", cs.Rank, ev)
	}
	const m = 0.2 / 60 // pu/s, the standard's 0.2 pu/min limit
	out := make([]float64, len(t))
	for i, tv := range t {
		out[i] = RampLimit(cs.P0, ev.X1, ev.Time, m, tv)
	}
	if !g.warnAddColumn(table, "ideal_P_pu_PoC", out) {
		return nil, nil
	}
	return []Overlay{{Figure: FigureP, Signal: "ideal_P_pu_PoC"}}, nil
}

func (g *Generator) idealLFSM(res result.Result, table *signals.Table, cs cases.Case, t []float64) ([]Overlay, error) {
	p, okP := g.column(res, table, sigP)
	f, okF := g.column(res, table, sigF)
	if !okP || !okF {
		return nil, nil
	}
	out := make([]float64, len(t))
	copy(out, p)
	for i, tv := range t {
		if tv >= 0 {
			out[i] = LFSM(cs.P0, f[i], g.Settings.DK(), cs.FSMEnabled(), g.Settings.FSMDroop, g.Settings.FSMDeadband)
		}
	}
	if !g.warnAddColumn(table, "ideal_P_pu_PoC", out) {
		return nil, nil
	}
	return []Overlay{{Figure: FigureP, Signal: "ideal_P_pu_PoC"}}, nil
}

func (g *Generator) idealQU(res result.Result, table *signals.Table, cs cases.Case, t []float64) ([]Overlay, error) {
	mode, err := cs.ResolveQMode(g.Settings.DefaultQMode)
	if err != nil {
		return nil, err
	}
	if mode != "Q(U)" {
		return nil, fmt.Errorf("rank %d: voltage-support case with reactive mode %q", cs.Rank, mode)
	}
	q, okQ := g.column(res, table, sigQ)
	upos, okU := g.column(res, table, sigVmag)
	if !okQ || !okU {
		return nil, nil
	}
	out := make([]float64, len(t))
	copy(out, q)
	for i, tv := range t {
		if tv >= 0 {
			out[i] = IdealQU(0, cs.U0, upos[i], g.Settings.VDroop)
		}
	}
	if !g.warnAddColumn(table, "ideal_Q_pu_PoC", out) {
		return nil, nil
	}
	return []Overlay{{Figure: FigureQ, Signal: "ideal_Q_pu_PoC"}}, nil
}

func (g *Generator) idealQPF(res result.Result, table *signals.Table, cs cases.Case) ([]Overlay, error) {
	mode, err := cs.ResolveQMode(g.Settings.DefaultQMode)
	if err != nil {
		return nil, err
	}
	if mode != "PF" {
		return nil, fmt.Errorf("rank %d: power-factor case with reactive mode %q", cs.Rank, mode)
	}

	out := make([]float64, table.Len())
	ev, _ := cs.Event1()
	switch ev.Type {
	case "Pref":
		// Pref steps ramp Ppoc slowly, so Q follows the measured Ppoc.
		p, ok := g.column(res, table, sigP)
		if !ok {
			return nil, nil
		}
		for i, pv := range p {
			out[i] = QPF(pv, cs.Qref0)
		}
	case "Qref":
		// The PF reference itself changes while Pref stays constant.
		pref, okP := g.column(res, table, sigPref)
		qref, okQ := g.column(res, table, sigQref)
		if !okP || !okQ {
			return nil, nil
		}
		for i := range pref {
			out[i] = QPF(pref[i], qref[i])
		}
	default:
		for i := range out {
			out[i] = QPF(cs.P0, cs.Qref0)
		}
	}
	if !g.warnAddColumn(table, "ideal_Q_pu_PoC", out) {
		return nil, nil
	}
	return []Overlay{{Figure: FigureQ, Signal: "ideal_Q_pu_PoC"}}, nil
}

func (g *Generator) idealFFC(res result.Result, table *signals.Table, t []float64) ([]Overlay, error) {
	upos, okU := g.column(res, table, sigVmag)
	id, okD := g.column(res, table, sigId)
	iq, okQ := g.column(res, table, sigIq)
	if !okU || !okD || !okQ {
		return nil, nil
	}
	outD := make([]float64, len(t))
	outQ := make([]float64, len(t))
	copy(outD, id)
	copy(outQ, iq)
	dk, dso := g.Settings.DK(), g.Settings.DSO()
	for i, tv := range t {
		if tv >= 0 {
			outD[i], outQ[i] = IdealFFC(upos[i], id[i], iq[i], dk, dso)
		}
	}
	if !g.warnAddColumn(table, "ideal_fft_pos_Id_pu", outD) ||
		!g.warnAddColumn(table, "ideal_fft_pos_Iq_pu", outQ) {
		return nil, nil
	}
	return []Overlay{
		{Figure: FigureIActive, Signal: "ideal_fft_pos_Id_pu"},
		{Figure: FigureIReactive, Signal: "ideal_fft_pos_Iq_pu"},
	}, nil
}

// steadyStatePF is the pre-event reactive power of a power-factor case.
func steadyStatePF(p0, pf float64) float64 {
	return p0 * math.Tan(math.Acos(pf))
}
