package reference

import (
	"fmt"

	"github.com/user/mtb_analyzer_go/internal/cases"
	"github.com/user/mtb_analyzer_go/internal/result"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

// Guide shaping constants. The guide response allows a measurement delay
// and a first-order lag on top of the strict laws.
const (
	guideRiseTime   = 0.5  // rise time of the generic control lag [s]
	guideRiseTimeQU = 0.75 // slower rise time for Q(U) control [s]
	guideFreqDelay  = 0.2  // frequency measurement delay [s]
	guideTThresh    = -1.0 // samples before this time are initialization transients [s]
)

// Guide appends the delay/lag-shaped reference columns for the case and
// returns their chart-group tags. Guide responses are derived from the
// EMT result only.
func (g *Generator) Guide(res result.Result, table *signals.Table, cs cases.Case) ([]Overlay, error) {
	if !res.Type.IsEMT() {
		return nil, nil
	}
	t := table.ShiftedTime(g.Settings.PSCADInitTime)
	ts := table.SampleTime()
	if ts <= 0 {
		g.Log.Printf("Result %s has no usable sample time, skipping guide response", res.Path)
		return nil, nil
	}
	fs := 1 / ts
	fc := 0.35 / guideRiseTime

	var overlays []Overlay

	if cs.Kind == cases.KindPRampStep {
		ov, err := g.guidePRamp(table, cs, t)
		if err != nil {
			return overlays, err
		}
		overlays = append(overlays, ov...)
	}

	if cs.Kind == cases.KindFrequencySupport {
		overlays = append(overlays, g.guideFrequency(res, table, cs, t, ts, fs, fc)...)
	}

	mode, err := cs.ResolveQMode(g.Settings.DefaultQMode)
	if err != nil {
		return overlays, err
	}
	switch mode {
	case "Q":
		overlays = append(overlays, g.guideQ(res, table, cs, t, fs, fc)...)
	case "Q(U)":
		overlays = append(overlays, g.guideQU(res, table, t, fs)...)
	case "PF":
		overlays = append(overlays, g.guideQPF(res, table, cs, t, fs, fc)...)
	}

	if cs.Kind == cases.KindFaultRideThrough {
		overlays = append(overlays, g.guideFFC(res, table, mode, t)...)
	}
	return overlays, nil
}

func (g *Generator) guidePRamp(table *signals.Table, cs cases.Case, t []float64) ([]Overlay, error) {
	ev, ok := cs.Event1()
	if !ok || ev.Type != "Pref" {
		return nil, errEventType(cs, "Pref")
	}
	m := rampRate(g.Settings.Pn)
	out := make([]float64, len(t))
	for i, tv := range t {
		out[i] = RampLimit(cs.P0, ev.X1, ev.Time, m, tv)
	}
	if !g.warnAddColumn(table, "P_pu_PoC_Ramp", out) {
		return nil, nil
	}
	return []Overlay{{Figure: FigureP, Signal: "P_pu_PoC_Ramp"}}, nil
}

func (g *Generator) guideFrequency(res result.Result, table *signals.Table, cs cases.Case, t []float64, ts, fs, fc float64) []Overlay {
	f, ok := g.column(res, table, sigF)
	if !ok {
		return nil
	}
	pref, ok := g.column(res, table, sigPref)
	if !ok {
		return nil
	}
	dk := g.Settings.DK()

	fTd := signals.Delay(f, guideFreqDelay, ts)
	maskBefore(t, fTd, guideTThresh, NominalFrequency)
	fTdLpf := signals.LowPass(fTd, fc, fs)
	g.warnAddColumn(table, "f_hz_Td", fTd)
	g.warnAddColumn(table, "f_hz_Td_Lpf", fTdLpf)

	var overlays []Overlay

	// The pure droop response applies only to genuine frequency steps.
	if cs.StepProfile {
		ffr := make([]float64, len(fTdLpf))
		for i, fv := range fTdLpf {
			ffr[i] = LFSM(cs.P0, fv, dk, cs.FSMEnabled(), g.Settings.FSMDroop, g.Settings.FSMDeadband)
		}
		if g.warnAddColumn(table, "P_pu_LFSM_FFR", ffr) {
			overlays = append(overlays, Overlay{Figure: FigureP, Signal: "P_pu_LFSM_FFR"})
		}
	}

	ramp := LFSMRampFold(pref, f, fTdLpf, cs.P0, g.Settings.Pn, ts, dk, cs.FSMEnabled(), g.Settings.FSMDroop, g.Settings.FSMDeadband)
	if g.warnAddColumn(table, "P_pu_LFSM_Ramp", ramp) {
		overlays = append(overlays, Overlay{Figure: FigureP, Signal: "P_pu_LFSM_Ramp"})
	}

	// For sweeping profiles the plant is allowed an extra activation delay.
	if !cs.StepProfile {
		ramp2s := signals.Delay(ramp, 2, ts)
		maskBefore(t, ramp2s, guideTThresh, cs.P0)
		if g.warnAddColumn(table, "P_pu_LFSM_Ramp_2s", ramp2s) {
			overlays = append(overlays, Overlay{Figure: FigureP, Signal: "P_pu_LFSM_Ramp_2s"})
		}
	}
	return overlays
}

func (g *Generator) guideQ(res result.Result, table *signals.Table, cs cases.Case, t []float64, fs, fc float64) []Overlay {
	qref, ok := g.column(res, table, sigQref)
	if !ok {
		return nil
	}
	out := signals.LowPass(qref, fc, fs)
	maskBefore(t, out, guideTThresh, cs.Qref0)
	if !g.warnAddColumn(table, "Q_pu_Q_Ctrl", out) {
		return nil
	}
	return []Overlay{{Figure: FigureQ, Signal: "Q_pu_Q_Ctrl"}}
}

func (g *Generator) guideQU(res result.Result, table *signals.Table, t []float64, fs float64) []Overlay {
	// With the plant in Q(U) mode the qref channel carries Uref.
	uref, okU := g.column(res, table, sigQref)
	upos, okV := g.column(res, table, sigVmag)
	droop, okS := g.column(res, table, sigQUDroop)
	if !okU || !okV || !okS {
		return nil
	}
	dk, dso := g.Settings.DK(), g.Settings.DSO()

	inst := make([]float64, len(t))
	for i, tv := range t {
		if tv < guideTThresh {
			continue
		}
		inst[i] = GuideQU(0, uref[i], upos[i], droop[i], dk, dso)
	}
	g.warnAddColumn(table, "Q_pu_QU_Inst", inst)

	ctrl := signals.LowPass(inst, 0.35/guideRiseTimeQU, fs)
	if !g.warnAddColumn(table, "Q_pu_QU_Ctrl", ctrl) {
		return nil
	}
	return []Overlay{{Figure: FigureQ, Signal: "Q_pu_QU_Ctrl"}}
}

func (g *Generator) guideQPF(res result.Result, table *signals.Table, cs cases.Case, t []float64, fs, fc float64) []Overlay {
	inst := make([]float64, table.Len())
	ev, _ := cs.Event1()
	switch ev.Type {
	case "Pref":
		p, ok := g.column(res, table, sigP)
		if !ok {
			return nil
		}
		for i, pv := range p {
			inst[i] = QPF(pv, cs.Qref0)
		}
	case "Qref":
		// In PF mode the qref channel carries the power-factor reference.
		pref, okP := g.column(res, table, sigPref)
		pfref, okQ := g.column(res, table, sigQref)
		if !okP || !okQ {
			return nil
		}
		for i := range pref {
			inst[i] = QPF(pref[i], pfref[i])
		}
	default:
		for i := range inst {
			inst[i] = QPF(cs.P0, cs.Qref0)
		}
	}
	g.warnAddColumn(table, "Q_pu_Qpf_Inst", inst)

	ctrl := signals.LowPass(inst, fc, fs)
	maskBefore(t, ctrl, guideTThresh, steadyStatePF(cs.P0, cs.Qref0))
	if !g.warnAddColumn(table, "Q_pu_Qpf_Ctrl", ctrl) {
		return nil
	}
	return []Overlay{{Figure: FigureQ, Signal: "Q_pu_Qpf_Ctrl"}}
}

// guideFFC derives the required reactive current during voltage dips. The
// pre-fault current is tracked from the active reactive-control guide
// column while the voltage is above the FRT threshold so the dip response
// rides on top of the steady-state operating point.
func (g *Generator) guideFFC(res result.Result, table *signals.Table, qmode string, t []float64) []Overlay {
	upos, ok := g.column(res, table, sigVmag)
	if !ok {
		return nil
	}
	var qCtrlName string
	switch qmode {
	case "Q":
		qCtrlName = "Q_pu_Q_Ctrl"
	case "Q(U)":
		qCtrlName = "Q_pu_QU_Ctrl"
	case "PF":
		qCtrlName = "Q_pu_Qpf_Ctrl"
	}
	qCtrl, _ := table.Column(qCtrlName)

	dk, dso := g.Settings.DK(), g.Settings.DSO()
	limit := FrtLimit(dk, dso)

	iq0 := 0.0
	out := make([]float64, len(t))
	for i, tv := range t {
		if tv < guideTThresh {
			continue
		}
		if upos[i] >= limit && qCtrl != nil {
			iq0 = qCtrl[i] / upos[i]
		}
		out[i] = GuideFFC(upos[i], iq0, dk, dso)
	}
	if !g.warnAddColumn(table, "Iq_pu_FFC", out) {
		return nil
	}
	return []Overlay{{Figure: FigureIReactive, Signal: "Iq_pu_FFC"}}
}

func errEventType(cs cases.Case, want string) error {
	ev, _ := cs.Event1()
	return fmt.Errorf("rank %d: expected a %s event, got %q", cs.Rank, want, ev.Type)
}
