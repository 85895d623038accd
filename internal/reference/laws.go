// Package reference synthesizes the theoretical grid-code responses a
// compliant plant should show for a test case: the strict "ideal" ultimate
// values and the "guide" variant with realistic delay, filtering and ramp
// shaping. The control laws follow RfG (EU) 2016/631 as applied in DK1/DK2.
package reference

import "math"

const (
	// NominalFrequency is the system frequency in Hz.
	NominalFrequency = 50.0
	// NominalQ is the reactive-power capability in pu used by the Q laws.
	NominalQ = 0.33
)

// FrtLimit returns the positive-sequence voltage below which fault-ride-
// through behavior is required: 0.85 pu for DK1 at transmission level,
// 0.9 pu for DK2 or distribution-connected plants.
func FrtLimit(dk int, dso bool) float64 {
	if dk == 1 && !dso {
		return 0.85
	}
	return 0.9
}

// rampRate is the grid-code active-power ramp limit in pu/s:
// min(0.2 pu/min, 60/Pn MW/min) with Pn in MW.
func rampRate(pn float64) float64 {
	return math.Min(0.2, 60/pn) / 60
}

// RampLimit returns the ramp-limited active power at time t for a reference
// step from pref to pstep at tstep, with slope m in pu/s. Before the step
// the pre-event value holds; after it the output ramps linearly and clamps
// at the target without overshoot.
func RampLimit(pref, pstep, tstep, m, t float64) float64 {
	if t <= tstep {
		return pref
	}
	if pstep > pref {
		return math.Min(m*(t-tstep)+pref, pstep)
	}
	return math.Max(-m*(t-tstep)+pref, pstep)
}

// lfsmCorner returns the LFSM corner frequency and droop slope for the
// area. DK1 activates at +/-0.2 Hz with 5 % droop, DK2 at +/-0.5 Hz with
// 4 % droop.
func lfsmCorner(f float64, dk int) (f1, s float64) {
	if dk == 1 {
		s = 5
		if f > NominalFrequency {
			return 50.2, s
		}
		return 49.8, s
	}
	s = 4
	if f > NominalFrequency {
		return 50.5, s
	}
	return 49.5, s
}

// LFSM computes the frequency-responsive active power for LFSM-O/LFSM-U.
// With fsm set, the reference is first advanced through the FSM droop law.
// The result is clamped to [0, 1] pu.
func LFSM(pref, f float64, dk int, fsm bool, sfsm, db float64) float64 {
	const pn = 1.0 // pu
	f1, s := lfsmCorner(f, dk)

	if fsm {
		pref = FSM(pref, f, dk, sfsm, db)
	}

	pnew := pref
	if (f > NominalFrequency && f > f1) || (f < NominalFrequency && f < f1) {
		pnew = pref - 100/s*(f-f1)/NominalFrequency*pn
	}
	return math.Max(0, math.Min(1, pnew))
}

// FSM computes the deadband-limited FSM droop response. The frequency is
// saturated at the area's LFSM corner frequencies, and the output is
// clamped to pref +/- 10 % of nominal power.
func FSM(pref, f float64, dk int, s, db float64) float64 {
	const pn = 1.0 // pu
	fRU, fRO := 49.8, 50.2
	if dk != 1 {
		fRU, fRO = 49.5, 50.5
	}
	f = math.Max(fRU, math.Min(fRO, f))

	pnew := pref
	if f < NominalFrequency {
		if f < NominalFrequency-db {
			pnew = pref - 100/s*(f-NominalFrequency+db)/NominalFrequency*pn
		}
	} else {
		if f > NominalFrequency+db {
			pnew = pref - 100/s*(f-NominalFrequency-db)/NominalFrequency*pn
		}
	}
	return math.Max(pref-0.1*pn, math.Min(pref+0.1*pn, pnew))
}

// IdealQU computes the reactive power required by the Q(U) voltage-droop
// law, clamped to +/-NominalQ.
func IdealQU(qref, uref, upos, s float64) float64 {
	dU := uref - upos
	dQ := 100 * dU / uref * NominalQ / s
	return math.Max(-NominalQ, math.Min(NominalQ, qref+dQ))
}

// GuideQU is the Q(U) law with the fault-ride-through cutoff: while the
// voltage is below the area's FRT threshold the Q(U) reference is clamped
// at NominalQ and the FFC law takes over.
func GuideQU(qref, uref, upos, s float64, dk int, dso bool) float64 {
	if upos < FrtLimit(dk, dso) {
		return NominalQ
	}
	return IdealQU(qref, uref, upos, s)
}

// QPF computes the reactive power for fixed power-factor control,
// Q = P*tan(arccos(PF)), clamped to +/-NominalQ.
func QPF(p, pf float64) float64 {
	q := p * math.Tan(math.Acos(pf))
	return math.Max(-NominalQ, math.Min(NominalQ, q))
}

// IdealFFC computes the fast-fault-current contribution (id, iq) from the
// positive-sequence voltage. Above the FRT threshold the pre-fault currents
// are held; in a shallow dip iq follows the area's linear law in voltage;
// below 0.5 pu the full 1.0 pu reactive current is required. The remaining
// direct current fills the current limit.
func IdealFFC(upos, id, iq float64, dk int, dso bool) (idFFC, iqFFC float64) {
	limit := FrtLimit(dk, dso)
	imax := 1 / limit

	switch {
	case upos >= limit:
		return id, iq
	case upos > 0.5:
		iqFFC = ffcSlope(upos, dk, dso)
	default:
		iqFFC = 1.0
	}
	idFFC = math.Sqrt(imax*imax - iqFFC*iqFFC)
	return idFFC, iqFFC
}

// GuideFFC computes the required reactive current during a dip on top of
// the pre-fault current iq0. Above the FRT threshold iq0 is unchanged.
func GuideFFC(upos, iq0 float64, dk int, dso bool) float64 {
	limit := FrtLimit(dk, dso)
	switch {
	case upos >= limit:
		return iq0
	case upos > 0.5:
		return ffcSlope(upos, dk, dso) + iq0
	default:
		return 1.0 + iq0
	}
}

// ffcSlope is the linear voltage law for the additional reactive current in
// a shallow dip. The slope and intercept differ per area.
func ffcSlope(upos float64, dk int, dso bool) float64 {
	if dk == 2 || dso {
		return -1/0.4*upos + 2.25
	}
	return -1/0.35*upos + 2.42857
}

// Hysteresis thresholds and power deadband of the LFSM ramp limiter.
const (
	lfsmRampLower   = 0.020  // |f-fn| below which ramping resumes [Hz]
	lfsmRampUpper   = 0.040  // |f-fn| above which LFSM takes over [Hz]
	lfsmRampPThresh = 0.0001 // setpoint deadband [pu]
)

type rampRegime int

const (
	regimeRamping rampRegime = iota
	regimeLFSMActive
)

// LFSMRampFold runs the ramp-limited LFSM recurrence over an ordered
// sample sequence. A two-threshold hysteresis band on |f-fn| switches
// between the ramping regime, where power moves toward the instantaneous
// reference pref[k] at the capped ramp rate, and the LFSM-active regime,
// where power is recomputed from the droop law using the delayed/filtered
// frequency and the last ramping-regime value as the droop anchor. The
// accumulator carries (regime, anchor) forward; samples must be in time
// order.
func LFSMRampFold(pref, f, fFilt []float64, p0, pn, ts float64, dk int, fsm bool, sfsm, db float64) []float64 {
	out := make([]float64, len(f))
	if len(f) == 0 {
		return out
	}
	out[0] = p0
	m := rampRate(pn)
	regime := regimeRamping
	anchor := pref[0]

	for k := 1; k < len(f); k++ {
		switch dev := math.Abs(f[k] - NominalFrequency); {
		case dev > lfsmRampUpper:
			regime = regimeLFSMActive
		case dev < lfsmRampLower:
			regime = regimeRamping
		}

		if regime == regimeRamping {
			prev := out[k-1]
			target := pref[k]
			switch {
			case math.Abs(target-prev) <= lfsmRampPThresh:
				out[k] = prev
			case target > prev:
				out[k] = math.Min(prev+m*ts, target)
			default:
				out[k] = math.Max(prev-m*ts, target)
			}
			anchor = out[k]
		} else {
			out[k] = LFSM(anchor, fFilt[k-1], dk, fsm, sfsm, db)
		}
	}
	return out
}

// maskBefore overwrites samples with t < threshold with a steady-state
// value, eliminating initialization transients from delayed or filtered
// guide signals.
func maskBefore(t, y []float64, threshold, value float64) {
	for i, tv := range t {
		if tv < threshold {
			y[i] = value
		}
	}
}
