package cases

import (
	"fmt"
	"strings"
)

// Kind tags which control-law family a test case exercises. It is decided
// once, when the case list is loaded, so the reference-response generators
// and the metric engine dispatch on an explicit variant instead of matching
// case-name substrings at every call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPRampStep is an active-power reference step, checked against the
	// grid-code ramp-rate limit.
	KindPRampStep
	// KindFrequencySupport covers LFSM, LFSM+FSM and RoCoF cases.
	KindFrequencySupport
	// KindVoltageSupport covers Q(U) voltage-control cases.
	KindVoltageSupport
	// KindPowerFactorControl covers fixed power-factor cases.
	KindPowerFactorControl
	// KindFaultRideThrough covers LVFRT, fault and voltage-support-during-
	// fault cases with fast-fault-current requirements.
	KindFaultRideThrough
)

func (k Kind) String() string {
	switch k {
	case KindPRampStep:
		return "PRampStep"
	case KindFrequencySupport:
		return "FrequencySupport"
	case KindVoltageSupport:
		return "VoltageSupport"
	case KindPowerFactorControl:
		return "PowerFactorControl"
	case KindFaultRideThrough:
		return "FaultRideThrough"
	}
	return "Unknown"
}

// DetermineKind classifies a case from its name. The name conventions come
// from the test-case sheet: P_step, FSM/RoCoF, Ucontrol, Qpf and
// LVFRT/Fault/support families.
func DetermineKind(name string) Kind {
	switch {
	case strings.Contains(name, "P_step"):
		return KindPRampStep
	case strings.Contains(name, "FSM") || strings.Contains(name, "RoCoF"):
		return KindFrequencySupport
	case strings.Contains(name, "Ucontrol"):
		return KindVoltageSupport
	case strings.Contains(name, "Qpf"):
		return KindPowerFactorControl
	case strings.Contains(name, "LVFRT") || strings.Contains(name, "Fault") || strings.Contains(name, "support"):
		return KindFaultRideThrough
	}
	return KindUnknown
}

// Event is one timed disturbance applied during a case.
type Event struct {
	Type string
	Time float64
	X1   float64
	X2   float64
}

// Case is the per-rank case definition: control-mode selections, initial
// setpoints and timed events. Read-only input to the reference-response
// generators.
type Case struct {
	Rank  int
	Name  string
	Kind  Kind
	EMT   bool
	P0    float64
	U0    float64
	Qref0 float64
	Pmode string
	Qmode string
	// StepProfile separates frequency-step cases from ramp/RoCoF profiles
	// within KindFrequencySupport; it selects which guide variants apply.
	StepProfile bool
	Events      []Event
}

// FSMEnabled reports whether the case runs with FSM on top of LFSM.
func (c Case) FSMEnabled() bool {
	return c.Pmode == "LFSM+FSM"
}

// Event1 returns the first timed event, if any.
func (c Case) Event1() (Event, bool) {
	if len(c.Events) == 0 {
		return Event{}, false
	}
	return c.Events[0], true
}

// ResolveQMode maps the case's reactive-power mode selection to a concrete
// mode, substituting the project default where the case says so. An
// unresolvable selection is a case-definition defect and a hard failure.
func (c Case) ResolveQMode(defaultMode string) (string, error) {
	mode := c.Qmode
	if mode == "Default" || mode == "" {
		mode = defaultMode
	}
	switch mode {
	case "Q", "Q(U)", "PF":
		return mode, nil
	}
	return "", fmt.Errorf("rank %d: reactive control mode %q cannot be resolved by any law", c.Rank, mode)
}
