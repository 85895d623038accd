package cases

// Settings is the per-project scalar configuration from the test-case
// sheet's Settings page. Read-only for the duration of a run.
type Settings struct {
	ProjectName   string
	Area          string  // "DK1" or "DK2"
	Un            float64 // nominal voltage [kV]
	Pn            float64 // nominal power [MW]
	FSMDroop      float64 // [%]
	FSMDeadband   float64 // [Hz]
	VDroop        float64 // Q(U) voltage droop [%]
	DefaultQMode  string  // mode substituted when a case selects "Default"
	PFFlatTime    float64 // PowerFactory flat-start offset [s]
	PSCADInitTime float64 // PSCAD initialization offset [s]
}

// DK returns the Danish synchronous-area number: 1 for DK1, otherwise 2.
func (s Settings) DK() int {
	if s.Area == "DK1" {
		return 1
	}
	return 2
}

// DSO reports whether the plant connects at distribution level. The TSO
// voltage cutoff is 110 kV; below that the DSO fault-ride-through limits
// apply.
func (s Settings) DSO() bool {
	return s.Un < 110
}
