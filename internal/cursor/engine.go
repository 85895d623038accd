package cursor

import (
	"github.com/user/mtb_analyzer_go/internal/cases"
	"github.com/user/mtb_analyzer_go/internal/logging"
	"github.com/user/mtb_analyzer_go/internal/result"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

// Evaluator computes cursor metric columns for one project's results.
type Evaluator struct {
	Settings cases.Settings
	Log      *logging.Logger
}

// Column is one evaluated result column of a cursor table: the display
// name of the primary signal and one formatted value per metric row.
type Column struct {
	Name   string
	Values []string
}

// Evaluate computes the cursor's metrics against one result. The signal
// role list matching the result's format family is resolved against the
// table; the first resolved signal is the primary metric input, later
// signals feed the metrics that take auxiliary inputs. The returned column
// has len(Options) x len(Intervals) rows in option-major order. ok is
// false when no signal resolved at all, in which case the result
// contributes no column.
func (e *Evaluator) Evaluate(c Cursor, res result.Result, table *signals.Table, cs cases.Case) (Column, bool) {
	var roles []string
	switch {
	case res.Type == result.RMS:
		roles = c.RMSSignals
	case res.Type.IsEMT():
		roles = c.EMTSignals
	default:
		e.Log.Printf("File type %s unknown for cursor evaluation", res.Type)
		return Column{}, false
	}

	offset := e.Settings.PSCADInitTime
	if res.Type == result.RMS {
		offset = e.Settings.PFFlatTime
	}
	t := table.ShiftedTime(offset)

	// Resolve the signal roles. Missing columns are logged and dropped;
	// metrics that need them degrade to their error sentinel.
	var (
		columns []([]float64)
		name    string
	)
	for _, raw := range roles {
		colName := res.ColumnName(raw)
		col, ok := table.Column(colName)
		if !ok {
			e.Log.Printf("Signal column %q not found for cursor %q", colName, c.Title)
			continue
		}
		columns = append(columns, col)
		if name == "" {
			name = res.DisplayName(raw)
		}
	}
	if len(columns) == 0 {
		return Column{}, false
	}

	aux := func(i int, iv signals.Interval) signals.Window {
		if i >= len(columns) {
			return signals.Window{}
		}
		return signals.Slice(t, columns[i], iv)
	}

	col := Column{Name: name}
	for _, opt := range c.Options {
		for _, iv := range c.Intervals() {
			w := signals.Slice(t, columns[0], iv)

			var text string
			switch opt {
			case Start:
				text = metricStart(w)
			case End:
				text = metricEnd(w)
			case Delta:
				text = metricDelta(w)
			case Min:
				text = metricMin(w)
			case Max:
				text = metricMax(w)
			case Mean:
				text = metricMean(w)
			case GradMin, GradMax, GradMean:
				text = metricGrad(w, opt)
			case Response:
				text = metricResponse(w)
			case RiseFall:
				text = metricRiseFall(w)
			case Settling:
				text = metricSettling(w)
			case Overshoot:
				text = metricOvershoot(w)
			case FSMDroop:
				text = metricFSMDroop(w, aux(1, iv), e.Settings.FSMDeadband)
			case LFSMDroop:
				text = metricLFSMDroop(w, aux(1, iv), e.Settings.DK())
			case QUDroop:
				text = metricQUDroop(w, aux(1, iv), cs.U0)
			case QUTol:
				text = metricQUTol(w, aux(1, iv), cs, e.Settings)
			case FFCDelta:
				text = metricFFCDelta(w, aux(1, iv), e.Settings)
			default:
				e.Log.Printf("Cursor metric %v not defined", opt)
				text = "Unknown metric: error"
			}
			col.Values = append(col.Values, text)
		}
	}
	return col, true
}
