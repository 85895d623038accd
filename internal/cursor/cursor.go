// Package cursor evaluates windowed compliance metrics over signal tables.
// A cursor names the metrics to compute, the signal roles to compute them
// on per result-format family, and the time intervals to restrict them to.
package cursor

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/user/mtb_analyzer_go/internal/signals"
)

// Type identifies one metric kind.
type Type int

const (
	TypeUnknown Type = iota
	Start
	End
	Delta
	Min
	Max
	Mean
	GradMin
	GradMax
	GradMean
	Response
	RiseFall
	Settling
	Overshoot
	FSMDroop
	LFSMDroop
	QUDroop
	QUTol
	FFCDelta
)

var typeNames = map[string]Type{
	"START":      Start,
	"END":        End,
	"DELTA":      Delta,
	"MIN":        Min,
	"MAX":        Max,
	"MEAN":       Mean,
	"GRAD_MIN":   GradMin,
	"GRAD_MAX":   GradMax,
	"GRAD_MEAN":  GradMean,
	"RESPONSE":   Response,
	"RISE_FALL":  RiseFall,
	"SETTLING":   Settling,
	"OVERSHOOT":  Overshoot,
	"FSM_DROOP":  FSMDroop,
	"LFSM_DROOP": LFSMDroop,
	"QU_DROOP":   QUDroop,
	"QU_TOL":     QUTol,
	"FFC_DELTA":  FFCDelta,
}

// TypeFromString parses a metric-kind token from a cursor setup file.
func TypeFromString(s string) (Type, error) {
	if t, ok := typeNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return TypeUnknown, fmt.Errorf("%q is not a valid cursor metric", s)
}

func (t Type) String() string {
	for name, typ := range typeNames {
		if typ == t {
			return name
		}
	}
	return "UNKNOWN"
}

// Cursor is one per-rank metric definition from the cursor setup sheet.
type Cursor struct {
	Rank       int
	Title      string
	Options    []Type
	EMTSignals []string
	RMSSignals []string
	TimeRanges []float64
}

// Intervals returns the cursor's time ranges paired into intervals.
func (c Cursor) Intervals() []signals.Interval {
	return signals.Intervals(c.TimeRanges)
}

// RowLabels returns the interval label for every metric row, in the same
// option-major order Evaluate produces values in.
func (c Cursor) RowLabels() []string {
	ivs := c.Intervals()
	labels := make([]string, 0, len(c.Options)*len(ivs))
	for range c.Options {
		for _, iv := range ivs {
			labels = append(labels, iv.String())
		}
	}
	return labels
}

// ReadCursorSetup reads a semicolon-delimited cursor setup file. List
// fields (options, signals, time ranges) are comma separated within their
// cell. An unknown metric token is a configuration defect and fails the
// whole read.
func ReadCursorSetup(path string) ([]Cursor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cursor setup %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("cursor setup %s: missing header row", path)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var cursors []Cursor
	for _, row := range records[1:] {
		rank, err := strconv.Atoi(field(row, "rank"))
		if err != nil {
			return nil, fmt.Errorf("cursor setup %s: bad rank %q", path, field(row, "rank"))
		}
		c := Cursor{
			Rank:       rank,
			Title:      field(row, "title"),
			EMTSignals: splitList(field(row, "emt_signals")),
			RMSSignals: splitList(field(row, "rms_signals")),
		}
		for _, tok := range splitList(field(row, "cursor_options")) {
			t, err := TypeFromString(tok)
			if err != nil {
				return nil, fmt.Errorf("cursor setup %s, rank %d: %w", path, rank, err)
			}
			c.Options = append(c.Options, t)
		}
		for _, tok := range splitList(field(row, "time_ranges")) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("cursor setup %s, rank %d: bad time range %q", path, rank, tok)
			}
			c.TimeRanges = append(c.TimeRanges, v)
		}
		cursors = append(cursors, c)
	}
	return cursors, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
