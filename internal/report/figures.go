// Package report renders the per-rank outputs: figure overlays of actual
// and reference traces, and the cursor metric tables as a PDF.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Figure describes one chart of a rank's figure grid: which signal roles
// to draw per format family and how to label the axes.
type Figure struct {
	Slot          int
	Title         string
	Units         string
	EMTSignals    []string
	RMSSignals    []string
	IncludeInCase []int
	ExcludeInCase []int
}

// ReadFigureSetup reads the semicolon-delimited figure setup. The result
// maps each rank mentioned in an include/exclude list to its effective
// figure list; key -1 holds the default list applied to every other rank.
// A figure with no include list is global and applies everywhere it is
// not excluded.
func ReadFigureSetup(path string) (map[int][]Figure, error) {
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
		return nil, fmt.Errorf("figure setup %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("figure setup %s: missing header row", path)
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

	var figures []Figure
	for _, row := range records[1:] {
		slot, err := strconv.Atoi(field(row, "figure"))
		if err != nil {
			return nil, fmt.Errorf("figure setup %s: bad figure number %q", path, field(row, "figure"))
		}
		fig := Figure{
			Slot:  slot,
			Title: field(row, "title"),
			Units: field(row, "units"),
		}
		for _, name := range []string{"emt_signal_1", "emt_signal_2", "emt_signal_3"} {
			if s := field(row, name); s != "" {
				fig.EMTSignals = append(fig.EMTSignals, s)
			}
		}
		for _, name := range []string{"rms_signal_1", "rms_signal_2", "rms_signal_3"} {
			if s := field(row, name); s != "" {
				fig.RMSSignals = append(fig.RMSSignals, s)
			}
		}
		fig.IncludeInCase, err = parseRankList(field(row, "include_in_case"))
		if err != nil {
			return nil, fmt.Errorf("figure setup %s, figure %d: %w", path, slot, err)
		}
		fig.ExcludeInCase, err = parseRankList(field(row, "exclude_in_case"))
		if err != nil {
			return nil, fmt.Errorf("figure setup %s, figure %d: %w", path, slot, err)
		}
		figures = append(figures, fig)
	}

	var global []Figure
	for _, fig := range figures {
		if len(fig.IncludeInCase) == 0 {
			global = append(global, fig)
		}
	}

	ranks := make(map[int]bool)
	for _, fig := range figures {
		for _, r := range fig.IncludeInCase {
			ranks[r] = true
		}
		for _, r := range fig.ExcludeInCase {
			ranks[r] = true
		}
	}

	setup := make(map[int][]Figure, len(ranks)+1)
	for r := range ranks {
		list := make([]Figure, 0, len(global))
		list = append(list, global...)
		for _, fig := range figures {
			if containsRank(fig.IncludeInCase, r) {
				list = append(list, fig)
			}
		}
		kept := list[:0]
		for _, fig := range list {
			if !containsRank(fig.ExcludeInCase, r) {
				kept = append(kept, fig)
			}
		}
		setup[r] = kept
	}
	setup[-1] = global
	return setup, nil
}

// FiguresForRank returns the figure list for a rank, falling back to the
// default list for ranks the setup never mentions.
func FiguresForRank(setup map[int][]Figure, rank int) []Figure {
	if figs, ok := setup[rank]; ok {
		return figs
	}
	return setup[-1]
}

func parseRankList(s string) ([]int, error) {
	var out []int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		r, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("bad rank %q", item)
		}
		if !containsRank(out, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func containsRank(list []int, r int) bool {
	for _, v := range list {
		if v == r {
			return true
		}
	}
	return false
}
