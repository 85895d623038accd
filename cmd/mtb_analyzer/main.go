// Command mtb_analyzer post-processes grid-code compliance test runs: it
// classifies simulation result files per rank, synthesizes ideal and guide
// reference responses, evaluates cursor metrics and renders figure and
// table reports.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/user/mtb_analyzer_go/internal/cases"
	"github.com/user/mtb_analyzer_go/internal/cursor"
	"github.com/user/mtb_analyzer_go/internal/loader"
	"github.com/user/mtb_analyzer_go/internal/logging"
	"github.com/user/mtb_analyzer_go/internal/reference"
	"github.com/user/mtb_analyzer_go/internal/report"
	"github.com/user/mtb_analyzer_go/internal/result"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

func main() {
	log := logging.New("mtb_analyzer.log")
	defer log.Close()

	if err := run(log); err != nil {
		log.Printf("Fatal: %v", err)
		os.Exit(1)
	}
}

func run(log *logging.Logger) error {
	cfg, err := readConfig("config.ini")
	if err != nil {
		return err
	}
	log.Printf("Starting analyzer")
	log.Printf("Configuration: resultsDir=%s processes=%d genImage=%t genGuide=%t genCursorPDF=%t",
		cfg.ResultsDir, cfg.Processes, cfg.GenImage, cfg.GenGuide, cfg.GenCursorPDF)

	settings, err := cases.ReadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}
	caseList, err := cases.ReadCases(cfg.CasesFile)
	if err != nil {
		return err
	}
	caseByRank := make(map[int]cases.Case, len(caseList))
	for _, cs := range caseList {
		caseByRank[cs.Rank] = cs
	}

	cursors, err := cursor.ReadCursorSetup(cfg.CursorSetup)
	if err != nil {
		return err
	}
	figureSetup, err := report.ReadFigureSetup(cfg.FigureSetup)
	if err != nil {
		return err
	}

	results := mapResultFiles(cfg, log)
	if len(results) == 0 {
		return fmt.Errorf("no result files recognized under the configured data paths")
	}

	runID := uuid.NewString()[:8]
	outDir := filepath.Join(cfg.ResultsDir, "MTB_"+runID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	log.Printf("Writing outputs to %s", outDir)

	// Bounded worker pool over ranks. Ranks share nothing but the logger.
	ranks := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []int

	worker := func() {
		defer wg.Done()
		for rank := range ranks {
			p := rankProcessor{
				cfg:         cfg,
				log:         log,
				settings:    settings,
				outDir:      outDir,
				cursors:     cursors,
				figureSetup: figureSetup,
			}
			if err := p.process(rank, results[rank], caseByRank); err != nil {
				log.Printf("Rank %d failed: %v", rank, err)
				mu.Lock()
				failed = append(failed, rank)
				mu.Unlock()
			}
		}
	}
	for i := 0; i < cfg.Processes; i++ {
		wg.Add(1)
		go worker()
	}
	for rank := range results {
		ranks <- rank
	}
	close(ranks)
	wg.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("%d rank(s) failed", len(failed))
	}
	log.Printf("All ranks processed")
	return nil
}

// mapResultFiles scans the configured data directories and groups the
// recognized result files by rank. Unrecognized files are skipped.
func mapResultFiles(cfg Config, log *logging.Logger) map[int][]result.Result {
	results := make(map[int][]result.Result)
	for _, dir := range cfg.SimDataDirs {
		entries, err := os.ReadDir(dir.Path)
		if err != nil {
			log.Printf("Cannot read data directory %s: %v", dir.Path, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			res, ok := result.Classify(filepath.Join(dir.Path, entry.Name()))
			if !ok {
				continue
			}
			res.Group = dir.Name
			results[res.Rank] = append(results[res.Rank], res)
		}
	}
	return results
}

// rankProcessor runs the per-rank pipeline: load each result, derive the
// reference responses, evaluate the cursors and render the outputs.
type rankProcessor struct {
	cfg         Config
	log         *logging.Logger
	settings    cases.Settings
	outDir      string
	cursors     []cursor.Cursor
	figureSetup map[int][]report.Figure
}

func (p *rankProcessor) process(rank int, results []result.Result, caseByRank map[int]cases.Case) error {
	cs, haveCase := caseByRank[rank]
	if !haveCase {
		p.log.Printf("Rank %d has results but no case definition, skipping reference responses", rank)
		cs = cases.Case{Rank: rank}
	}

	var rankCursors []cursor.Cursor
	for _, c := range p.cursors {
		if c.Rank == rank {
			rankCursors = append(rankCursors, c)
		}
	}
	figures := report.FiguresForRank(p.figureSetup, rank)

	gen := &reference.Generator{Settings: p.settings, Log: p.log}
	eval := &cursor.Evaluator{Settings: p.settings, Log: p.log}

	cursorTables := make([]report.CursorTable, len(rankCursors))
	for i, c := range rankCursors {
		cursorTables[i] = report.CursorTable{Title: c.Title, Labels: c.RowLabels()}
	}
	figureTraces := make(map[int][]report.Trace, len(figures))

	for _, res := range results {
		p.log.Printf("Processing: %s", res.Path)
		table, err := loader.Load(res)
		if err != nil {
			p.log.Printf("Cannot load %s: %v", res.Path, err)
			continue
		}

		var overlays []reference.Overlay
		if haveCase {
			ideal, err := gen.Ideal(res, table, cs)
			if err != nil {
				return err
			}
			overlays = append(overlays, ideal...)
			if p.cfg.GenGuide {
				guide, err := gen.Guide(res, table, cs)
				if err != nil {
					return err
				}
				overlays = append(overlays, guide...)
			}
		}

		for i, c := range rankCursors {
			col, ok := eval.Evaluate(c, res, table, cs)
			if ok {
				cursorTables[i].Columns = append(cursorTables[i].Columns, col)
			}
		}

		if p.cfg.GenImage {
			p.collectTraces(figures, figureTraces, res, table, overlays)
		}
	}

	if p.cfg.GenImage {
		if err := p.renderFigures(rank, figures, figureTraces); err != nil {
			return err
		}
	}
	if p.cfg.GenCursorPDF && len(cursorTables) > 0 {
		path := filepath.Join(p.outDir, fmt.Sprintf("rank_%d_cursors.pdf", rank))
		if err := report.BuildCursorPDF(path, p.settings.ProjectName, rank, cs.Name, cursorTables); err != nil {
			return err
		}
		p.log.Printf("Exported cursor tables for rank %d to %s", rank, path)
	}
	p.log.Printf("Rank %d done", rank)
	return nil
}

// collectTraces gathers this result's actual signals plus its reference
// overlays into the rank's figure trace lists.
func (p *rankProcessor) collectTraces(figures []report.Figure, traces map[int][]report.Trace, res result.Result, table *signals.Table, overlays []reference.Overlay) {
	offset := p.settings.PSCADInitTime
	if res.Type == result.RMS {
		offset = p.settings.PFFlatTime
	}
	t := table.ShiftedTime(offset)

	for _, fig := range figures {
		roles := fig.EMTSignals
		if res.Type == result.RMS {
			roles = fig.RMSSignals
		}
		for _, raw := range roles {
			col, ok := table.Column(res.ColumnName(raw))
			if !ok {
				p.log.Printf("Signal %q not found for figure %q in %s", raw, fig.Title, res.Path)
				continue
			}
			traces[fig.Slot] = append(traces[fig.Slot], report.Trace{
				Label: res.DisplayName(raw),
				T:     t,
				Y:     col,
			})
		}
		for _, ov := range overlays {
			if ov.Figure != fig.Title {
				continue
			}
			col, ok := table.Column(ov.Signal)
			if !ok {
				continue
			}
			traces[fig.Slot] = append(traces[fig.Slot], report.Trace{
				Label:     res.Shorthand() + ":" + ov.Signal,
				T:         t,
				Y:         col,
				Reference: true,
			})
		}
	}
}

func (p *rankProcessor) renderFigures(rank int, figures []report.Figure, traces map[int][]report.Trace) error {
	for _, fig := range figures {
		list := traces[fig.Slot]
		if len(list) == 0 {
			continue
		}
		png, err := report.FigurePNG(fig, list)
		if err != nil {
			return err
		}
		path := filepath.Join(p.outDir, fmt.Sprintf("rank_%d_fig%d_%s.%s", rank, fig.Slot, fig.Title, p.cfg.ImageFormat))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return err
		}
		p.log.Printf("Exported figure %q for rank %d to %s", fig.Title, rank, path)
	}
	return nil
}
