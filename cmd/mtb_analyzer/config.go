package main

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// SimDataDir is one labeled directory of simulation result files. The
// label becomes the group prefix of every trace from that directory.
type SimDataDir struct {
	Name string
	Path string
}

// Config is the run configuration read from config.ini.
type Config struct {
	ResultsDir   string
	GenImage     bool
	GenGuide     bool
	GenCursorPDF bool
	ImageFormat  string
	Processes    int
	SettingsFile string
	CasesFile    string
	FigureSetup  string
	CursorSetup  string
	SimDataDirs  []SimDataDir
}

func readConfig(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	section := file.Section("config")
	cfg := Config{
		ResultsDir:   section.Key("resultsDir").MustString("results"),
		GenImage:     section.Key("genImage").MustBool(true),
		GenGuide:     section.Key("genGuide").MustBool(true),
		GenCursorPDF: section.Key("genCursorPDF").MustBool(true),
		ImageFormat:  section.Key("imageFormat").MustString("png"),
		Processes:    section.Key("processes").MustInt(1),
		SettingsFile: section.Key("settingsFile").MustString("settings.csv"),
		CasesFile:    section.Key("casesFile").MustString("cases.csv"),
		FigureSetup:  section.Key("figureSetup").MustString("figureSetup.csv"),
		CursorSetup:  section.Key("cursorSetup").MustString("cursorSetup.csv"),
	}
	if cfg.Processes <= 0 {
		return Config{}, fmt.Errorf("config %s: processes must be positive, got %d", path, cfg.Processes)
	}

	paths := file.Section("Simulation data paths")
	for _, key := range paths.Keys() {
		cfg.SimDataDirs = append(cfg.SimDataDirs, SimDataDir{Name: key.Name(), Path: key.String()})
	}
	if len(cfg.SimDataDirs) == 0 {
		return Config{}, fmt.Errorf("config %s: no simulation data paths configured", path)
	}
	return cfg, nil
}
