package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfigFile(t, `
[config]
resultsDir = out
genImage = false
genGuide = true
genCursorPDF = true
imageFormat = png
processes = 4
settingsFile = proj_settings.csv
casesFile = proj_cases.csv
figureSetup = figures.csv
cursorSetup = cursors.csv

[Simulation data paths]
PSCAD = C:\sim\pscad_export
PowerFactory = C:\sim\pf_export
`)

	cfg, err := readConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ResultsDir != "out" {
		t.Errorf("ResultsDir = %q", cfg.ResultsDir)
	}
	if cfg.GenImage {
		t.Error("GenImage should be false")
	}
	if cfg.Processes != 4 {
		t.Errorf("Processes = %d", cfg.Processes)
	}
	if cfg.SettingsFile != "proj_settings.csv" {
		t.Errorf("SettingsFile = %q", cfg.SettingsFile)
	}
	if len(cfg.SimDataDirs) != 2 {
		t.Fatalf("SimDataDirs = %v", cfg.SimDataDirs)
	}
	if cfg.SimDataDirs[0].Name != "PSCAD" || cfg.SimDataDirs[0].Path != `C:\sim\pscad_export` {
		t.Errorf("SimDataDirs[0] = %+v", cfg.SimDataDirs[0])
	}
	if cfg.SimDataDirs[1].Name != "PowerFactory" {
		t.Errorf("SimDataDirs[1] = %+v", cfg.SimDataDirs[1])
	}
}

func TestReadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[Simulation data paths]
local = data
`)

	cfg, err := readConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ResultsDir != "results" {
		t.Errorf("ResultsDir = %q", cfg.ResultsDir)
	}
	if !cfg.GenImage || !cfg.GenGuide || !cfg.GenCursorPDF {
		t.Error("generation toggles should default on")
	}
	if cfg.Processes != 1 {
		t.Errorf("Processes = %d", cfg.Processes)
	}
}

func TestReadConfigRejectsBadProcessCount(t *testing.T) {
	path := writeConfigFile(t, `
[config]
processes = 0

[Simulation data paths]
local = data
`)
	if _, err := readConfig(path); err == nil {
		t.Fatal("expected an error for processes = 0")
	}
}

func TestReadConfigRequiresDataPaths(t *testing.T) {
	path := writeConfigFile(t, `
[config]
processes = 2
`)
	if _, err := readConfig(path); err == nil {
		t.Fatal("expected an error when no data paths are configured")
	}
}
