package loader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/user/mtb_analyzer_go/internal/result"
)

const emtCsvContent = "time;P_pu_PoC;pll_f_hz\n" +
	"0,0;0,5;50,0\n" +
	"0,1;0,6;50,1\n" +
	"0,2;0,7;50,2\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEMTCsv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "proj_01.csv", emtCsvContent)

	table, err := Load(result.Result{Type: result.EMTCsv, Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.Len())
	}
	if table.Time[1] != 0.1 {
		t.Errorf("time[1] = %v, want 0.1", table.Time[1])
	}
	col, ok := table.Column("P_pu_PoC")
	if !ok || col[2] != 0.7 {
		t.Errorf("P_pu_PoC = %v (found %v)", col, ok)
	}
	if _, ok := table.Column("pll_f_hz"); !ok {
		t.Error("pll_f_hz column missing")
	}
}

func TestLoadEMTCsvRejectsWrongHeader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "proj_01.csv", "foo;bar\n1;2\n")
	if _, err := Load(result.Result{Type: result.EMTCsv, Path: path}); err == nil {
		t.Fatal("expected an error for a non time-indexed csv")
	}
}

func TestLoadRMS(t *testing.T) {
	content := "Results;##Grid;##Grid\n" +
		"\"b:tnow in s\";m:u1 in pu;m:Psum in MW\n" +
		"0,0;1,0;45,0\n" +
		"0,5;0,99;45,2\n"
	path := writeFile(t, t.TempDir(), "proj_03.csv", content)

	table, err := Load(result.Result{Type: result.RMS, Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	// RMS columns carry the composite element\variable name.
	col, ok := table.Column(`##Grid\m:Psum in MW`)
	if !ok || col[1] != 45.2 {
		t.Errorf("composite column = %v (found %v)", col, ok)
	}
	// The resolver produces the same composite for a raw setup name.
	res := result.Result{Type: result.RMS}
	if name := res.ColumnName(`##Grid\m:Psum in MW`); !table.HasColumn(name) {
		t.Errorf("resolved name %q not in table", name)
	}
}

func TestLoadEMTInf(t *testing.T) {
	dir := t.TempDir()
	inf := "PGB(1) Output Desc=\"P_pu_PoC\" Group=\"MTB\" Max=2.0 Min=-2.0 Units=\"\"\n" +
		"PGB(2) Output Desc=\"pll_f_hz\" Group=\"MTB\" Max=52.0 Min=48.0 Units=\"\"\n"
	writeFile(t, dir, "proj_02.inf", inf)
	writeFile(t, dir, "proj_02_01.out",
		" 0.000  0.500  50.000\n"+
			" 0.100  0.600  50.100\n")

	table, err := Load(result.Result{Type: result.EMTInf, Path: filepath.Join(dir, "proj_02.inf")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	col, ok := table.Column("pll_f_hz")
	if !ok || col[1] != 50.1 {
		t.Errorf("pll_f_hz = %v (found %v)", col, ok)
	}
}

func TestLoadEMTInfMissingDataFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "proj_02.inf", "PGB(1) Output Desc=\"x\" Group=\"MTB\"\n")
	if _, err := Load(result.Result{Type: result.EMTInf, Path: filepath.Join(dir, "proj_02.inf")}); err == nil {
		t.Fatal("expected an error when the data file is absent")
	}
}

func TestLoadGzipArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj_04.gz")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(file)
	if _, err := gz.Write([]byte(emtCsvContent)); err != nil {
		t.Fatal(err)
	}
	gz.Close()
	file.Close()

	table, err := Load(result.Result{Type: result.EMTArchive, Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !table.HasColumn("P_pu_PoC") {
		t.Error("P_pu_PoC column missing")
	}
}

func TestLoadZipArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj_05.zip")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(file)
	member, err := zw.Create("proj_05.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := member.Write([]byte(emtCsvContent)); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	file.Close()

	table, err := Load(result.Result{Type: result.EMTArchive, Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", table.Len())
	}
}

func TestLoadPsoutIsDescriptiveError(t *testing.T) {
	_, err := Load(result.Result{Type: result.EMTPsout, Path: "proj_06.psout"})
	if err == nil {
		t.Fatal("psout loading must fail with a descriptive error")
	}
}
