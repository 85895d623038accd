package result

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClassifyPsout(t *testing.T) {
	res, ok := Classify(filepath.Join("export", "proj_07.psout"))
	if !ok {
		t.Fatal("expected classification")
	}
	if res.Type != EMTPsout {
		t.Fatalf("expected EMT_PSOUT, got %s", res.Type)
	}
	if res.Rank != 7 || res.Project != "proj" {
		t.Fatalf("unexpected rank/project: %d %q", res.Rank, res.Project)
	}
}

func TestClassifyArchiveExtensions(t *testing.T) {
	for _, ext := range []string{"zip", "gz", "bz2", "xz"} {
		res, ok := Classify("plant_12." + ext)
		if !ok || res.Type != EMTArchive {
			t.Fatalf("ext %s: expected EMT_ARCHIVE, got %v ok=%v", ext, res.Type, ok)
		}
	}
}

func TestClassifyEMTCsvBySniff(t *testing.T) {
	path := writeTemp(t, "plant_3.csv", "time;P_pu_PoC;pll_f_hz\n0,0;0,5;50,0\n")
	res, ok := Classify(path)
	if !ok || res.Type != EMTCsv {
		t.Fatalf("expected EMT_CSV, got %v ok=%v", res.Type, ok)
	}
	if res.Rank != 3 {
		t.Fatalf("expected rank 3, got %d", res.Rank)
	}
}

func TestClassifyRMSBySecondLine(t *testing.T) {
	content := "##Grid,##Grid\n\"b:tnow in s\",\"m:Psum:bus1 in MW\"\n0.0,10.0\n"
	path := writeTemp(t, "plant_4.csv", content)
	res, ok := Classify(path)
	if !ok || res.Type != RMS {
		t.Fatalf("expected RMS, got %v ok=%v", res.Type, ok)
	}
}

func TestClassifyLegacyInf(t *testing.T) {
	path := writeTemp(t, "plant_9.inf", `PGB(1) Output Desc="P_pu_PoC" Group="MTB" Max=1.0 Min=0.0 Units=""`+"\n")
	res, ok := Classify(path)
	if !ok || res.Type != EMTInf {
		t.Fatalf("expected EMT_INF, got %v ok=%v", res.Type, ok)
	}
}

func TestClassifyRejectsUnknownPatterns(t *testing.T) {
	for _, name := range []string{"плант_1.csv", "plant.csv", "plant_1.txt", "plant_x.psout"} {
		if _, ok := Classify(name); ok {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	// Well-formed name but unrecognized content.
	path := writeTemp(t, "plant_5.csv", "some,other,format\n1,2,3\n")
	if _, ok := Classify(path); ok {
		t.Fatal("expected content sniff to reject the file")
	}
}

func TestColumnNameResolution(t *testing.T) {
	base := Result{Project: "plant", Group: "run1"}

	rms := base
	rms.Type = RMS
	if got := rms.ColumnName(`#Grid\m:f:bus1`); got != `##Grid\m:f:bus1` {
		t.Fatalf("RMS hierarchical: got %q", got)
	}
	if got := rms.ColumnName("plainname"); got != "plainname" {
		t.Fatalf("RMS verbatim: got %q", got)
	}

	emt := base
	emt.Type = EMTCsv
	if got := emt.ColumnName(`MTB\P_pu_PoC`); got != "P_pu_PoC" {
		t.Fatalf("EMT last segment: got %q", got)
	}

	psout := base
	psout.Type = EMTPsout
	if got := psout.ColumnName(`MTB\P_pu_PoC`); got != `MTB\P_pu_PoC` {
		t.Fatalf("PSOUT full name: got %q", got)
	}
}

func TestDisplayNameStripsMarkers(t *testing.T) {
	res := Result{Type: EMTCsv, Project: "plant", Group: "run1"}
	got := res.DisplayName(`MTB\$P_pu_PoC extra`)
	want := `run1\plant:P_pu_PoC`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
