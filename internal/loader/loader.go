// Package loader materializes classified result files into signal tables.
// Each format family has its own reader; the table columns come out named
// the way the result's name resolution expects them.
package loader

import (
	"archive/zip"
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/user/mtb_analyzer_go/internal/result"
	"github.com/user/mtb_analyzer_go/internal/signals"
)

// Load reads the result file into a signal table.
func Load(res result.Result) (*signals.Table, error) {
	switch res.Type {
	case result.RMS:
		return loadRMS(res.Path)
	case result.EMTCsv:
		return loadEMTCsvFile(res.Path)
	case result.EMTInf:
		return loadEMTInf(res.Path)
	case result.EMTArchive:
		return loadArchive(res.Path)
	case result.EMTPsout:
		// The .psout container is only readable through the vendor's
		// automation library; the toolchain converts it to csv upstream.
		return nil, fmt.Errorf("%s: psout results must be converted to csv before processing", res.Path)
	}
	return nil, fmt.Errorf("%s: unknown result type %s", res.Path, res.Type)
}

// parseDecimal parses a number that may use a decimal comma.
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

// loadRMS reads a PowerFactory export: semicolon separated with decimal
// commas and two header rows. Column names join both header rows the way
// the RMS name resolution composes them.
func loadRMS(path string) (*signals.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readRMS(file, path)
}

func readRMS(r io.Reader, path string) (*signals.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: missing element header row", path)
	}
	elements := splitSemicolon(scanner.Text())
	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: missing variable header row", path)
	}
	variables := splitSemicolon(scanner.Text())
	if len(variables) != len(elements) {
		return nil, fmt.Errorf("%s: header rows disagree on column count", path)
	}

	names := make([]string, len(elements))
	for i := range elements {
		names[i] = elements[i] + `\` + variables[i]
	}
	return readColumns(scanner, names, path)
}

// loadEMTCsvFile reads a converted PSCAD export: a single `time;...`
// header row, semicolon separated with decimal commas.
func loadEMTCsvFile(path string) (*signals.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readEMTCsv(file, path)
}

func readEMTCsv(r io.Reader, path string) (*signals.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	names := splitSemicolon(scanner.Text())
	if len(names) == 0 || names[0] != "time" {
		return nil, fmt.Errorf("%s: not a time-indexed csv export", path)
	}
	return readColumns(scanner, names, path)
}

// readColumns reads the data body shared by the csv formats: the first
// column is the time axis, the rest become table columns under names.
func readColumns(scanner *bufio.Scanner, names []string, path string) (*signals.Table, error) {
	columns := make([][]float64, len(names))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitSemicolon(line)
		if len(fields) != len(names) {
			return nil, fmt.Errorf("%s: row has %d fields, header has %d", path, len(fields), len(names))
		}
		for i, field := range fields {
			v, err := parseDecimal(field)
			if err != nil {
				return nil, fmt.Errorf("%s: bad value %q in column %s", path, field, names[i])
			}
			columns[i] = append(columns[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(columns[0]) == 0 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	table := signals.NewTable(columns[0])
	for i := 1; i < len(names); i++ {
		if err := table.AddColumn(names[i], columns[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return table, nil
}

func splitSemicolon(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ";")
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"`)
	}
	// A trailing separator produces one empty field; drop it.
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	return fields
}

// channelsPerOutFile is the fixed channel count per legacy PSCAD data file.
const channelsPerOutFile = 10

// loadEMTInf reads a legacy PSCAD result: a PGB channel descriptor file
// plus numbered whitespace-delimited data files next to it. Channel n
// lives in data file (n-1)/10 + 1, column (n-1)%10 + 1; every data file's
// first column repeats the time axis.
func loadEMTInf(path string) (*signals.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "PGB(") {
			continue
		}
		desc := ""
		if i := strings.Index(line, `Desc="`); i >= 0 {
			rest := line[i+len(`Desc="`):]
			if j := strings.IndexByte(rest, '"'); j >= 0 {
				desc = rest[:j]
			}
		}
		if desc == "" {
			return nil, fmt.Errorf("%s: channel descriptor without Desc field: %s", path, line)
		}
		names = append(names, desc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: no PGB channel descriptors", path)
	}

	base := strings.TrimSuffix(path, ".inf")
	numFiles := (len(names) + channelsPerOutFile - 1) / channelsPerOutFile

	var (
		time    []float64
		columns [][]float64
	)
	for idx := 1; idx <= numFiles; idx++ {
		outPath := fmt.Sprintf("%s_%02d.out", base, idx)
		t, cols, err := readOutFile(outPath)
		if err != nil {
			return nil, err
		}
		if time == nil {
			time = t
		} else if len(t) != len(time) {
			return nil, fmt.Errorf("%s: data file row count differs from %s", outPath, base)
		}
		columns = append(columns, cols...)
	}
	if len(columns) < len(names) {
		return nil, fmt.Errorf("%s: %d channels declared but only %d data columns found", path, len(names), len(columns))
	}

	table := signals.NewTable(time)
	for i, name := range names {
		if err := table.AddColumn(name, columns[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return table, nil
}

func readOutFile(path string) (time []float64, columns [][]float64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if first {
			// The first line is a title row in some exports; skip it when
			// it does not parse as numbers.
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				first = false
				continue
			}
			first = false
		}
		if columns == nil {
			columns = make([][]float64, len(fields)-1)
		}
		if len(fields)-1 != len(columns) {
			return nil, nil, fmt.Errorf("%s: inconsistent column count", path)
		}
		for i, field := range fields {
			v, perr := strconv.ParseFloat(field, 64)
			if perr != nil {
				return nil, nil, fmt.Errorf("%s: bad value %q", path, field)
			}
			if i == 0 {
				time = append(time, v)
			} else {
				columns[i-1] = append(columns[i-1], v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(time) == 0 {
		return nil, nil, fmt.Errorf("%s: no data rows", path)
	}
	return time, columns, nil
}

// loadArchive opens a compressed csv export. Zip archives contribute
// their first .csv member; the stream compressors wrap a single export.
func loadArchive(path string) (*signals.Table, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".zip") {
		return loadZip(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(lower, ".bz2"):
		r = bzip2.NewReader(file)
	case strings.HasSuffix(lower, ".xz"):
		xzr, err := xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		r = xzr
	default:
		return nil, fmt.Errorf("%s: unsupported archive extension", path)
	}
	return readEMTCsv(r, path)
}

func loadZip(path string) (*signals.Table, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer rc.Close()
		return readEMTCsv(rc, path+"!"+member.Name)
	}
	return nil, fmt.Errorf("%s: no csv member in archive", path)
}
