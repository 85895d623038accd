package cases

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSettings parses the Settings sheet export: a semicolon-delimited file
// of Name;Value rows with one header row.
func ReadSettings(path string) (Settings, error) {
	file, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to open settings file: %w", err)
	}
	defer file.Close()
	return parseSettings(file)
}

func parseSettings(r io.Reader) (Settings, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	values := make(map[string]string)
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue // header or malformed row
		}
		values[strings.TrimSpace(row[0])] = strings.TrimSpace(row[1])
	}

	s := Settings{
		ProjectName:  values["Projectname"],
		Area:         values["Area"],
		DefaultQMode: values["Default Q mode"],
	}
	numeric := []struct {
		name string
		dst  *float64
	}{
		{"Un", &s.Un},
		{"Pn", &s.Pn},
		{"FSM droop", &s.FSMDroop},
		{"FSM deadband", &s.FSMDeadband},
		{"V droop", &s.VDroop},
		{"PF flat time", &s.PFFlatTime},
		{"PSCAD Initialization time", &s.PSCADInitTime},
	}
	for _, field := range numeric {
		raw, ok := values[field.name]
		if !ok {
			continue
		}
		v, err := parseDecimal(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("setting %q: %w", field.name, err)
		}
		*field.dst = v
	}
	if s.Area != "DK1" && s.Area != "DK2" {
		return Settings{}, fmt.Errorf("setting \"Area\" must be DK1 or DK2, got %q", s.Area)
	}
	return s, nil
}

// ReadCases parses the case sheet export: semicolon-delimited with two
// header rows (section, then field) flattened into "Section.Field" keys and
// one case per data row.
func ReadCases(path string) ([]Case, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open case file: %w", err)
	}
	defer file.Close()
	return parseCases(file)
}

func parseCases(r io.Reader) ([]Case, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read case sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("case sheet needs two header rows, got %d rows", len(rows))
	}

	// Flatten the two header rows into Section.Field keys. Section cells
	// are merged in the sheet, so empty cells inherit the previous section.
	sections := rows[0]
	fields := rows[1]
	keys := make([]string, len(fields))
	section := ""
	for i := range fields {
		if i < len(sections) && strings.TrimSpace(sections[i]) != "" {
			section = strings.TrimSpace(sections[i])
		}
		keys[i] = section + "." + strings.TrimSpace(fields[i])
	}

	var caseList []Case
	for rowIdx, row := range rows[2:] {
		record := make(map[string]string, len(keys))
		for i, val := range row {
			if i < len(keys) {
				record[keys[i]] = strings.TrimSpace(val)
			}
		}
		if record["Case.Rank"] == "" {
			continue
		}
		c, err := buildCase(record)
		if err != nil {
			return nil, fmt.Errorf("case sheet row %d: %w", rowIdx+3, err)
		}
		caseList = append(caseList, c)
	}
	return caseList, nil
}

func buildCase(record map[string]string) (Case, error) {
	rank, err := strconv.Atoi(record["Case.Rank"])
	if err != nil {
		return Case{}, fmt.Errorf("bad rank %q: %w", record["Case.Rank"], err)
	}
	name := record["Case.Name"]

	c := Case{
		Rank:        rank,
		Name:        name,
		Kind:        DetermineKind(name),
		EMT:         strings.EqualFold(record["Case.EMT"], "true") || record["Case.EMT"] == "1",
		Pmode:       record["Initial Settings.Pmode"],
		Qmode:       record["Initial Settings.Qmode"],
		StepProfile: strings.Contains(name, "step") && !strings.Contains(name, "pstep"),
	}
	initial := []struct {
		key string
		dst *float64
	}{
		{"Initial Settings.P0", &c.P0},
		{"Initial Settings.U0", &c.U0},
		{"Initial Settings.Qref0", &c.Qref0},
	}
	for _, field := range initial {
		if raw := record[field.key]; raw != "" {
			v, err := parseDecimal(raw)
			if err != nil {
				return Case{}, fmt.Errorf("%s: %w", field.key, err)
			}
			*field.dst = v
		}
	}

	for n := 1; ; n++ {
		prefix := fmt.Sprintf("Event %d.", n)
		typ := record[prefix+"type"]
		if typ == "" {
			break
		}
		ev := Event{Type: typ}
		timed := []struct {
			key string
			dst *float64
		}{
			{prefix + "time", &ev.Time},
			{prefix + "X1", &ev.X1},
			{prefix + "X2", &ev.X2},
		}
		for _, field := range timed {
			if raw := record[field.key]; raw != "" {
				v, err := parseDecimal(raw)
				if err != nil {
					return Case{}, fmt.Errorf("%s: %w", field.key, err)
				}
				*field.dst = v
			}
		}
		c.Events = append(c.Events, ev)
	}
	return c, nil
}

// parseDecimal accepts both point and comma decimal separators; the sheet
// exports use whichever the workstation locale produced.
func parseDecimal(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return strconv.ParseFloat(raw, 64)
}
