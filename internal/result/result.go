package result

import (
	"strings"
)

// Type identifies the family of a simulation result file.
type Type int

const (
	// RMS is the PowerFactory tabular export with a two-row header.
	RMS Type = iota
	// EMTInf is the PSCAD legacy .inf descriptor plus .out data files.
	EMTInf
	// EMTPsout is the PSCAD binary .psout container.
	EMTPsout
	// EMTCsv is the semicolon-delimited CSV conversion of a .psout file.
	EMTCsv
	// EMTArchive is an EMT CSV wrapped in a zip/gz/bz2/xz archive.
	EMTArchive
)

func (t Type) String() string {
	switch t {
	case RMS:
		return "RMS"
	case EMTInf:
		return "EMT_INF"
	case EMTPsout:
		return "EMT_PSOUT"
	case EMTCsv:
		return "EMT_CSV"
	case EMTArchive:
		return "EMT_ARCHIVE"
	}
	return "UNKNOWN"
}

// IsEMT reports whether the type belongs to the EMT family.
func (t Type) IsEMT() bool {
	return t == EMTInf || t == EMTPsout || t == EMTCsv || t == EMTArchive
}

// Result describes one classified result file. The type is immutable once
// classified; several results may share a rank when the same case was run
// through different sources.
type Result struct {
	Type     Type
	Rank     int
	Project  string
	BulkName string
	Path     string
	Group    string
}

// Shorthand is the label prefix used for every trace and metric column
// derived from this result.
func (r Result) Shorthand() string {
	return r.Group + `\` + r.Project
}

// ColumnName translates a raw hierarchical signal name from the cursor or
// figure setup into the concrete column name used by this result's format.
func (r Result) ColumnName(raw string) string {
	switch r.Type {
	case RMS:
		name := strings.TrimLeft(raw, "#")
		parts := strings.SplitN(name, `\`, 2)
		if len(parts) == 2 {
			return "##" + parts[0] + `\` + parts[1]
		}
		return name
	case EMTInf, EMTCsv, EMTArchive:
		// Only the last part of the hierarchical name appears in the file.
		parts := strings.Split(raw, `\`)
		return parts[len(parts)-1]
	case EMTPsout:
		return raw
	}
	return raw
}

// DisplayName builds the label shown for a signal in plots and cursor
// tables: the result shorthand plus the first whitespace-delimited token of
// the resolved name, with marker characters stripped.
func (r Result) DisplayName(raw string) string {
	name := raw
	switch r.Type {
	case RMS:
		name = strings.TrimLeft(raw, "#")
	case EMTInf, EMTCsv, EMTArchive:
		parts := strings.Split(raw, `\`)
		name = parts[len(parts)-1]
	}
	token := name
	if i := strings.IndexByte(name, ' '); i >= 0 {
		token = name[:i]
	}
	return strings.ReplaceAll(r.Shorthand()+":"+token, "$", "")
}
