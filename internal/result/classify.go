package result

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\w+?)_([0-9]+)\.(inf|csv|psout|zip|gz|bz2|xz)$`)

// Classify identifies the format family, rank and project of a result file
// from its name and, for text formats, its first lines. Unrecognized files
// return ok == false and are skipped; that is not an error.
func Classify(path string) (Result, bool) {
	dir, fileName := filepath.Split(path)
	match := fileNamePattern.FindStringSubmatch(strings.ToLower(fileName))
	if match == nil {
		return Result{}, false
	}

	project := match[1]
	rank, err := strconv.Atoi(match[2])
	if err != nil {
		return Result{}, false
	}
	res := Result{
		Rank:     rank,
		Project:  project,
		BulkName: filepath.Join(dir, project),
		Path:     path,
	}

	switch match[3] {
	case "psout":
		res.Type = EMTPsout
		return res, true
	case "zip", "gz", "bz2", "xz":
		res.Type = EMTArchive
		return res, true
	}

	// .inf and .csv need a content sniff to tell the families apart.
	file, err := os.Open(path)
	if err != nil {
		return Result{}, false
	}
	defer file.Close()
	reader := bufio.NewReader(file)
	firstLine, _ := reader.ReadString('\n')

	switch {
	case match[3] == "inf" && strings.HasPrefix(firstLine, "PGB(1)"):
		res.Type = EMTInf
		return res, true
	case match[3] == "csv" && strings.HasPrefix(firstLine, "time;"):
		res.Type = EMTCsv
		return res, true
	case match[3] == "csv":
		secondLine, _ := reader.ReadString('\n')
		if strings.HasPrefix(secondLine, `"b:tnow in s"`) {
			res.Type = RMS
			return res, true
		}
	}
	return Result{}, false
}
