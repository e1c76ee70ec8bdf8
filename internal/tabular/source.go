// Package tabular decodes uploaded mark files into a lazy sequence of raw
// rows. Decoding is format work only: cells pass through as strings and any
// semantic validation happens downstream, so formats and validation stay
// independently testable.
package tabular

import (
	"io"
	"path/filepath"
	"strings"

	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

// RequiredHeaders is the expected header set, matched case- and
// order-insensitively against the file's first row.
var RequiredHeaders = []string{"register_number", "student_name", "subject_code", "marks", "dob"}

// Row is one data record: its 1-based index within the file (header
// excluded) and a canonical-header to raw-cell map.
type Row struct {
	Index  int
	Fields map[string]string
}

// Source yields rows one at a time. Next returns io.EOF after the last row.
// Sources are finite and non-restartable.
type Source interface {
	Next() (Row, error)
	Close() error
}

// Open selects a decoder by file extension and verifies the header row.
// It fails with UnsupportedFormat for unknown containers and CorruptFile
// when the container or header cannot be decoded.
func Open(filename string, r io.Reader) (Source, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return newCSVSource(r)
	case ".xlsx":
		return newWorkbookSource(r)
	case ".xls":
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, "legacy .xls workbooks are not supported; re-save as .xlsx or .csv")
	default:
		return nil, appErrors.ErrUnsupportedFormat
	}
}

// headerIndex maps column positions to canonical header names and verifies
// every required header is present.
func headerIndex(cells []string) (map[int]string, error) {
	index := make(map[int]string, len(cells))
	seen := make(map[string]bool, len(cells))
	for i, cell := range cells {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		index[i] = name
		seen[name] = true
	}
	for _, required := range RequiredHeaders {
		if !seen[required] {
			return nil, appErrors.Clone(appErrors.ErrCorruptFile, "missing required column: "+required)
		}
	}
	return index, nil
}

// rowFields builds a Row field map from positional cells.
func rowFields(index map[int]string, cells []string) map[string]string {
	fields := make(map[string]string, len(index))
	for pos, name := range index {
		if pos < len(cells) {
			fields[name] = strings.TrimSpace(cells[pos])
		} else {
			fields[name] = ""
		}
	}
	return fields
}
