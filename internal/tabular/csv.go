package tabular

import (
	"encoding/csv"
	"errors"
	"io"

	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

// csvSource streams rows from a CSV document without buffering the file.
type csvSource struct {
	reader *csv.Reader
	header map[int]string
	next   int
	done   bool
}

func newCSVSource(r io.Reader) (*csvSource, error) {
	reader := csv.NewReader(r)
	// Uploads routinely have ragged rows; length mismatches are a
	// per-cell concern for validation, not a decode failure.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to read csv header")
	}
	header, err := headerIndex(headerRow)
	if err != nil {
		return nil, err
	}

	return &csvSource{reader: reader, header: header}, nil
}

func (s *csvSource) Next() (Row, error) {
	if s.done {
		return Row{}, io.EOF
	}
	record, err := s.reader.Read()
	if err != nil {
		s.done = true
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to read csv row")
	}
	s.next++
	return Row{Index: s.next, Fields: rowFields(s.header, record)}, nil
}

func (s *csvSource) Close() error {
	s.done = true
	return nil
}
