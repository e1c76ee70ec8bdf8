package tabular

import (
	"io"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

// workbookSource streams rows from the first sheet of an xlsx workbook.
type workbookSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	header map[int]string
	next   int
	done   bool
}

func newWorkbookSource(r io.Reader) (*workbookSource, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to open workbook")
	}

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		return nil, appErrors.Clone(appErrors.ErrCorruptFile, "workbook has no sheets")
	}

	rows, err := file.Rows(sheets[0])
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to read workbook rows")
	}

	if !rows.Next() {
		_ = rows.Close()
		_ = file.Close()
		return nil, appErrors.Clone(appErrors.ErrCorruptFile, "workbook has no header row")
	}
	headerRow, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to read workbook header")
	}
	header, err := headerIndex(headerRow)
	if err != nil {
		_ = rows.Close()
		_ = file.Close()
		return nil, err
	}

	return &workbookSource{file: file, rows: rows, header: header}, nil
}

func (s *workbookSource) Next() (Row, error) {
	if s.done {
		return Row{}, io.EOF
	}
	if !s.rows.Next() {
		s.done = true
		if err := s.rows.Error(); err != nil {
			return Row{}, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to advance workbook rows")
		}
		return Row{}, io.EOF
	}
	cells, err := s.rows.Columns()
	if err != nil {
		s.done = true
		return Row{}, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to read workbook row")
	}
	s.next++
	return Row{Index: s.next, Fields: rowFields(s.header, cells)}, nil
}

func (s *workbookSource) Close() error {
	s.done = true
	if s.rows != nil {
		_ = s.rows.Close()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
