package tabular

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

func drain(t *testing.T, src Source) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := src.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestOpenCSV(t *testing.T) {
	data := "register_number,student_name,subject_code,marks,dob\n" +
		"R001,Anita,MATH101,88.5,2004-03-12\n" +
		"R002,Vikram,PHY102,72,12-07-2003\n"

	src, err := Open("marks.csv", strings.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	rows := drain(t, src)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, 2, rows[1].Index)
	assert.Equal(t, "R001", rows[0].Fields["register_number"])
	assert.Equal(t, "Anita", rows[0].Fields["student_name"])
	assert.Equal(t, "88.5", rows[0].Fields["marks"])
	assert.Equal(t, "12-07-2003", rows[1].Fields["dob"])
}

func TestOpenCSVHeaderCaseAndOrderInsensitive(t *testing.T) {
	data := "DOB,Marks,Subject_Code,STUDENT_NAME,Register_Number\n" +
		"2004-03-12,91,CHEM103,Meena,R003\n"

	src, err := Open("marks.csv", strings.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	rows := drain(t, src)
	require.Len(t, rows, 1)
	assert.Equal(t, "R003", rows[0].Fields["register_number"])
	assert.Equal(t, "91", rows[0].Fields["marks"])
	assert.Equal(t, "2004-03-12", rows[0].Fields["dob"])
}

func TestOpenCSVMissingHeader(t *testing.T) {
	data := "register_number,student_name,subject_code,marks\nR001,Anita,MATH101,88\n"

	_, err := Open("marks.csv", strings.NewReader(data))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCorruptFile.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "dob")
}

func TestOpenCSVEmptyFile(t *testing.T) {
	_, err := Open("marks.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCorruptFile.Code, appErrors.FromError(err).Code)
}

func TestOpenCSVShortRowPadsMissingCells(t *testing.T) {
	data := "register_number,student_name,subject_code,marks,dob\nR001,Anita,MATH101\n"

	src, err := Open("marks.csv", strings.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	rows := drain(t, src)
	require.Len(t, rows, 1)
	assert.Equal(t, "MATH101", rows[0].Fields["subject_code"])
	assert.Equal(t, "", rows[0].Fields["marks"])
	assert.Equal(t, "", rows[0].Fields["dob"])
}

func TestOpenUnsupportedExtensions(t *testing.T) {
	_, err := Open("marks.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)

	_, err = Open("marks.xls", strings.NewReader("x"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErr.Code)
	assert.Contains(t, appErr.Message, ".xlsx")
}

func workbookBytes(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestOpenWorkbook(t *testing.T) {
	r := workbookBytes(t, [][]interface{}{
		{"register_number", "student_name", "subject_code", "marks", "dob"},
		{"R010", "Kavya", "BIO104", 67.25, "05-11-2004"},
	})

	src, err := Open("marks.xlsx", r)
	require.NoError(t, err)
	defer src.Close()

	rows := drain(t, src)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "R010", rows[0].Fields["register_number"])
	assert.Equal(t, "BIO104", rows[0].Fields["subject_code"])
	assert.Equal(t, "05-11-2004", rows[0].Fields["dob"])
}

func TestOpenWorkbookMissingHeader(t *testing.T) {
	r := workbookBytes(t, [][]interface{}{
		{"register_number", "student_name", "marks", "dob"},
	})

	_, err := Open("marks.xlsx", r)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCorruptFile.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "subject_code")
}

func TestOpenWorkbookNotAWorkbook(t *testing.T) {
	_, err := Open("marks.xlsx", strings.NewReader("this is not a zip archive"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCorruptFile.Code, appErrors.FromError(err).Code)
}
