package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	src := "Name,Faculty ID,phone\nLina,F-1,0501\n,,\nOmar,F-2\n"

	rows, err := Read("trainees.CSV", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "F-1", rows[0].Get("facultyId"))
	assert.Equal(t, "0501", rows[0].Get("phone"))

	assert.Equal(t, 4, rows[1].Number)
	assert.Equal(t, "Omar", rows[1].Get("name"))
	assert.Empty(t, rows[1].Get("phone"))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "email"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Admin One", "one@example.com"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Read("admins.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "one@example.com", rows[0].Get("Email"))
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	_, err := Read("notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupported)
}
