package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Name", "Grade"},
		Rows: []map[string]string{
			{"Name": "Lina", "Grade": "excellent"},
			{"Name": "Omar", "Grade": "passed"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte(utf8BOM)))
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(out), utf8BOM)), "\n")
	assert.Equal(t, []string{"Name,Grade", "Lina,excellent", "Omar,passed"}, lines)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Phone"},
		Rows: []map[string]string{
			{"Name": "=HYPERLINK(\"x\")", "Phone": "+201001234567"},
			{"Name": "-cmd", "Phone": "@sum"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "'=HYPERLINK")
	assert.Contains(t, body, ",+201001234567\n")
	assert.Contains(t, body, "'-cmd,'@sum")
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Trainees")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter("Trainees").Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trainees")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Omar", "passed"}, rows[2])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", f.ContentType())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
