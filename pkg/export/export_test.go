package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attendanceSheet() Dataset {
	return Dataset{
		Title:   "Robotics - attendance",
		Headers: []string{"student", "2024-03-04", "2024-03-11", "rate"},
		Rows: []map[string]string{
			{"student": "Kim", "2024-03-04": "PRESENT", "2024-03-11": "LATE", "rate": "100.0"},
			{"student": "Lee", "2024-03-04": "ABSENT", "2024-03-11": "", "rate": "0.0"},
		},
		Footer: []string{"course rate 50.0"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(false).Render(attendanceSheet())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "student,2024-03-04,2024-03-11,rate", lines[0])
	assert.Equal(t, "Lee,ABSENT,,0.0", lines[2])
	assert.Equal(t, "course rate 50.0", lines[3])
}

func TestCSVExporterBOM(t *testing.T) {
	out, err := NewCSVExporter(true).Render(Dataset{Headers: []string{"room"}, Rows: []map[string]string{{"room": "강당"}}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter(false).Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(attendanceSheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
