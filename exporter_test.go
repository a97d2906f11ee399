package gotdoa

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImplementsExporter(t *testing.T) {
	implements := func(Exporter) {}
	implements(new(CSVExporter))
}

func TestCSVExportFail(t *testing.T) {
	_, err := NewCSVExporter([]string{"step"}, "/noNoNoNo/", "temp.csv", uuid.New())
	if err == nil {
		t.Fatal("no issue when trying to create a file in a missing directory")
	}
}

func TestCSVExport(t *testing.T) {
	tr1, _ := NewTracker("t1", 3)
	tr2, _ := NewTracker("t2", 3)
	headers := CSVHeaders(tr1, tr2)
	runID := uuid.New()
	ce, err := NewCSVExporter(headers, t.TempDir(), "temp.csv", runID)
	require.NoError(t, err)
	assert.Equal(t, runID, ce.RunID())

	rec := StepRecord{
		Step:              2,
		Time:              1,
		Target:            Pose2D{1, 2, 0.5},
		Trackers:          [2]Pose2D{{3, 4, 0}, {5, 6, 1}},
		Controls:          [2][ControlSize]float64{{1, 0.1}, {2, -0.1}},
		RangeDifference:   -1.5,
		LocalizationError: 0.25,
		Solutions:         1000,
	}
	require.Len(t, rec.Fields(), len(headers))
	require.NoError(t, ce.Write(rec))
	require.NoError(t, ce.Close())

	data, err := os.ReadFile(ce.Name())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# Run: "+runID.String(), lines[0])
	assert.Equal(t, strings.Join(headers, ","), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "2.000000,1.000000,1.000000,2.000000,0.500000,3.000000"))
	assert.Contains(t, lines[2], "t2_omega")
	assert.True(t, strings.HasPrefix(lines[4], "# Closing date"))
}
