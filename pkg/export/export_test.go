package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchedule() Schedule {
	return Schedule{
		ProjectTitle: "Go course",
		GeneratedAt:  time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC),
		Entries: []Entry{
			{Date: "2025-01-06", Start: "09:00", Title: "Intro", DurationMinutes: 45, Part: 1, Completed: true},
			{Date: "2025-01-08", Start: "09:00", Title: "Basics (Part 1)", DurationMinutes: 60, Part: 1},
			{Date: "2025-01-10", Start: "09:00", Title: "Basics (Part 2)", DurationMinutes: 30, Part: 2},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleSchedule())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Date,Start,Title,Duration (min),Part,Completed", lines[0])
	assert.Equal(t, "2025-01-06,09:00,Intro,45,1,yes", lines[1])
	assert.Equal(t, "2025-01-10,09:00,Basics (Part 2),30,2,no", lines[3])
}

func TestCSVExporterRenderEmptySchedule(t *testing.T) {
	payload, err := NewCSVExporter().Render(Schedule{ProjectTitle: "Empty"})
	require.NoError(t, err)
	assert.Equal(t, "Date,Start,Title,Duration (min),Part,Completed\n", string(payload))
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleSchedule())
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestScheduleTotalMinutes(t *testing.T) {
	assert.Equal(t, 135, sampleSchedule().TotalMinutes())
	assert.Equal(t, 0, Schedule{}.TotalMinutes())
}
