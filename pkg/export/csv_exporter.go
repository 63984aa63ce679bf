package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a schedule as CSV, one row per scheduled segment.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes for the schedule. An empty schedule yields the
// header row only.
func (e *CSVExporter) Render(schedule Schedule) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(scheduleColumns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range schedule.Entries {
		if err := writer.Write(entry.record()); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
