package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// MarksCSVExporter renders a marks sheet into CSV bytes: a short metadata
// block followed by the subject table.
type MarksCSVExporter struct{}

// NewMarksCSVExporter builds a CSV exporter.
func NewMarksCSVExporter() *MarksCSVExporter {
	return &MarksCSVExporter{}
}

// Render produces CSV encoded bytes for the marks sheet.
func (e *MarksCSVExporter) Render(sheet MarksSheet) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	meta := [][]string{
		{"Student", sheet.StudentName},
		{"Unit", sheet.UnitLabel},
		{"Percentage", sheet.Percentage},
	}
	for _, record := range meta {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv metadata: %w", err)
		}
	}
	if err := writer.Write([]string{"Subject", "Marks"}); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, entry := range sheet.Entries {
		if err := writer.Write([]string{entry.Subject, entry.Text}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
