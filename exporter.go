package gotdoa

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Exporter defines an export interface.
type Exporter interface {
	Write(StepRecord) error
	Close() error
}

// CSVExporter writes one line per simulation step.
type CSVExporter struct {
	delimiter string
	runID     uuid.UUID
	hdlr      *os.File
}

// CSVHeaders returns the column names matching StepRecord.Fields for the provided trackers.
func CSVHeaders(tracker1, tracker2 *Tracker) []string {
	hdr := []string{"step", "time", "target_x", "target_y", "target_theta"}
	for _, tr := range []*Tracker{tracker1, tracker2} {
		hdr = append(hdr, tr.StateNames()...)
		hdr = append(hdr, tr.ControlNames()...)
	}
	return append(hdr, "range_difference", "localization_error", "solutions")
}

// Close closes the file.
func (e CSVExporter) Close() (err error) {
	err = e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC()))
	if err != nil {
		return
	}
	return e.hdlr.Close()
}

// Write writes the step record to the CSV file.
func (e CSVExporter) Write(rec StepRecord) error {
	fields := rec.Fields()
	vals := make([]string, len(fields))
	for i, v := range fields {
		vals[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// RunID returns the identifier of the run written in the header.
func (e CSVExporter) RunID() uuid.UUID {
	return e.runID
}

// Name returns the path of the CSV file.
func (e CSVExporter) Name() string {
	return e.hdlr.Name()
}

// NewCSVExporter initializes a new CSV export in dir/filename.
func NewCSVExporter(headers []string, dir, filename string, runID uuid.UUID) (e *CSVExporter, err error) {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return
	}
	delimiter := ","
	_, err = f.WriteString(fmt.Sprintf("# Run: %s\n# Creation date (UTC): %s\n%s\n", runID, time.Now().UTC(), strings.Join(headers, delimiter)))
	if err != nil {
		f.Close()
		return nil, err
	}
	e = &CSVExporter{delimiter, runID, f}
	return
}
