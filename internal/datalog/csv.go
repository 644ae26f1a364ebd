package datalog

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVSink appends trial records to a CSV file and flushes after every row,
// so a crash or quit loses at most the trial in progress.
type CSVSink struct {
	f *os.File
	w *csv.Writer
}

// CreateCSV creates path and writes the header row.
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trial log: %w", err)
	}

	s := &CSVSink{f: f, w: csv.NewWriter(f)}
	if err := s.writeRow(Columns); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Write appends one record.
func (s *CSVSink) Write(r Record) error {
	return s.writeRow(r.Strings())
}

func (s *CSVSink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write trial log: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush trial log: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return fmt.Errorf("flush trial log: %w", err)
	}
	return s.f.Close()
}
