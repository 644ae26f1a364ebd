package datalog

import (
	"errors"
	"fmt"
)

// Sink receives trial records, one call per trial.
type Sink interface {
	Write(r Record) error
	Close() error
}

// Multi writes every record to each sink in turn.
type Multi []Sink

// Write stops at the first failing sink.
func (m Multi) Write(r Record) error {
	for _, s := range m {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Memory keeps records in memory.
type Memory struct {
	Records []Record
	Closed  bool
}

func (m *Memory) Write(r Record) error {
	if m.Closed {
		return fmt.Errorf("write to closed sink")
	}
	m.Records = append(m.Records, r)
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
