package storage

import (
	"errors"
	"fmt"
	"sync"

	"business-scraper/models"
	"business-scraper/utils"
)

// ResultSink collects the records of a run. Only records the validator accepts
// are kept, in the order they were accepted.
type ResultSink struct {
	validator RecordValidator
	logger    *utils.Logger

	mu      sync.Mutex
	records []models.Record
}

func NewResultSink(validator RecordValidator, logger *utils.Logger) *ResultSink {
	return &ResultSink{validator: validator, logger: logger}
}

// Accept stores rec if it is valid and reports whether it did.
func (s *ResultSink) Accept(rec models.Record) bool {
	if err := s.validator.Explain(rec); err != nil {
		s.logger.Debug("[sink] Rejected %q from %s: %v", rec.Name, rec.Source, err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec.Clone())
	return true
}

// Records returns a copy of the accepted records.
func (s *ResultSink) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of accepted records.
func (s *ResultSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// WriteAll hands records to every writer. A failing writer does not stop the
// others; all failures are returned together.
func WriteAll(records []models.Record, writers ...RecordWriter) error {
	var errs []error
	for _, w := range writers {
		if err := w.Write(records); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", w, err))
		}
	}
	return errors.Join(errs...)
}
