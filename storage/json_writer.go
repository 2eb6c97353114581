package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"business-scraper/models"
)

// JSONWriter writes all records as one indented JSON array.
type JSONWriter struct {
	mu      sync.Mutex
	path    string
	records []models.Record
}

// NewJSONWriter prepares a JSON export at path. The file is written on Close.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json: create output dir: %w", err)
	}
	return &JSONWriter{path: path, records: []models.Record{}}, nil
}

func (j *JSONWriter) Write(records []models.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, records...)
	return nil
}

// Path returns the file being written.
func (j *JSONWriter) Path() string { return j.path }

// Close writes the collected records to disk.
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(j.records, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}
	if err := os.WriteFile(j.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", j.path, err)
	}
	return nil
}
