package storage

import "business-scraper/models"

// RecordWriter is the interface any storage backend must satisfy.
type RecordWriter interface {
	Write(records []models.Record) error
	Close() error
}

// RecordValidator decides which records a ResultSink accepts.
type RecordValidator interface {
	Explain(rec models.Record) error
}
