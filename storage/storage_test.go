package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"business-scraper/models"
	"business-scraper/services"
	"business-scraper/utils"
)

var capturedAt = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func sampleRecords() []models.Record {
	return []models.Record{
		{
			Name:        "Gasthaus Zur Schmied'n",
			Category:    "Gasthaus",
			Address:     "St.-Peter-Hauptstraße 225, 8042, Graz",
			Phone:       "+43 316 821106",
			Email:       "gasthaus@stainzerbauer.at",
			SocialLinks: map[string]string{"instagram": "https://instagram.com/s", "facebook": "https://facebook.com/s"},
			Attributes:  map[string]string{"hours": "Mo-Fr 10-22"},
			Source:      "https://firmen.wko.at/1",
			CapturedAt:  capturedAt,
		},
		{
			Name:       "Salon, Wien",
			Address:    "Ringstraße 5, Wien",
			Source:     "https://firmen.wko.at/2",
			CapturedAt: capturedAt,
		},
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("data", "wko_gasthaus", "csv", capturedAt)
	if want := filepath.Join("data", "wko_gasthaus_20260102_150405.csv"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if diff := cmp.Diff(csvHeader, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := []string{
		"Gasthaus Zur Schmied'n", "Gasthaus", "", "St.-Peter-Hauptstraße 225, 8042, Graz",
		"+43 316 821106", "gasthaus@stainzerbauer.at", "", "https://firmen.wko.at/1",
		"2026-01-02T15:04:05Z", "facebook: https://facebook.com/s, instagram: https://instagram.com/s",
		"hours: Mo-Fr 10-22",
	}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	if rows[2][0] != "Salon, Wien" {
		t.Errorf("quoted name = %q", rows[2][0])
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("NewJSONWriter: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []models.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(sampleRecords(), got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONWriterEmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]\n" {
		t.Errorf("empty export = %q, want []", data)
	}
}

func TestResultSinkAcceptsOnlyValidRecords(t *testing.T) {
	sink := NewResultSink(services.NewRecordValidator(), utils.NewDiscardLogger())

	valid := sampleRecords()
	if !sink.Accept(valid[0]) {
		t.Error("valid record rejected")
	}
	if sink.Accept(models.Record{Name: "No address"}) {
		t.Error("record without address accepted")
	}
	if sink.Accept(models.Record{Name: "Bad phone", Address: "x", Phone: "12-34"}) {
		t.Error("record with short phone accepted")
	}
	if !sink.Accept(valid[1]) {
		t.Error("valid record rejected")
	}

	got := sink.Records()
	if sink.Len() != 2 || got[0].Name != valid[0].Name || got[1].Name != valid[1].Name {
		t.Errorf("Records() = %+v", got)
	}

	got[0].Attributes["hours"] = "changed"
	if sink.Records()[0].Attributes["hours"] != "Mo-Fr 10-22" {
		t.Error("Records() exposes internal maps")
	}
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write([]models.Record) error { f.calls++; return errors.New("disk full") }
func (f *failingWriter) Close() error                { return nil }

type countingWriter struct{ n int }

func (c *countingWriter) Write(records []models.Record) error { c.n += len(records); return nil }
func (c *countingWriter) Close() error                        { return nil }

func TestWriteAllContinuesPastFailures(t *testing.T) {
	bad := &failingWriter{}
	good := &countingWriter{}

	err := WriteAll(sampleRecords(), bad, good)
	if err == nil {
		t.Fatal("expected joined error")
	}
	if good.n != 2 {
		t.Errorf("second writer got %d records, want 2", good.n)
	}
}
