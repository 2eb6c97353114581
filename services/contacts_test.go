package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindPhones(t *testing.T) {
	text := "Tel. +43 316 821106 oder 0316/82-11-07. Öffnungszeiten 10-22. PLZ 8042"
	want := []string{"+43 316 821106", "0316/82-11-07"}
	if diff := cmp.Diff(want, FindPhones(text)); diff != "" {
		t.Errorf("FindPhones mismatch (-want +got):\n%s", diff)
	}
}

func TestFindEmails(t *testing.T) {
	text := "Schreiben Sie an gasthaus@stainzerbauer.at oder info@example.com."
	want := []string{"gasthaus@stainzerbauer.at", "info@example.com"}
	if diff := cmp.Diff(want, FindEmails(text)); diff != "" {
		t.Errorf("FindEmails mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifySocial(t *testing.T) {
	tests := []struct {
		link     string
		platform string
		ok       bool
	}{
		{"https://www.facebook.com/stainzerbauer", "facebook", true},
		{"https://instagram.com/stainzerbauer", "instagram", true},
		{"https://x.com/stainzerbauer", "twitter", true},
		{"https://at.linkedin.com/company/x", "linkedin", true},
		{"https://youtu.be/abc", "youtube", true},
		{"https://www.stainzerbauer.at", "", false},
		{"/relative/path", "", false},
		{"mailto:info@example.com", "", false},
	}

	for _, tt := range tests {
		platform, ok := ClassifySocial(tt.link)
		if platform != tt.platform || ok != tt.ok {
			t.Errorf("ClassifySocial(%q) = %q, %v; want %q, %v", tt.link, platform, ok, tt.platform, tt.ok)
		}
	}
}
