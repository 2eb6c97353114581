package scraper

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// NavigationError reports a page that could not be loaded.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// FormElementsNotFound reports which search form controls were missing.
type FormElementsNotFound struct {
	KeywordFound  bool
	LocationFound bool
	SubmitFound   bool
}

func (e *FormElementsNotFound) Error() string {
	return fmt.Sprintf("search form elements not found (keyword=%t location=%t submit=%t)",
		e.KeywordFound, e.LocationFound, e.SubmitFound)
}

// NoResultsFound reports that none of the result selectors appeared.
type NoResultsFound struct {
	Selectors []string
}

func (e *NoResultsFound) Error() string {
	return fmt.Sprintf("no results found after search (tried %s)", strings.Join(e.Selectors, ", "))
}
