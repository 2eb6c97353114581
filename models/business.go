package models

import "time"

// SearchQuery describes one crawl invocation. It is not modified once a crawl starts.
type SearchQuery struct {
	Keyword  string `json:"keyword" yaml:"keyword"`
	Location string `json:"location" yaml:"location"`
	Limit    int    `json:"limit" yaml:"limit" validate:"gte=1"`
}

// ListingItem is one result discovered on a listing page.
type ListingItem struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// ExtractionMode selects what FieldSpec extraction reads from a matched element.
type ExtractionMode string

const (
	ModeText      ExtractionMode = "text"
	ModeAttribute ExtractionMode = "attribute"
)

// FieldSpec locates one output field through an ordered list of selector fallbacks.
type FieldSpec struct {
	Name      string         `json:"name" yaml:"name" validate:"required"`
	Selectors []string       `json:"selectors" yaml:"selectors" validate:"required,min=1,dive,required"`
	Mode      ExtractionMode `json:"mode" yaml:"mode" validate:"oneof=text attribute"`
	Attribute string         `json:"attribute,omitempty" yaml:"attribute,omitempty" validate:"required_if=Mode attribute"`
}

// Record is one assembled business entry. Name and Address are required; the
// remaining fields are optional and empty when absent.
type Record struct {
	Name        string            `json:"name" validate:"required"`
	Category    string            `json:"category"`
	Address     string            `json:"address" validate:"required"`
	Phone       string            `json:"phone,omitempty" validate:"omitempty,phonedigits"`
	Email       string            `json:"email,omitempty" validate:"omitempty,basicemail"`
	Website     string            `json:"website,omitempty"`
	Description string            `json:"description,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Source      string            `json:"source"`
	CapturedAt  time.Time         `json:"captured_at"`
}

// Clone returns a deep copy so accepted records cannot be changed through shared maps.
func (r Record) Clone() Record {
	r.SocialLinks = cloneMap(r.SocialLinks)
	r.Attributes = cloneMap(r.Attributes)
	return r
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ItemFailure records why a discovered item produced no record.
type ItemFailure struct {
	URL    string `json:"url"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// CrawlState is a step of the per-run state machine.
type CrawlState string

const (
	StateIdle              CrawlState = "idle"
	StateListingRequested  CrawlState = "listing_requested"
	StateResultsDiscovered CrawlState = "results_discovered"
	StateCompleted         CrawlState = "completed"
)

// ItemState is the per-item sub-state of a crawl run.
type ItemState string

const (
	ItemVisiting   ItemState = "visiting"
	ItemExtracting ItemState = "extracting"
	ItemValidated  ItemState = "validated"
	ItemRejected   ItemState = "rejected"
	ItemFailed     ItemState = "failed"
)

// CrawlOutcome is the result of one crawl run.
type CrawlOutcome struct {
	Site       string
	Query      SearchQuery
	State      CrawlState
	Discovered int
	Accepted   []Record
	Failures   []ItemFailure
	// Rejected counts records dropped by validation. They are not failures.
	Rejected   int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// InsightReport summarises the accepted records of one or more runs.
type InsightReport struct {
	TotalRecords     int
	Failures         int
	Rejected         int
	WithPhone        int
	WithEmail        int
	WithWebsite      int
	WithSocial       int
	ByCategory       map[string]int
	ByCity           map[string]int
	SocialByPlatform map[string]int
}
