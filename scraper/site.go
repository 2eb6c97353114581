package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"business-scraper/models"
	"business-scraper/services"
)

// SearchMode selects how a query reaches the listing page.
type SearchMode string

const (
	SearchNone SearchMode = ""
	SearchForm SearchMode = "form"
	SearchURL  SearchMode = "url"
)

// SearchSpec describes the site's search entry point.
type SearchSpec struct {
	Mode SearchMode `yaml:"mode" validate:"omitempty,oneof=form url"`
	// ReadySelector is awaited before the form controls are probed.
	ReadySelector     string   `yaml:"ready_selector"`
	KeywordSelectors  []string `yaml:"keyword_selectors" validate:"required_if=Mode form"`
	LocationSelectors []string `yaml:"location_selectors"`
	SubmitSelectors   []string `yaml:"submit_selectors" validate:"required_if=Mode form"`
	// DismissSelectors are clicked, if present, before searching.
	DismissSelectors []string `yaml:"dismiss_selectors"`
	// URLTemplate may contain {keyword} and {location}.
	URLTemplate string `yaml:"url_template" validate:"required_if=Mode url"`
}

// Site is everything the crawler needs to know about one directory.
type Site struct {
	Name            string     `yaml:"name" validate:"required"`
	ListingURL      string     `yaml:"listing_url" validate:"required,url"`
	DefaultCategory string     `yaml:"default_category"`
	Search          SearchSpec `yaml:"search"`

	// ResultSelectors are awaited in order after the search; the first that
	// appears marks the results as loaded.
	ResultSelectors    []string `yaml:"result_selectors" validate:"required,min=1"`
	ResultLinkSelector string   `yaml:"result_link_selector" validate:"required"`

	Fields []models.FieldSpec `yaml:"fields" validate:"required,min=1,dive"`
	// ScanContacts fills a missing phone or email from the detail page text.
	ScanContacts bool `yaml:"scan_contacts"`
}

// Field names with a dedicated Record field. Everything else lands in Attributes.
const (
	FieldName        = "name"
	FieldCategory    = "category"
	FieldStreet      = "street"
	FieldAddress     = "address"
	FieldPostal      = "postal"
	FieldCity        = "city"
	FieldPhone       = "phone"
	FieldEmail       = "email"
	FieldWebsite     = "website"
	FieldDescription = "description"
)

var knownFields = map[string]bool{
	FieldName: true, FieldCategory: true, FieldStreet: true, FieldAddress: true,
	FieldPostal: true, FieldCity: true, FieldPhone: true, FieldEmail: true,
	FieldWebsite: true, FieldDescription: true,
}

// TextField extracts the trimmed text of the first element matching selectors.
func TextField(name string, selectors ...string) models.FieldSpec {
	return models.FieldSpec{Name: name, Selectors: selectors, Mode: models.ModeText}
}

// AttrField extracts attribute attr of the first element matching selectors.
func AttrField(name, attr string, selectors ...string) models.FieldSpec {
	return models.FieldSpec{Name: name, Selectors: selectors, Mode: models.ModeAttribute, Attribute: attr}
}

// LoadSite reads a YAML site definition.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("site: read %s: %w", path, err)
	}

	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("site: parse %s: %w", path, err)
	}
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("site: %s: %w", path, err)
	}
	return &site, nil
}

// Validate fills defaults and checks the definition.
func (s *Site) Validate() error {
	for i := range s.Fields {
		if s.Fields[i].Mode == "" {
			s.Fields[i].Mode = models.ModeText
		}
	}

	if err := services.NewRecordValidator().Check(s); err != nil {
		return err
	}

	for _, f := range s.Fields {
		if f.Name == FieldName {
			return nil
		}
	}
	return fmt.Errorf("site %q defines no %q field", s.Name, FieldName)
}
