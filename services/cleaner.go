package services

import (
	"strings"
	"unicode"

	"business-scraper/models"
	"business-scraper/utils"
)

// Cleaner normalises extracted records and optionally removes duplicates.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Normalise collapses whitespace in every text field and strips link
// decorations from contact fields.
func (c *Cleaner) Normalise(r models.Record) models.Record {
	r = r.Clone()
	r.Name = normaliseText(r.Name)
	r.Category = normaliseText(r.Category)
	r.Address = normaliseText(r.Address)
	r.Description = normaliseText(r.Description)
	r.Phone = normaliseText(stripScheme(r.Phone, "tel:"))
	r.Email = strings.ToLower(normaliseText(stripQuery(stripScheme(r.Email, "mailto:"))))
	r.Website = normaliseText(r.Website)

	for k, v := range r.Attributes {
		r.Attributes[k] = normaliseText(v)
	}
	return r
}

// Dedup keeps the first record for each normalised name and address pair.
func (c *Cleaner) Dedup(records []models.Record) []models.Record {
	seen := make(map[string]struct{}, len(records))
	result := make([]models.Record, 0, len(records))

	for _, r := range records {
		key := dedupKey(r)
		if _, dup := seen[key]; dup {
			c.logger.Debug("[cleaner] Duplicate record skipped: %s", r.Name)
			continue
		}
		seen[key] = struct{}{}
		result = append(result, r)
	}

	c.logger.Info("[cleaner] Deduplicated %d → %d records (dropped %d)",
		len(records), len(result), len(records)-len(result))
	return result
}

func dedupKey(r models.Record) string {
	return strings.ToLower(normaliseText(r.Name)) + "|" + strings.ToLower(normaliseText(r.Address))
}

func stripScheme(s, scheme string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
		return s[len(scheme):]
	}
	return s
}

func stripQuery(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
