package scraper

import (
	"context"
	"strings"

	"business-scraper/browser"
	"business-scraper/models"
	"business-scraper/utils"
)

// FieldExtractor resolves FieldSpecs against a loaded page.
type FieldExtractor struct {
	logger *utils.Logger
}

func NewFieldExtractor(logger *utils.Logger) *FieldExtractor {
	return &FieldExtractor{logger: logger}
}

// Extract tries spec's selectors in order. The first selector that matches an
// element decides the result; later selectors are not queried. Empty text or a
// missing attribute yields no value. Selector errors count as no match.
func (e *FieldExtractor) Extract(ctx context.Context, page browser.Page, spec models.FieldSpec) (string, bool) {
	for _, sel := range spec.Selectors {
		if ctx.Err() != nil {
			return "", false
		}

		el, err := page.QuerySelector(ctx, sel)
		if err != nil {
			e.logger.Debug("[extract] %s: selector %q failed: %v", spec.Name, sel, err)
			continue
		}
		if el == nil {
			continue
		}
		return valueOf(el, spec)
	}
	return "", false
}

// ExtractAll extracts every spec and returns only the fields that produced a value.
func (e *FieldExtractor) ExtractAll(ctx context.Context, page browser.Page, specs []models.FieldSpec) map[string]string {
	values := make(map[string]string, len(specs))
	for _, spec := range specs {
		if v, ok := e.Extract(ctx, page, spec); ok {
			values[spec.Name] = v
		}
	}
	return values
}

func valueOf(el *browser.Element, spec models.FieldSpec) (string, bool) {
	var v string
	if spec.Mode == models.ModeAttribute {
		attr, ok := el.Attr(spec.Attribute)
		if !ok {
			return "", false
		}
		v = attr
	} else {
		v = el.Text
	}

	v = strings.TrimSpace(v)
	return v, v != ""
}
