package wko

import (
	"testing"

	"business-scraper/models"
	"business-scraper/scraper"
)

func TestSiteIsValid(t *testing.T) {
	site := Site()
	if err := site.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if site.Search.KeywordSelectors[0] != keywordInput {
		t.Errorf("keyword selector = %q", site.Search.KeywordSelectors[0])
	}
}

func TestContactFieldsReadLinks(t *testing.T) {
	for _, f := range Site().Fields {
		if f.Name == scraper.FieldEmail || f.Name == scraper.FieldWebsite {
			if f.Mode != models.ModeAttribute || f.Attribute != "href" {
				t.Errorf("%s = %+v, want href attribute", f.Name, f)
			}
		}
	}
}
