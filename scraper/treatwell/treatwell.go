// Package treatwell describes the Treatwell salon directory.
package treatwell

import (
	"business-scraper/models"
	"business-scraper/scraper"
)

// Site returns the Treatwell site definition. The search box takes only a
// keyword, so any location in the query is ignored.
func Site() *scraper.Site {
	return &scraper.Site{
		Name:            "treatwell",
		ListingURL:      "https://www.treatwell.de",
		DefaultCategory: "Beauty Salon",
		Search: scraper.SearchSpec{
			Mode:             scraper.SearchForm,
			DismissSelectors: []string{"button[data-testid='cookie-banner-accept-button']"},
			KeywordSelectors: []string{
				"#search-input",
				"input[placeholder*='Suche']",
				"input[placeholder*='search']",
				"input[placeholder*='Search']",
				"[data-testid='search-input']",
				"[data-testid='searchbox-input']",
				"#searchbox-input",
			},
			SubmitSelectors: []string{
				"button[type='submit']",
				"[data-testid='search-submit']",
				"[data-testid='search-button']",
				".search-button",
			},
		},
		ResultSelectors: []string{
			".salon-search-result",
			"[data-testid='salon-card']",
			".venue-card",
			".search-result-item",
		},
		ResultLinkSelector: ".salon-search-result a.salon-link, [data-testid='salon-card'] a, .venue-card a",
		Fields: []models.FieldSpec{
			scraper.TextField(scraper.FieldName, ".salon-name", "h1"),
			scraper.TextField(scraper.FieldAddress, ".salon-address", "[data-testid='venue-address']"),
			scraper.TextField(scraper.FieldCategory, ".salon-category"),
			scraper.TextField("rating", ".rating-score"),
			scraper.TextField("reviews", ".review-count"),
		},
		ScanContacts: true,
	}
}
