// Package wko describes the WKO company directory (firmen.wko.at).
package wko

import (
	"business-scraper/models"
	"business-scraper/scraper"
)

const (
	listingURL = "https://firmen.wko.at/SearchSimple.aspx"

	// ASP.NET control ids of the simple search form.
	keywordInput  = "#ctl00_ContentPlaceHolder1_searchBoxLoaderControl_ctl00_txtSuchbegriff"
	locationInput = "#ctl00_ContentPlaceHolder1_searchBoxLoaderControl_ctl00_txtStandort"
	searchButton  = "#ctl00_ContentPlaceHolder1_searchBoxLoaderControl_ctl00_btnSearch"
)

// Site returns the WKO site definition.
func Site() *scraper.Site {
	return &scraper.Site{
		Name:       "wko",
		ListingURL: listingURL,
		Search: scraper.SearchSpec{
			Mode:              scraper.SearchForm,
			ReadySelector:     "#aspnetForm",
			KeywordSelectors:  []string{keywordInput},
			LocationSelectors: []string{locationInput},
			SubmitSelectors:   []string{searchButton},
		},
		ResultSelectors: []string{
			".SearchResultItem",
			".firmen-liste > div",
			"[itemtype*='Organization']",
			".search-results",
			".Suchergebnis",
		},
		ResultLinkSelector: "h3.firmenlisting-title a, a.firmenlisting-link",
		Fields: []models.FieldSpec{
			scraper.TextField(scraper.FieldName, "h1.company-name", ".firmenlisting-title", "h3"),
			scraper.TextField(scraper.FieldAddress, ".address", ".firmenlisting-address"),
			scraper.TextField(scraper.FieldPostal, ".postal-code"),
			scraper.TextField(scraper.FieldCity, ".city"),
			scraper.TextField(scraper.FieldPhone, ".phone", "a[href^='tel:']"),
			scraper.AttrField(scraper.FieldEmail, "href", "a[href^='mailto:']"),
			scraper.AttrField(scraper.FieldWebsite, "href", ".website a", "a[href^='http']:not([href*='wko.at'])"),
			scraper.TextField(scraper.FieldDescription, ".description", ".company-description"),
			scraper.TextField(scraper.FieldCategory, ".category", ".business-type"),
		},
	}
}
