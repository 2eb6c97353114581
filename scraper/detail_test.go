package scraper

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"business-scraper/models"
	"business-scraper/utils"
)

func detailSite() *Site {
	return &Site{
		Name:            "test",
		ListingURL:      listingURL,
		DefaultCategory: "Gasthaus",
		Fields: []models.FieldSpec{
			{Name: FieldName, Selectors: []string{"h1"}, Mode: models.ModeText},
			{Name: FieldStreet, Selectors: []string{".street"}, Mode: models.ModeText},
			{Name: FieldAddress, Selectors: []string{".address"}, Mode: models.ModeText},
			{Name: FieldPostal, Selectors: []string{".postal-code"}, Mode: models.ModeText},
			{Name: FieldCity, Selectors: []string{".city"}, Mode: models.ModeText},
			{Name: FieldPhone, Selectors: []string{".phone"}, Mode: models.ModeText},
			{Name: FieldEmail, Selectors: []string{"a[href^='mailto:']"}, Mode: models.ModeAttribute, Attribute: "href"},
			{Name: FieldCategory, Selectors: []string{".category"}, Mode: models.ModeText},
			{Name: "hours", Selectors: []string{".hours"}, Mode: models.ModeText},
		},
	}
}

const itemURL = "https://dir.test/firma/1"

func TestScrapeItemAssemblesRecord(t *testing.T) {
	web := newFakeWeb(map[string]string{itemURL: `<html><body>
		<h1>Gasthaus Zur Schmied'n</h1>
		<span class="street">St.-Peter-Hauptstraße 225</span>
		<span class="postal-code">8042</span>
		<span class="city">Graz</span>
		<span class="phone">+43 316 821106</span>
		<a href="mailto:Gasthaus@Stainzerbauer.at">Mail</a>
		<span class="hours">Mo-Fr 10-22</span>
		<a href="https://www.facebook.com/schmiedn">fb</a>
		<a href="https://www.facebook.com/other">fb2</a>
		<a href="https://instagram.com/schmiedn">ig</a>
	</body></html>`})
	d := NewDetailScraper(detailSite(), Options{Clock: fixedClock}, utils.NewDiscardLogger())

	rec, err := d.ScrapeItem(context.Background(), newFakePage(web), models.ListingItem{URL: itemURL, Label: "Schmied'n"})
	if err != nil {
		t.Fatalf("ScrapeItem: %v", err)
	}
	want := &models.Record{
		Name:     "Gasthaus Zur Schmied'n",
		Category: "Gasthaus",
		Address:  "St.-Peter-Hauptstraße 225, 8042, Graz",
		Phone:    "+43 316 821106",
		Email:    "gasthaus@stainzerbauer.at",
		SocialLinks: map[string]string{
			"facebook":  "https://www.facebook.com/schmiedn",
			"instagram": "https://instagram.com/schmiedn",
		},
		Attributes: map[string]string{"hours": "Mo-Fr 10-22"},
		Source:     itemURL,
		CapturedAt: fixedTime,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("ScrapeItem mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeItemAddressAliasAndPartialParts(t *testing.T) {
	web := newFakeWeb(map[string]string{itemURL: `<h1>Salon</h1><p class="address">Ringstraße 5</p><p class="city">Wien</p><p class="category">Friseur</p>`})
	d := NewDetailScraper(detailSite(), Options{}, utils.NewDiscardLogger())

	rec, err := d.ScrapeItem(context.Background(), newFakePage(web), models.ListingItem{URL: itemURL})
	if err != nil || rec == nil {
		t.Fatalf("ScrapeItem = %v, %v", rec, err)
	}
	if rec.Address != "Ringstraße 5, Wien" {
		t.Errorf("Address = %q", rec.Address)
	}
	if rec.Category != "Friseur" {
		t.Errorf("Category = %q, want extracted value over default", rec.Category)
	}
}

func TestScrapeItemWithoutNameReturnsNil(t *testing.T) {
	web := newFakeWeb(map[string]string{itemURL: `<html><body><span class="city">Graz</span></body></html>`})
	d := NewDetailScraper(detailSite(), Options{}, utils.NewDiscardLogger())

	rec, err := d.ScrapeItem(context.Background(), newFakePage(web), models.ListingItem{URL: itemURL})
	if err != nil {
		t.Fatalf("ScrapeItem: %v", err)
	}
	if rec != nil {
		t.Errorf("ScrapeItem = %+v, want nil", rec)
	}
}

func TestScrapeItemNavigationError(t *testing.T) {
	d := NewDetailScraper(detailSite(), Options{}, utils.NewDiscardLogger())

	_, err := d.ScrapeItem(context.Background(), newFakePage(newFakeWeb(nil)), models.ListingItem{URL: itemURL})
	if _, ok := err.(*NavigationError); !ok {
		t.Errorf("err = %v (%T), want *NavigationError", err, err)
	}
}

func TestScrapeItemScansContacts(t *testing.T) {
	web := newFakeWeb(map[string]string{itemURL: `<html><body>
		<h1>Gasthaus</h1><p class="address">Hauptplatz 1</p>
		<footer>Kontakt: Tel. 0316 / 82 11 06, office@gasthaus.at</footer>
	</body></html>`})
	site := detailSite()
	site.ScanContacts = true
	d := NewDetailScraper(site, Options{}, utils.NewDiscardLogger())

	rec, err := d.ScrapeItem(context.Background(), newFakePage(web), models.ListingItem{URL: itemURL})
	if err != nil || rec == nil {
		t.Fatalf("ScrapeItem = %v, %v", rec, err)
	}
	if rec.Phone != "0316 / 82 11 06" || rec.Email != "office@gasthaus.at" {
		t.Errorf("scanned phone=%q email=%q", rec.Phone, rec.Email)
	}
}

func TestJoinAddress(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"St.-Peter-Hauptstraße 225", "8042", "Graz"}, "St.-Peter-Hauptstraße 225, 8042, Graz"},
		{[]string{"", "8042", " Graz "}, "8042, Graz"},
		{[]string{"", "", ""}, ""},
	}
	for _, tt := range tests {
		if got := JoinAddress(tt.parts...); got != tt.want {
			t.Errorf("JoinAddress(%q) = %q; want %q", tt.parts, got, tt.want)
		}
	}
}
