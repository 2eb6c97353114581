package scraper

import (
	"context"
	"strings"
	"time"

	"business-scraper/browser"
	"business-scraper/models"
	"business-scraper/services"
	"business-scraper/utils"
)

// DetailScraper turns one detail page into a Record.
type DetailScraper struct {
	site      *Site
	extractor *FieldExtractor
	cleaner   *services.Cleaner
	opts      Options
	logger    *utils.Logger
}

func NewDetailScraper(site *Site, opts Options, logger *utils.Logger) *DetailScraper {
	return &DetailScraper{
		site:      site,
		extractor: NewFieldExtractor(logger),
		cleaner:   services.NewCleaner(logger),
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// ScrapeItem visits item and assembles its record. A page without a name
// yields a nil record and a nil error.
func (d *DetailScraper) ScrapeItem(ctx context.Context, page browser.Page, item models.ListingItem) (*models.Record, error) {
	if err := d.Visit(ctx, page, item); err != nil {
		return nil, err
	}
	return d.Extract(ctx, page, item), nil
}

// Visit loads item's detail page.
func (d *DetailScraper) Visit(ctx context.Context, page browser.Page, item models.ListingItem) error {
	return navigate(ctx, page, d.opts.Retry, item.URL, browser.WaitDOMReady, d.opts.DetailTimeout)
}

// Extract assembles a record from the loaded detail page, or returns nil when
// the page has no name.
func (d *DetailScraper) Extract(ctx context.Context, page browser.Page, item models.ListingItem) *models.Record {
	values := d.extractor.ExtractAll(ctx, page, d.site.Fields)
	if values[FieldName] == "" {
		d.logger.Debug("[detail] No name on %s, dropping", item.URL)
		return nil
	}

	rec := models.Record{
		Name:        values[FieldName],
		Category:    firstNonEmpty(values[FieldCategory], d.site.DefaultCategory),
		Address:     JoinAddress(firstNonEmpty(values[FieldStreet], values[FieldAddress]), values[FieldPostal], values[FieldCity]),
		Phone:       values[FieldPhone],
		Email:       values[FieldEmail],
		Website:     values[FieldWebsite],
		Description: values[FieldDescription],
		SocialLinks: d.socialLinks(ctx, page),
		Source:      item.URL,
		CapturedAt:  d.opts.Clock(),
	}
	for name, v := range values {
		if knownFields[name] {
			continue
		}
		if rec.Attributes == nil {
			rec.Attributes = make(map[string]string)
		}
		rec.Attributes[name] = v
	}

	if d.site.ScanContacts && (rec.Phone == "" || rec.Email == "") {
		d.scanContacts(ctx, page, &rec)
	}

	rec = d.cleaner.Normalise(rec)
	d.logger.Debug("[detail] Extracted %q from %s", rec.Name, item.URL)
	return &rec
}

// JoinAddress joins the non-empty address parts with ", ".
func JoinAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// socialLinks returns the first link found for each social platform.
func (d *DetailScraper) socialLinks(ctx context.Context, page browser.Page) map[string]string {
	anchors, err := page.QuerySelectorAll(ctx, "a[href]")
	if err != nil {
		d.logger.Debug("[detail] Could not list links: %v", err)
		return nil
	}

	var links map[string]string
	for _, a := range anchors {
		href, _ := a.Attr("href")
		platform, ok := services.ClassifySocial(href)
		if !ok {
			continue
		}
		if links == nil {
			links = make(map[string]string)
		}
		if _, exists := links[platform]; !exists {
			links[platform] = href
		}
	}
	return links
}

// scanContacts fills a missing phone or email from the visible page text.
func (d *DetailScraper) scanContacts(ctx context.Context, page browser.Page, rec *models.Record) {
	body, err := page.QuerySelector(ctx, "body")
	if err != nil || body == nil {
		return
	}
	if rec.Phone == "" {
		if phones := services.FindPhones(body.Text); len(phones) > 0 {
			rec.Phone = phones[0]
		}
	}
	if rec.Email == "" {
		if emails := services.FindEmails(body.Text); len(emails) > 0 {
			rec.Email = emails[0]
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func systemClock() time.Time { return time.Now() }
