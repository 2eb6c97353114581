package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"business-scraper/browser"
	"business-scraper/models"
	"business-scraper/utils"
)

// SearchSubmitter puts a query into the site and triggers the search.
type SearchSubmitter interface {
	SubmitSearch(ctx context.Context, page browser.Page, query models.SearchQuery) error
}

// ListingCrawler turns a query into the result items of one listing page.
type ListingCrawler struct {
	site      *Site
	submitter SearchSubmitter
	opts      Options
	logger    *utils.Logger
}

func NewListingCrawler(site *Site, opts Options, logger *utils.Logger) *ListingCrawler {
	opts = opts.withDefaults()
	return &ListingCrawler{
		site:      site,
		submitter: newSubmitter(site.Search, opts, logger),
		opts:      opts,
		logger:    logger,
	}
}

func newSubmitter(spec SearchSpec, opts Options, logger *utils.Logger) SearchSubmitter {
	switch spec.Mode {
	case SearchForm:
		return &FormSubmitter{spec: spec, timeout: opts.ListingTimeout, elementWait: opts.ElementWait, logger: logger}
	case SearchURL:
		return &URLSubmitter{template: spec.URLTemplate, opts: opts}
	default:
		return nil
	}
}

// Discover loads the listing page, runs the search and returns at most
// query.Limit result items in page order.
func (l *ListingCrawler) Discover(ctx context.Context, page browser.Page, query models.SearchQuery) ([]models.ListingItem, error) {
	if l.opts.Robots != nil && !l.opts.Robots.Allowed(ctx, l.site.ListingURL) {
		return nil, fmt.Errorf("%s: %w", l.site.ListingURL, ErrDisallowed)
	}

	l.logger.Info("[listing] Navigating to %s", l.site.ListingURL)
	if err := navigate(ctx, page, l.opts.Retry, l.site.ListingURL, browser.WaitNetworkIdle, l.opts.ListingTimeout); err != nil {
		return nil, err
	}

	if l.submitter != nil {
		l.dismissOverlays(ctx, page)
		l.logger.Info("[listing] Submitting search, keyword: %q, location: %q", query.Keyword, query.Location)
		if err := l.submitter.SubmitSearch(ctx, page, query); err != nil {
			return nil, err
		}
	}

	found, err := l.waitForResults(ctx, page)
	if err != nil {
		return nil, err
	}
	l.logger.Info("[listing] Found results with selector: %s", found)

	links, err := page.QuerySelectorAll(ctx, l.site.ResultLinkSelector)
	if err != nil {
		return nil, fmt.Errorf("query result links %q: %w", l.site.ResultLinkSelector, err)
	}

	base := page.URL()
	seen := utils.NewURLSet()
	items := make([]models.ListingItem, 0, min(len(links), query.Limit))
	for _, link := range links {
		href, _ := link.Attr("href")
		target := resolveURL(base, href)
		if target == "" {
			continue
		}
		if !seen.Add(target) {
			l.logger.Debug("[listing] Skipping duplicate: %s", target)
			continue
		}
		items = append(items, models.ListingItem{
			URL:   target,
			Label: strings.Join(strings.Fields(link.Text), " "),
		})
		if len(items) >= query.Limit {
			break
		}
	}

	l.logger.Info("[listing] Found %d result links, keeping %d", len(links), len(items))
	return items, nil
}

// waitForResults returns the first result selector that appears.
func (l *ListingCrawler) waitForResults(ctx context.Context, page browser.Page) (string, error) {
	for _, sel := range l.site.ResultSelectors {
		if err := page.WaitForSelector(ctx, sel, l.opts.ResultWait); err == nil {
			return sel, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		l.logger.Debug("[listing] Result selector %q did not appear", sel)
	}
	return "", &NoResultsFound{Selectors: append([]string(nil), l.site.ResultSelectors...)}
}

// dismissOverlays clicks cookie banners and similar overlays when present.
func (l *ListingCrawler) dismissOverlays(ctx context.Context, page browser.Page) {
	for _, sel := range l.site.Search.DismissSelectors {
		if err := page.WaitForSelector(ctx, sel, l.opts.ElementWait); err != nil {
			l.logger.Debug("[listing] Overlay %q not shown", sel)
			continue
		}
		if err := page.Click(ctx, sel); err != nil {
			l.logger.Debug("[listing] Could not dismiss %q: %v", sel, err)
			continue
		}
		l.logger.Info("[listing] Dismissed overlay %q", sel)
	}
}

// FormSubmitter fills and submits an on-page search form.
type FormSubmitter struct {
	spec        SearchSpec
	timeout     time.Duration
	elementWait time.Duration
	logger      *utils.Logger
}

type formArgs struct {
	KeywordSel  string `json:"keywordSel"`
	LocationSel string `json:"locationSel"`
	SubmitSel   string `json:"submitSel"`
	Keyword     string `json:"keyword"`
	Location    string `json:"location"`
}

// submitScript fills the form and schedules the submit click so the script
// returns before the page starts navigating.
const submitScript = `(args) => {
	const what = document.querySelector(args.keywordSel);
	const where = args.locationSel ? document.querySelector(args.locationSel) : null;
	const submit = document.querySelector(args.submitSel);
	if (!what || !submit || (args.locationSel && !where)) {
		return false;
	}
	what.value = args.keyword;
	what.dispatchEvent(new Event("input", {bubbles: true}));
	if (where) {
		where.value = args.location;
		where.dispatchEvent(new Event("input", {bubbles: true}));
	}
	setTimeout(() => submit.click(), 0);
	return true;
}`

func (f *FormSubmitter) SubmitSearch(ctx context.Context, page browser.Page, query models.SearchQuery) error {
	// Without a ready selector each control gets its own bounded wait.
	wait := f.elementWait
	if f.spec.ReadySelector != "" {
		wait = 0
		if err := page.WaitForSelector(ctx, f.spec.ReadySelector, f.timeout); err != nil {
			f.logger.Warn("[listing] Search form %q not ready: %v", f.spec.ReadySelector, err)
		}
	}

	args := formArgs{
		KeywordSel:  firstPresent(ctx, page, f.spec.KeywordSelectors, wait),
		LocationSel: firstPresent(ctx, page, f.spec.LocationSelectors, wait),
		SubmitSel:   firstPresent(ctx, page, f.spec.SubmitSelectors, wait),
		Keyword:     query.Keyword,
		Location:    query.Location,
	}

	missing := &FormElementsNotFound{
		KeywordFound:  args.KeywordSel != "",
		LocationFound: args.LocationSel != "" || len(f.spec.LocationSelectors) == 0,
		SubmitFound:   args.SubmitSel != "",
	}
	if !missing.KeywordFound || !missing.LocationFound || !missing.SubmitFound {
		return missing
	}
	if args.LocationSel == "" && query.Location != "" {
		f.logger.Debug("[listing] Site has no location field, ignoring %q", query.Location)
	}

	var submitted bool
	err := page.EvaluateScript(ctx, submitScript, args, &submitted)
	if err == nil && submitted {
		f.logger.Debug("[listing] Search form submitted by script")
		return nil
	}
	if err != nil && !errors.Is(err, browser.ErrScriptUnsupported) {
		f.logger.Warn("[listing] Script form submission failed: %v, filling fields directly", err)
	}

	if err := page.Fill(ctx, args.KeywordSel, query.Keyword); err != nil {
		return fmt.Errorf("fill keyword: %w", err)
	}
	if args.LocationSel != "" {
		if err := page.Fill(ctx, args.LocationSel, query.Location); err != nil {
			return fmt.Errorf("fill location: %w", err)
		}
	}
	if err := page.Click(ctx, args.SubmitSel); err != nil {
		return fmt.Errorf("click submit: %w", err)
	}
	f.logger.Debug("[listing] Search form submitted by direct input")
	return nil
}

// URLSubmitter searches by navigating to a URL built from the query.
type URLSubmitter struct {
	template string
	opts     Options
}

func (u *URLSubmitter) SubmitSearch(ctx context.Context, page browser.Page, query models.SearchQuery) error {
	target := ExpandURLTemplate(u.template, query)
	return navigate(ctx, page, u.opts.Retry, target, browser.WaitNetworkIdle, u.opts.ListingTimeout)
}

// ExpandURLTemplate substitutes the query-escaped keyword and location into tpl.
func ExpandURLTemplate(tpl string, query models.SearchQuery) string {
	return strings.NewReplacer(
		"{keyword}", url.QueryEscape(query.Keyword),
		"{location}", url.QueryEscape(query.Location),
	).Replace(tpl)
}

// firstPresent returns the first selector matching an element on page. A
// positive wait lets each candidate appear for up to that long.
func firstPresent(ctx context.Context, page browser.Page, selectors []string, wait time.Duration) string {
	for _, sel := range selectors {
		if wait > 0 {
			if err := page.WaitForSelector(ctx, sel, wait); err == nil {
				return sel
			}
			if ctx.Err() != nil {
				return ""
			}
			continue
		}
		if el, err := page.QuerySelector(ctx, sel); err == nil && el != nil {
			return sel
		}
	}
	return ""
}

// navigate loads target, retrying per retry, and wraps failures in a NavigationError.
func navigate(ctx context.Context, page browser.Page, retry *utils.RetryConfig, target string, wait browser.WaitCondition, timeout time.Duration) error {
	load := func() error {
		return page.Navigate(ctx, target, wait, timeout)
	}

	var err error
	if retry != nil {
		err = retry.Do(ctx, "navigate "+target, load)
	} else {
		err = load()
	}
	if err != nil {
		return &NavigationError{URL: target, Err: err}
	}
	return nil
}

// resolveURL makes ref absolute against base and drops its fragment. Links
// back to base itself resolve to "".
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err == nil && b.IsAbs() {
		u = b.ResolveReference(u)
		b.Fragment = ""
	}
	if !u.IsAbs() {
		return ""
	}
	u.Fragment = ""
	if b != nil && u.String() == b.String() {
		return ""
	}
	return u.String()
}
