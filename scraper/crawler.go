package scraper

import (
	"context"
	"fmt"
	"time"

	"business-scraper/browser"
	"business-scraper/models"
	"business-scraper/services"
	"business-scraper/utils"
)

// Options tune a crawl. Zero values fall back to defaults.
type Options struct {
	ListingTimeout time.Duration
	DetailTimeout  time.Duration
	ResultWait     time.Duration
	// ElementWait bounds the wait for overlays and, on sites without a ready
	// selector, for search form controls.
	ElementWait    time.Duration

	// Retry wraps navigations. Nil means a single attempt.
	Retry *utils.RetryConfig
	// Robots, when set, skips URLs that robots.txt disallows.
	Robots *utils.RobotsChecker

	// DetailWorkers is the number of detail pages visited at once.
	DetailWorkers int
	// RateLimit is the minimum spacing between detail visits.
	RateLimit time.Duration

	// ArtifactDir receives failure screenshots and markup. Empty disables capture.
	ArtifactDir string

	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ListingTimeout <= 0 {
		o.ListingTimeout = 90 * time.Second
	}
	if o.DetailTimeout <= 0 {
		o.DetailTimeout = 60 * time.Second
	}
	if o.ResultWait <= 0 {
		o.ResultWait = 30 * time.Second
	}
	if o.ElementWait <= 0 {
		o.ElementWait = 5 * time.Second
	}
	if o.DetailWorkers < 1 {
		o.DetailWorkers = 1
	}
	if o.Clock == nil {
		o.Clock = systemClock
	}
	return o
}

// Sink receives validated candidates in discovery order and reports whether
// each was accepted.
type Sink interface {
	Accept(rec models.Record) bool
}

// Crawler runs listing discovery followed by detail extraction for one site.
type Crawler struct {
	site      *Site
	pages     browser.PageFactory
	sink      Sink
	listing   *ListingCrawler
	detail    *DetailScraper
	reporter  *FailureReporter
	validator *services.RecordValidator
	opts      Options
	logger    *utils.Logger
}

func NewCrawler(site *Site, pages browser.PageFactory, sink Sink, opts Options, logger *utils.Logger) *Crawler {
	opts = opts.withDefaults()
	reporter := NewFailureReporter(opts.ArtifactDir, logger)
	reporter.now = opts.Clock
	return &Crawler{
		site:      site,
		pages:     pages,
		sink:      sink,
		listing:   NewListingCrawler(site, opts, logger),
		detail:    NewDetailScraper(site, opts, logger),
		reporter:  reporter,
		validator: services.NewRecordValidator(),
		opts:      opts,
		logger:    logger,
	}
}

type itemResult struct {
	started bool
	state   models.ItemState
	record  *models.Record
	err     error
}

// Run executes one crawl. Listing failures end the run with Err set and no
// records; item failures are recorded and the run moves on.
func (c *Crawler) Run(ctx context.Context, query models.SearchQuery) *models.CrawlOutcome {
	out := &models.CrawlOutcome{
		Site:      c.site.Name,
		Query:     query,
		State:     models.StateIdle,
		StartedAt: c.opts.Clock(),
	}
	defer func() {
		out.State = models.StateCompleted
		out.FinishedAt = c.opts.Clock()
		c.logger.Info("[crawler] %s finished in %s: %d accepted, %d rejected, %d failed",
			c.site.Name, out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond),
			len(out.Accepted), out.Rejected, len(out.Failures))
	}()

	if err := c.validator.Check(query); err != nil {
		out.Err = fmt.Errorf("invalid query: %w", err)
		return out
	}

	page, err := c.pages.NewPage(ctx)
	if err != nil {
		out.Err = fmt.Errorf("open page: %w", err)
		return out
	}
	defer page.Close()

	c.setState(out, models.StateListingRequested)
	items, err := c.listing.Discover(ctx, page, query)
	if err != nil {
		c.logger.Error("[crawler] Listing failed: %v", err)
		c.reporter.Capture(ctx, page, "listing_"+c.site.Name)
		out.Err = err
		return out
	}
	c.setState(out, models.StateResultsDiscovered)
	out.Discovered = len(items)

	results := c.visitAll(ctx, page, items)

	for i, res := range results {
		item := items[i]
		switch {
		case !res.started:
			reason := "not started"
			if ctx.Err() != nil {
				reason = fmt.Sprintf("not started: %v", ctx.Err())
			}
			out.Failures = append(out.Failures, models.ItemFailure{URL: item.URL, Label: item.Label, Reason: reason})
		case res.err != nil:
			out.Failures = append(out.Failures, models.ItemFailure{URL: item.URL, Label: item.Label, Reason: res.err.Error()})
		case res.record == nil:
			out.Failures = append(out.Failures, models.ItemFailure{URL: item.URL, Label: item.Label, Reason: "no name extracted"})
		case c.sink.Accept(*res.record):
			c.logItem(item, models.ItemValidated)
			out.Accepted = append(out.Accepted, *res.record)
		default:
			c.logItem(item, models.ItemRejected)
			out.Rejected++
		}
	}
	return out
}

func (c *Crawler) setState(out *models.CrawlOutcome, state models.CrawlState) {
	c.logger.Debug("[crawler] %s → %s", out.State, state)
	out.State = state
}

func (c *Crawler) logItem(item models.ListingItem, state models.ItemState) {
	c.logger.Debug("[crawler] %s: %s", item.URL, state)
}

// visitAll scrapes items with up to DetailWorkers pages. The listing page is
// reused as the first worker page. Results keep the order of items.
func (c *Crawler) visitAll(ctx context.Context, listingPage browser.Page, items []models.ListingItem) []itemResult {
	results := make([]itemResult, len(items))
	if len(items) == 0 {
		return results
	}

	workers := min(c.opts.DetailWorkers, len(items))
	pages := make(chan browser.Page, workers)
	pages <- listingPage
	var extra []browser.Page
	for i := 1; i < workers; i++ {
		p, err := c.pages.NewPage(ctx)
		if err != nil {
			c.logger.Warn("[crawler] Could not open worker page %d: %v", i+1, err)
			break
		}
		extra = append(extra, p)
		pages <- p
	}
	defer func() {
		for _, p := range extra {
			_ = p.Close()
		}
	}()

	pool := utils.NewWorkerPool(len(extra)+1, c.opts.RateLimit)
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		i, item := i, item
		pool.Submit(ctx, func() {
			page := <-pages
			defer func() { pages <- page }()
			results[i] = c.processItem(ctx, page, item)
		})
	}
	pool.Wait()

	return results
}

// processItem is the per-item error boundary: failures and panics are logged,
// captured and returned as a failed result.
func (c *Crawler) processItem(ctx context.Context, page browser.Page, item models.ListingItem) (res itemResult) {
	res.started = true
	defer func() {
		if r := recover(); r != nil {
			res.state = models.ItemFailed
			res.record = nil
			res.err = fmt.Errorf("panic: %v", r)
			c.logger.Error("[crawler] Panic processing %s (%s): %v", item.Label, item.URL, r)
			c.reporter.Capture(ctx, page, item.Label)
		}
	}()

	if c.opts.Robots != nil && !c.opts.Robots.Allowed(ctx, item.URL) {
		res.state = models.ItemFailed
		res.err = fmt.Errorf("%s: %w", item.URL, ErrDisallowed)
		c.logger.Warn("[crawler] Skipping %s: %v", item.URL, ErrDisallowed)
		return res
	}

	c.logger.Info("[crawler] Processing %s", item.Label)
	c.logItem(item, models.ItemVisiting)
	if err := c.detail.Visit(ctx, page, item); err != nil {
		return c.failItem(ctx, page, item, err)
	}

	c.logItem(item, models.ItemExtracting)
	rec := c.detail.Extract(ctx, page, item)
	if err := ctx.Err(); err != nil {
		c.logger.Warn("[crawler] Extraction of %s interrupted: %v", item.URL, err)
		return itemResult{started: true, state: models.ItemFailed, err: err}
	}
	if rec == nil {
		res.state = models.ItemFailed
		return res
	}

	res.record = rec
	res.state = models.ItemValidated
	if err := c.validator.Explain(*rec); err != nil {
		res.state = models.ItemRejected
		c.logger.Debug("[crawler] %s rejected: %v", item.URL, err)
	}
	return res
}

func (c *Crawler) failItem(ctx context.Context, page browser.Page, item models.ListingItem, err error) itemResult {
	c.logger.Error("[crawler] Error processing %s (%s): %v", item.Label, item.URL, err)
	c.reporter.Capture(ctx, page, item.Label)
	return itemResult{started: true, state: models.ItemFailed, err: err}
}
