package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"business-scraper/browser"
	"business-scraper/models"
	"business-scraper/services"
	"business-scraper/utils"
)

// fakeWeb serves canned markup to fakePages.
type fakeWeb struct {
	routes  map[string]string
	navErrs map[string]error
	panics  map[string]bool
	// clicks maps a selector to the URL a click on it loads.
	clicks map[string]string
	// script, when set, handles EvaluateScript; otherwise scripts are unsupported.
	script func(ctx context.Context, p *fakePage, args any, out any) error
	// onNavigate is called before every navigation.
	onNavigate func(target string)
	// onQuery is called before every QuerySelector.
	onQuery func(sel string)

	mu          sync.Mutex
	navigations []string
	waits       []selectorWait
}

type selectorWait struct {
	sel     string
	timeout time.Duration
}

func newFakeWeb(routes map[string]string) *fakeWeb {
	return &fakeWeb{
		routes:  routes,
		navErrs: map[string]error{},
		panics:  map[string]bool{},
		clicks:  map[string]string{},
	}
}

func (w *fakeWeb) visited() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.navigations...)
}

// waitsFor returns the timeouts WaitForSelector was called with for sel.
func (w *fakeWeb) waitsFor(sel string) []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []time.Duration
	for _, wt := range w.waits {
		if wt.sel == sel {
			out = append(out, wt.timeout)
		}
	}
	return out
}

type fakePage struct {
	*browser.StaticPage
	web     *fakeWeb
	queries []string
}

func newFakePage(web *fakeWeb) *fakePage {
	return &fakePage{
		StaticPage: browser.NewStaticPage(browser.StaticOptions{}, utils.NewDiscardLogger()),
		web:        web,
	}
}

func (p *fakePage) Navigate(_ context.Context, target string, _ browser.WaitCondition, _ time.Duration) error {
	p.web.mu.Lock()
	p.web.navigations = append(p.web.navigations, target)
	p.web.mu.Unlock()

	if p.web.onNavigate != nil {
		p.web.onNavigate(target)
	}
	if p.web.panics[target] {
		panic("boom: " + target)
	}
	if err := p.web.navErrs[target]; err != nil {
		return err
	}
	markup, ok := p.web.routes[target]
	if !ok {
		return fmt.Errorf("no route for %s", target)
	}
	return p.SetContent(target, markup)
}

func (p *fakePage) QuerySelector(ctx context.Context, sel string) (*browser.Element, error) {
	p.queries = append(p.queries, sel)
	if p.web.onQuery != nil {
		p.web.onQuery(sel)
	}
	return p.StaticPage.QuerySelector(ctx, sel)
}

func (p *fakePage) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) error {
	p.web.mu.Lock()
	p.web.waits = append(p.web.waits, selectorWait{sel: sel, timeout: timeout})
	p.web.mu.Unlock()
	return p.StaticPage.WaitForSelector(ctx, sel, timeout)
}

func (p *fakePage) Click(ctx context.Context, sel string) error {
	if target, ok := p.web.clicks[sel]; ok {
		return p.Navigate(ctx, target, browser.WaitLoad, 0)
	}
	return p.StaticPage.Click(ctx, sel)
}

func (p *fakePage) EvaluateScript(ctx context.Context, script string, args any, out any) error {
	if p.web.script != nil {
		return p.web.script(ctx, p, args, out)
	}
	return p.StaticPage.EvaluateScript(ctx, script, args, out)
}

type fakeFactory struct {
	web *fakeWeb

	mu     sync.Mutex
	opened int
}

func (f *fakeFactory) NewPage(context.Context) (browser.Page, error) {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return newFakePage(f.web), nil
}

func (f *fakeFactory) Close() error { return nil }

// validatingSink accepts what the record validator accepts.
type validatingSink struct {
	validator *services.RecordValidator
	accepted  []models.Record
}

func newValidatingSink() *validatingSink {
	return &validatingSink{validator: services.NewRecordValidator()}
}

func (s *validatingSink) Accept(rec models.Record) bool {
	if !s.validator.Validate(rec) {
		return false
	}
	s.accepted = append(s.accepted, rec)
	return true
}

var fixedTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }
