package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"

	"business-scraper/utils"
)

// StaticOptions configures plain HTTP page fetching.
type StaticOptions struct {
	UserAgent string
	Timeout   time.Duration
}

// Static opens pages that fetch markup over HTTP without rendering it.
type Static struct {
	opts   StaticOptions
	logger *utils.Logger
}

// NewStatic creates a Static page factory.
func NewStatic(opts StaticOptions, logger *utils.Logger) *Static {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Static{opts: opts, logger: logger}
}

func (s *Static) NewPage(_ context.Context) (Page, error) {
	return NewStaticPage(s.opts, s.logger), nil
}

func (s *Static) Close() error { return nil }

// StaticPage holds one parsed document. Forms are submitted by rebuilding the
// request from their inputs; scripts never run.
type StaticPage struct {
	opts   StaticOptions
	logger *utils.Logger

	current *url.URL
	doc     *goquery.Document
}

// NewStaticPage returns an empty page.
func NewStaticPage(opts StaticOptions, logger *utils.Logger) *StaticPage {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &StaticPage{opts: opts, logger: logger}
}

// SetContent loads markup as if it had been fetched from pageURL.
func (p *StaticPage) SetContent(pageURL, markup string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("browser: parse url %q: %w", pageURL, err)
	}
	return p.load(u, []byte(markup))
}

func (p *StaticPage) Navigate(ctx context.Context, target string, _ WaitCondition, timeout time.Duration) error {
	return p.fetch(ctx, http.MethodGet, target, nil, timeout)
}

func (p *StaticPage) WaitForSelector(ctx context.Context, sel string, _ time.Duration) error {
	el, err := p.QuerySelector(ctx, sel)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}
	return nil
}

func (p *StaticPage) QuerySelector(_ context.Context, sel string) (*Element, error) {
	found, err := p.find(sel)
	if err != nil {
		return nil, err
	}
	if found.Length() == 0 {
		return nil, nil
	}
	return p.snapshot(found.First()), nil
}

func (p *StaticPage) QuerySelectorAll(_ context.Context, sel string) ([]*Element, error) {
	found, err := p.find(sel)
	if err != nil {
		return nil, err
	}
	elements := make([]*Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, p.snapshot(s))
	})
	return elements, nil
}

func (p *StaticPage) EvaluateScript(context.Context, string, any, any) error {
	return ErrScriptUnsupported
}

func (p *StaticPage) Fill(_ context.Context, sel, value string) error {
	found, err := p.find(sel)
	if err != nil {
		return err
	}
	if found.Length() == 0 {
		return fmt.Errorf("browser: fill %q: %w", sel, ErrElementNotFound)
	}
	field := found.First()
	if goquery.NodeName(field) == "textarea" {
		field.SetText(value)
		return nil
	}
	field.SetAttr("value", value)
	return nil
}

// Click follows links and submits forms. Clicking anything else has no effect.
func (p *StaticPage) Click(ctx context.Context, sel string) error {
	found, err := p.find(sel)
	if err != nil {
		return err
	}
	if found.Length() == 0 {
		return fmt.Errorf("browser: click %q: %w", sel, ErrElementNotFound)
	}
	target := found.First()

	switch goquery.NodeName(target) {
	case "a":
		if href, ok := target.Attr("href"); ok && href != "" && !strings.HasPrefix(href, "#") {
			return p.fetch(ctx, http.MethodGet, p.resolve(href), nil, 0)
		}
	case "button", "input":
		kind := strings.ToLower(target.AttrOr("type", "submit"))
		if kind == "submit" || kind == "image" {
			form := target.Closest("form")
			if form.Length() > 0 {
				return p.submit(ctx, form, target)
			}
		}
	}
	p.logger.Debug("[browser] click on <%s> %q has no static effect", goquery.NodeName(target), sel)
	return nil
}

func (p *StaticPage) Screenshot(context.Context, string) error {
	return ErrScreenshotUnsupported
}

func (p *StaticPage) Content(_ context.Context) (string, error) {
	if p.doc == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for _, n := range p.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("browser: render content: %w", err)
		}
	}
	return buf.String(), nil
}

func (p *StaticPage) URL() string {
	if p.current == nil {
		return ""
	}
	return p.current.String()
}

func (p *StaticPage) Close() error {
	p.doc = nil
	return nil
}

func (p *StaticPage) find(sel string) (*goquery.Selection, error) {
	matcher, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("browser: selector %q: %w", sel, err)
	}
	if p.doc == nil {
		return nil, fmt.Errorf("browser: no document loaded")
	}
	return p.doc.FindMatcher(matcher), nil
}

func (p *StaticPage) snapshot(s *goquery.Selection) *Element {
	el := &Element{Text: s.Text(), Attrs: make(map[string]string)}
	if len(s.Nodes) == 0 {
		return el
	}
	for _, attr := range s.Nodes[0].Attr {
		val := attr.Val
		if attr.Key == "href" {
			val = p.resolve(val)
		}
		el.Attrs[attr.Key] = val
	}
	return el
}

func (p *StaticPage) resolve(ref string) string {
	if p.current == nil {
		return ref
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return p.current.ResolveReference(u).String()
}

// submit rebuilds the request a browser would send for form when submitter is clicked.
func (p *StaticPage) submit(ctx context.Context, form, submitter *goquery.Selection) error {
	values := url.Values{}

	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, field *goquery.Selection) {
		name := field.AttrOr("name", "")
		switch goquery.NodeName(field) {
		case "textarea":
			values.Add(name, field.Text())
		case "select":
			opt := field.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = field.Find("option").First()
			}
			if opt.Length() > 0 {
				values.Add(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
			}
		default:
			switch strings.ToLower(field.AttrOr("type", "text")) {
			case "submit", "image", "button", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := field.Attr("checked"); !checked {
					return
				}
				values.Add(name, field.AttrOr("value", "on"))
			default:
				values.Add(name, field.AttrOr("value", ""))
			}
		}
	})
	if name, ok := submitter.Attr("name"); ok && name != "" {
		values.Add(name, submitter.AttrOr("value", ""))
	}

	action := p.URL()
	if raw, ok := form.Attr("action"); ok && strings.TrimSpace(raw) != "" {
		action = p.resolve(raw)
	}

	if strings.EqualFold(form.AttrOr("method", "get"), http.MethodPost) {
		data := make(map[string]string, len(values))
		for k := range values {
			data[k] = values.Get(k)
		}
		return p.fetch(ctx, http.MethodPost, action, data, 0)
	}

	u, err := url.Parse(action)
	if err != nil {
		return fmt.Errorf("browser: form action %q: %w", action, err)
	}
	u.RawQuery = values.Encode()
	return p.fetch(ctx, http.MethodGet, u.String(), nil, 0)
}

func (p *StaticPage) fetch(ctx context.Context, method, target string, form map[string]string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.opts.Timeout
	}

	c := colly.NewCollector(
		colly.UserAgent(p.opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	var (
		body     []byte
		final    *url.URL
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		final = r.Request.URL
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("browser: fetch %s (status %d): %w", target, status, err)
	})

	done := make(chan error, 1)
	go func() {
		if method == http.MethodPost {
			done <- c.Post(target, form)
			return
		}
		done <- c.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if fetchErr != nil {
			return fetchErr
		}
		if err != nil {
			return fmt.Errorf("browser: fetch %s: %w", target, err)
		}
	}

	if final == nil {
		parsed, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("browser: parse url %q: %w", target, err)
		}
		final = parsed
	}
	p.logger.Debug("[browser] %s %s (%d bytes)", method, final, len(body))
	return p.load(final, body)
}

func (p *StaticPage) load(u *url.URL, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("browser: parse document: %w", err)
	}
	doc.Url = u
	p.doc = doc
	p.current = u
	return nil
}
