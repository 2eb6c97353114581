package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"business-scraper/utils"
)

// ChromeOptions configures the shared Chrome process.
type ChromeOptions struct {
	ExecPath     string
	Headless     bool
	UserAgent    string
	Locale       string
	WindowWidth  int
	WindowHeight int
	// Timeout bounds page operations that take no explicit timeout.
	Timeout time.Duration
}

// Chrome owns one browser process; every page is a tab in it.
type Chrome struct {
	opts   ChromeOptions
	logger *utils.Logger

	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

// NewChrome launches Chrome and returns a factory for its tabs.
func NewChrome(opts ChromeOptions, logger *utils.Logger) (*Chrome, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	chromeBin := findChromeBinary(opts.ExecPath)
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Locale != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", opts.Locale))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start chrome: %w", err)
	}

	return &Chrome{
		opts:          opts,
		logger:        logger,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
	}, nil
}

// NewPage opens a new tab.
func (c *Chrome) NewPage(_ context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}
	return &ChromePage{ctx: tabCtx, cancel: cancel, timeout: c.opts.Timeout}, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	c.cancelBrowser()
	c.cancelAlloc()
	return nil
}

// ChromePage is a Chrome tab.
type ChromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	lastURL string
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (p *ChromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

const (
	domReadyScript = `document.readyState !== "loading"`
	loadScript     = `document.readyState === "complete"`
	// Network idle: page loaded and no new resource entries for 500ms.
	networkIdleScript = `(() => {
		const n = performance.getEntriesByType("resource").length;
		const now = Date.now();
		const s = window.__scraperIdle || (window.__scraperIdle = {n: -1, t: now});
		if (s.n !== n) { s.n = n; s.t = now; return false; }
		return document.readyState === "complete" && now - s.t >= 500;
	})()`
)

func (p *ChromePage) Navigate(ctx context.Context, target string, wait WaitCondition, timeout time.Duration) error {
	script := loadScript
	switch wait {
	case WaitDOMReady:
		script = domReadyScript
	case WaitNetworkIdle:
		script = networkIdleScript
	}

	var ready bool
	err := p.run(ctx, timeout,
		chromedp.Navigate(target),
		chromedp.Poll(script, &ready, chromedp.WithPollingInterval(100*time.Millisecond)),
	)
	if err != nil {
		return fmt.Errorf("browser: navigate %s (%s): %w", target, wait, err)
	}
	p.lastURL = target
	return nil
}

func (p *ChromePage) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitReady(sel, chromedp.ByQuery))
}

type jsElement struct {
	Found bool              `json:"found"`
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs"`
}

const snapshotFn = `const snap = el => {
	const attrs = {};
	for (const a of el.attributes) attrs[a.name] = a.value;
	if (typeof el.href === "string" && el.href) attrs.href = el.href;
	return {found: true, text: el.textContent || "", attrs};
};`

func (p *ChromePage) QuerySelector(ctx context.Context, sel string) (*Element, error) {
	quoted, err := json.Marshal(sel)
	if err != nil {
		return nil, err
	}
	expr := fmt.Sprintf(`(() => { %s
		const el = document.querySelector(%s);
		return el ? snap(el) : {found: false};
	})()`, snapshotFn, quoted)

	var res jsElement
	if err := p.run(ctx, 0, chromedp.Evaluate(expr, &res)); err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", sel, err)
	}
	if !res.Found {
		return nil, nil
	}
	return &Element{Text: res.Text, Attrs: res.Attrs}, nil
}

func (p *ChromePage) QuerySelectorAll(ctx context.Context, sel string) ([]*Element, error) {
	quoted, err := json.Marshal(sel)
	if err != nil {
		return nil, err
	}
	expr := fmt.Sprintf(`(() => { %s
		return Array.from(document.querySelectorAll(%s)).map(snap);
	})()`, snapshotFn, quoted)

	var res []jsElement
	if err := p.run(ctx, 0, chromedp.Evaluate(expr, &res)); err != nil {
		return nil, fmt.Errorf("browser: query all %q: %w", sel, err)
	}
	elements := make([]*Element, 0, len(res))
	for _, r := range res {
		elements = append(elements, &Element{Text: r.Text, Attrs: r.Attrs})
	}
	return elements, nil
}

func (p *ChromePage) EvaluateScript(ctx context.Context, script string, args any, out any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("browser: encode script args: %w", err)
	}
	expr := fmt.Sprintf("(%s)(%s)", script, argsJSON)
	if err := p.run(ctx, 0, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("browser: evaluate: %w", err)
	}
	return nil
}

func (p *ChromePage) Fill(ctx context.Context, sel, value string) error {
	if err := p.mustExist(ctx, sel); err != nil {
		return err
	}
	quoted, _ := json.Marshal(sel)
	return p.run(ctx, 0,
		chromedp.SetValue(sel, value, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(
			`document.querySelector(%s).dispatchEvent(new Event("input", {bubbles: true}))`, quoted), nil),
	)
}

func (p *ChromePage) Click(ctx context.Context, sel string) error {
	if err := p.mustExist(ctx, sel); err != nil {
		return err
	}
	return p.run(ctx, 0, chromedp.Click(sel, chromedp.ByQuery))
}

func (p *ChromePage) mustExist(ctx context.Context, sel string) error {
	el, err := p.QuerySelector(ctx, sel)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}
	return nil
}

func (p *ChromePage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, 0, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("browser: screenshot: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

func (p *ChromePage) Content(ctx context.Context) (string, error) {
	var markup string
	if err := p.run(ctx, 0, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: content: %w", err)
	}
	return markup, nil
}

// URL returns the tab's current location, or the last navigated URL if the
// tab does not answer.
func (p *ChromePage) URL() string {
	var loc string
	if err := p.run(context.Background(), 5*time.Second, chromedp.Location(&loc)); err != nil || loc == "" {
		return p.lastURL
	}
	return loc
}

func (p *ChromePage) Close() error {
	p.cancel()
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary. An explicit path wins.
func findChromeBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
