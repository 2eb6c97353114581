// Package browser abstracts the page handle the crawler drives. Chrome renders
// pages with chromedp; Static fetches markup with colly and queries it with goquery.
package browser

import (
	"context"
	"errors"
	"time"
)

// WaitCondition says when a navigation is considered finished.
type WaitCondition int

const (
	WaitLoad WaitCondition = iota
	WaitDOMReady
	WaitNetworkIdle
)

func (w WaitCondition) String() string {
	switch w {
	case WaitDOMReady:
		return "domcontentloaded"
	case WaitNetworkIdle:
		return "networkidle"
	default:
		return "load"
	}
}

var (
	// ErrScriptUnsupported is returned by pages that cannot run scripts.
	ErrScriptUnsupported = errors.New("browser: script evaluation not supported")
	// ErrScreenshotUnsupported is returned by pages that cannot render.
	ErrScreenshotUnsupported = errors.New("browser: screenshots not supported")
	// ErrElementNotFound is returned by Fill and Click when the selector matches nothing.
	ErrElementNotFound = errors.New("browser: element not found")
)

// Element is a snapshot of a matched DOM element.
type Element struct {
	Text  string
	Attrs map[string]string
}

// Attr returns the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil || e.Attrs == nil {
		return "", false
	}
	v, ok := e.Attrs[name]
	return v, ok
}

// Page is a single browsing context. Implementations are not safe for
// concurrent use; callers hand one page to one goroutine at a time.
type Page interface {
	Navigate(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error
	// WaitForSelector blocks until sel matches or timeout elapses.
	WaitForSelector(ctx context.Context, sel string, timeout time.Duration) error
	// QuerySelector returns the first match, or nil with a nil error when
	// nothing matches. A malformed selector is an error.
	QuerySelector(ctx context.Context, sel string) (*Element, error)
	QuerySelectorAll(ctx context.Context, sel string) ([]*Element, error)
	// EvaluateScript runs a function expression with args passed as its single
	// JSON argument and decodes the result into out.
	EvaluateScript(ctx context.Context, script string, args any, out any) error
	Fill(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
	Screenshot(ctx context.Context, path string) error
	Content(ctx context.Context) (string, error)
	URL() string
	Close() error
}

// PageFactory opens page handles.
type PageFactory interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
