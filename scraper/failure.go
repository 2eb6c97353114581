package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"

	"business-scraper/browser"
	"business-scraper/utils"
)

// captureTimeout bounds artifact capture, which also runs after the crawl
// context has been cancelled.
const captureTimeout = 15 * time.Second

// FailureReporter saves a screenshot and the page markup when an item fails.
// Capture never fails: every problem is logged and swallowed.
type FailureReporter struct {
	dir    string
	logger *utils.Logger
	now    func() time.Time
}

// NewFailureReporter writes artifacts under dir. An empty dir disables capture.
func NewFailureReporter(dir string, logger *utils.Logger) *FailureReporter {
	return &FailureReporter{dir: dir, logger: logger, now: time.Now}
}

// Capture writes <dir>/<label>_<YYYYMMDD_HHMMSS>.png and .html for page.
func (r *FailureReporter) Capture(ctx context.Context, page browser.Page, label string) {
	if r == nil || r.dir == "" || page == nil {
		return
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		r.logger.Warn("[capture] Could not create %s: %v", r.dir, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	base := filepath.Join(r.dir, fmt.Sprintf("%s_%s", Slug(label), r.now().Format("20060102_150405")))

	shot := base + ".png"
	if err := page.Screenshot(ctx, shot); err != nil {
		if errors.Is(err, browser.ErrScreenshotUnsupported) {
			r.logger.Debug("[capture] Screenshot not available for %q", label)
		} else {
			r.logger.Warn("[capture] Screenshot for %q failed: %v", label, err)
		}
	} else if info, err := os.Stat(shot); err == nil {
		r.logger.Info("[capture] Saved %s (%s)", shot, humanize.Bytes(uint64(info.Size())))
	}

	markup, err := page.Content(ctx)
	if err != nil {
		r.logger.Warn("[capture] Could not read content for %q: %v", label, err)
		return
	}
	dump := base + ".html"
	if err := os.WriteFile(dump, []byte(markup), 0644); err != nil {
		r.logger.Warn("[capture] Could not write %s: %v", dump, err)
		return
	}
	r.logger.Info("[capture] Saved %s (%s)", dump, humanize.Bytes(uint64(len(markup))))
}

// Slug turns a label into a file-name-safe token.
func Slug(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "_")
	if runes := []rune(slug); len(runes) > 60 {
		slug = strings.TrimSuffix(string(runes[:60]), "_")
	}
	if slug == "" {
		return "item"
	}
	return slug
}
