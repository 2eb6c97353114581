package utils

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers robots.txt questions per host, caching each host's
// group for the lifetime of the checker.
type RobotsChecker struct {
	userAgent string
	client    *http.Client

	mu    sync.Mutex
	cache map[string]*robotstxt.Group
}

// NewRobotsChecker creates a checker that matches rules for userAgent.
func NewRobotsChecker(userAgent string) *RobotsChecker {
	return &RobotsChecker{
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		cache:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether link may be fetched. Missing or unreadable robots.txt
// files allow everything.
func (r *RobotsChecker) Allowed(ctx context.Context, link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}

	group := r.group(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.EscapedPath())
}

func (r *RobotsChecker) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	if group, ok := r.cache[u.Host]; ok {
		return group
	}

	var group *robotstxt.Group
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Scheme+"://"+u.Host+"/robots.txt", nil)
	if err == nil {
		req.Header.Set("User-Agent", r.userAgent)
		if resp, err := r.client.Do(req); err == nil {
			data, parseErr := robotstxt.FromResponse(resp)
			_ = resp.Body.Close()
			if parseErr == nil {
				group = data.FindGroup(r.userAgent)
			}
		}
	}

	r.cache[u.Host] = group
	return group
}
