package services

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// phoneScanRegexp finds phone-like runs in free text.
	phoneScanRegexp = regexp.MustCompile(`\+?\d[\d /-]{8,}\d`)
	emailScanRegexp = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// socialHosts maps registrable domains to platform names.
var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"fb.com":        "facebook",
	"instagram.com": "instagram",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"youtube.com":   "youtube",
	"youtu.be":      "youtube",
	"tiktok.com":    "tiktok",
}

// FindPhones returns phone-like substrings of text in order of appearance.
// Matches with fewer than eight digits are dropped.
func FindPhones(text string) []string {
	var out []string
	for _, m := range phoneScanRegexp.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if ValidPhone(m) {
			out = append(out, m)
		}
	}
	return out
}

// FindEmails returns email addresses found in text in order of appearance.
func FindEmails(text string) []string {
	return emailScanRegexp.FindAllString(text, -1)
}

// ClassifySocial returns the social platform link points to, if any.
func ClassifySocial(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for {
		if platform, ok := socialHosts[host]; ok {
			return platform, true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			return "", false
		}
		host = host[dot+1:]
	}
}
