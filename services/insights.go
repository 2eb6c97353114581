package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"business-scraper/models"
	"business-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises records together with the failure and rejection counts
// of the runs that produced them.
func (s *InsightService) Generate(records []models.Record, failures, rejected int) *models.InsightReport {
	report := &models.InsightReport{
		Failures:         failures,
		Rejected:         rejected,
		ByCategory:       make(map[string]int),
		ByCity:           make(map[string]int),
		SocialByPlatform: make(map[string]int),
	}

	report.TotalRecords = len(records)

	for _, r := range records {
		if r.Phone != "" {
			report.WithPhone++
		}
		if r.Email != "" {
			report.WithEmail++
		}
		if r.Website != "" {
			report.WithWebsite++
		}
		if len(r.SocialLinks) > 0 {
			report.WithSocial++
		}
		for platform := range r.SocialLinks {
			report.SocialByPlatform[platform]++
		}
		if r.Category != "" {
			report.ByCategory[r.Category]++
		}
		if city := cityOf(r.Address); city != "" {
			report.ByCity[city]++
		}
	}

	return report
}

// Print writes the report to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	s.Fprint(os.Stdout, r)
}

func (s *InsightService) Fprint(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 BUSINESS SCRAPE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetTitle("Overview")
	overview.AppendHeader(table.Row{"Metric", "Count", "Share"})
	overview.AppendRows([]table.Row{
		{"Records accepted", r.TotalRecords, ""},
		{"With phone", r.WithPhone, percent(r.WithPhone, r.TotalRecords)},
		{"With email", r.WithEmail, percent(r.WithEmail, r.TotalRecords)},
		{"With website", r.WithWebsite, percent(r.WithWebsite, r.TotalRecords)},
		{"With social links", r.WithSocial, percent(r.WithSocial, r.TotalRecords)},
		{"Rejected by validation", r.Rejected, ""},
		{"Failed items", r.Failures, ""},
	})
	overview.SetStyle(table.StyleRounded)
	overview.Render()
	fmt.Fprintln(w)

	renderCounts(w, "Records by Category", "Category", r.ByCategory)
	renderCounts(w, "Records by City", "City", r.ByCity)
	renderCounts(w, "Social Links by Platform", "Platform", r.SocialByPlatform)

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func renderCounts(w io.Writer, title, column string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for k, n := range counts {
		entries = append(entries, entry{k, n})
	}
	// Sort by count descending, then by name for stable output
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{column, "Count", ""})
	for _, e := range entries {
		t.AppendRow(table.Row{truncate(e.key, 40), e.count, strings.Repeat("█", e.count)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Fprintln(w)
}

// cityOf returns the last comma-separated part of an address with any leading
// postal code removed.
func cityOf(address string) string {
	parts := strings.Split(address, ",")
	city := strings.TrimSpace(parts[len(parts)-1])
	fields := strings.Fields(city)
	for len(fields) > 1 && isDigits(fields[0]) {
		fields = fields[1:]
	}
	if len(fields) == 1 && isDigits(fields[0]) {
		return ""
	}
	return strings.Join(fields, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(n)*100/float64(total))
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
