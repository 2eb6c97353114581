package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"business-scraper/browser"
	"business-scraper/config"
	"business-scraper/models"
	"business-scraper/scraper"
	"business-scraper/scraper/treatwell"
	"business-scraper/scraper/wko"
	"business-scraper/services"
	"business-scraper/storage"
	"business-scraper/utils"
)

var builtinSites = map[string]func() *scraper.Site{
	"wko":       wko.Site,
	"treatwell": treatwell.Site,
}

// resolveSite returns a builtin adapter by name or loads a YAML site file.
func resolveSite(name string) (*scraper.Site, error) {
	var (
		site *scraper.Site
		err  error
	)
	if build, ok := builtinSites[strings.ToLower(name)]; ok {
		site = build()
	} else {
		site, err = scraper.LoadSite(name)
		if err != nil {
			return nil, err
		}
	}
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("site %s: %w", name, err)
	}
	return site, nil
}

func newPageFactory(cfg *config.Config, logger *utils.Logger) (browser.PageFactory, error) {
	if cfg.FetchMode == config.FetchStatic {
		return browser.NewStatic(browser.StaticOptions{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.DetailTimeout,
		}, logger), nil
	}
	return browser.NewChrome(browser.ChromeOptions{
		ExecPath:     cfg.ChromeBin,
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		Locale:       cfg.Locale,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Timeout:      cfg.ListingTimeout,
	}, logger)
}

// outputPrefix is the configured prefix or <site>_<keyword>.
func outputPrefix(cfg *config.Config, site string) string {
	if cfg.OutputPrefix != "" {
		return cfg.OutputPrefix
	}
	return scraper.Slug(site + "_" + cfg.Keyword)
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	site, err := resolveSite(cfg.Site)
	if err != nil {
		return err
	}
	if site.DefaultCategory == "" {
		site.DefaultCategory = cfg.Keyword
	}

	logger.Info("=== Business Scraping System starting ===")
	logger.Info("Config | site: %s | keyword: %q | location: %q | limit: %d | workers: %d | mode: %s",
		site.Name, cfg.Keyword, cfg.Location, cfg.Limit, cfg.DetailWorkers, cfg.FetchMode)

	var pgWriter *storage.PostgresWriter
	if cfg.StoreDocuments {
		pgWriter, err = storage.NewPostgresWriter(ctx, cfg.DSN(), site.Name, logger)
		if err != nil {
			logger.Error("Make sure Docker is running: docker compose up -d")
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer pgWriter.Close()
	}

	pages, err := newPageFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer pages.Close()

	opts := scraper.Options{
		ListingTimeout: cfg.ListingTimeout,
		DetailTimeout:  cfg.DetailTimeout,
		ResultWait:     cfg.ResultWait,
		ElementWait:    cfg.ElementWait,
		Retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   cfg.RetryDelay,
			Logger:      logger,
		},
		DetailWorkers: cfg.DetailWorkers,
		RateLimit:     cfg.RateLimit,
		ArtifactDir:   cfg.ArtifactDir,
	}
	if cfg.RespectRobots {
		opts.Robots = utils.NewRobotsChecker(cfg.UserAgent)
	}

	validator := services.NewRecordValidator()
	sink := storage.NewResultSink(validator, logger)
	crawler := scraper.NewCrawler(site, pages, sink, opts, logger)

	outcome := crawler.Run(ctx, models.SearchQuery{
		Keyword:  cfg.Keyword,
		Location: cfg.Location,
		Limit:    cfg.Limit,
	})
	for _, f := range outcome.Failures {
		logger.Warn("Failed %s (%s): %s", f.Label, f.URL, f.Reason)
	}
	if outcome.Err != nil {
		return fmt.Errorf("crawl %s: %w", site.Name, outcome.Err)
	}

	records := sink.Records()
	if cfg.Deduplicate {
		records = services.NewCleaner(logger).Dedup(records)
	}
	if len(records) == 0 {
		logger.Warn("No valid records were extracted")
	}

	files, err := openWriters(cfg, site.Name, time.Now())
	if err != nil {
		return err
	}
	writers := files
	if pgWriter != nil {
		writers = append(writers[:len(files):len(files)], pgWriter)
	}
	writeErr := storage.WriteAll(records, writers...)
	for _, w := range files {
		if err := w.Close(); err != nil {
			writeErr = errors.Join(writeErr, err)
			continue
		}
		if p, ok := w.(interface{ Path() string }); ok {
			logger.Info("Saved %d records to %s", len(records), p.Path())
		}
	}
	if pgWriter != nil && writeErr == nil {
		logger.Info("Records stored in PostgreSQL (table: businesses)")
	}
	if writeErr != nil {
		logger.Error("Export failed: %v", writeErr)
	}

	reportRecords := records
	if pgWriter != nil {
		if stored, err := pgWriter.FetchAll(ctx); err != nil {
			logger.Error("Failed to fetch records from DB for insights: %v", err)
		} else {
			reportRecords = stored
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(reportRecords, len(outcome.Failures), outcome.Rejected))

	return writeErr
}

func openWriters(cfg *config.Config, site string, now time.Time) ([]storage.RecordWriter, error) {
	prefix := outputPrefix(cfg, site)
	var writers []storage.RecordWriter
	for _, format := range cfg.OutputFormats {
		path := storage.OutputPath(cfg.OutputDir, prefix, format, now)
		var (
			w   storage.RecordWriter
			err error
		)
		switch format {
		case "csv":
			w, err = storage.NewCSVWriter(path)
		case "json":
			w, err = storage.NewJSONWriter(path)
		default:
			err = fmt.Errorf("unknown output format %q", format)
		}
		if err != nil {
			for _, open := range writers {
				_ = open.Close()
			}
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}
