package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"business-scraper/config"
	"business-scraper/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		site, keyword, location, fetchMode, outputDir, formats string
		limit, workers                                         int
		store, dedup, debug                                    bool
	)

	cmd := &cobra.Command{
		Use:   "business-scraper",
		Short: "Search a business directory and extract one record per result",
		Long: `business-scraper submits a search to a business directory, collects the
result links and extracts a contact record from every detail page.

Configuration comes from the environment (and .env); flags override it.

Examples:
  # WKO firmen search, first 10 results
  business-scraper --keyword Gasthaus --location "Graz-Stadt (Bezirk)" --limit 10

  # Treatwell salons without a browser, JSON only
  business-scraper --site treatwell --keyword friseur --fetch-mode static --formats json

  # Any directory described in YAML
  business-scraper --site sites/example.yaml --keyword bakery --location Vienna`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := utils.NewLogger()

			cfg, err := config.Load()
			if err != nil {
				logger.Error("Invalid configuration: %v", err)
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("site") {
				cfg.Site = site
			}
			if flags.Changed("keyword") {
				cfg.Keyword = keyword
			}
			if flags.Changed("location") {
				cfg.Location = location
			}
			if flags.Changed("limit") {
				cfg.Limit = limit
			}
			if flags.Changed("workers") {
				cfg.DetailWorkers = workers
			}
			if flags.Changed("fetch-mode") {
				cfg.FetchMode = fetchMode
			}
			if flags.Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if flags.Changed("formats") {
				cfg.OutputFormats = strings.Split(formats, ",")
			}
			if flags.Changed("store") {
				cfg.StoreDocuments = store
			}
			if flags.Changed("dedup") {
				cfg.Deduplicate = dedup
			}
			if flags.Changed("debug") {
				cfg.Debug = debug
			}
			if err := cfg.Validate(); err != nil {
				logger.Error("Invalid flags: %v", err)
				return err
			}
			logger.SetDebug(cfg.Debug)

			if err := run(cmd.Context(), cfg, logger); err != nil {
				logger.Error("%v", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&site, "site", "", "builtin site (wko, treatwell) or path to a YAML site file")
	f.StringVarP(&keyword, "keyword", "k", "", "search keyword")
	f.StringVarP(&location, "location", "l", "", "search location")
	f.IntVarP(&limit, "limit", "n", 0, "maximum number of results to visit")
	f.IntVarP(&workers, "workers", "w", 0, "detail pages visited at once")
	f.StringVar(&fetchMode, "fetch-mode", "", "dynamic (Chrome) or static (HTTP only)")
	f.StringVarP(&outputDir, "output-dir", "o", "", "directory for CSV/JSON exports")
	f.StringVar(&formats, "formats", "", "comma separated export formats (csv,json)")
	f.BoolVar(&store, "store", false, "store records as documents in PostgreSQL")
	f.BoolVar(&dedup, "dedup", false, "drop records with the same name and address")
	f.BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}
