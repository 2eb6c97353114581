package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Fetch modes for FETCH_MODE.
const (
	FetchDynamic = "dynamic"
	FetchStatic  = "static"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"scraper"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"scraper123"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"business_db"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	StoreDocuments   bool   `envconfig:"STORE_DOCUMENTS" default:"false"`

	// Site is a builtin adapter name or a path to a YAML site file.
	Site     string `envconfig:"SITE" default:"wko"`
	Keyword  string `envconfig:"KEYWORD" default:"Gasthaus"`
	Location string `envconfig:"LOCATION" default:"Graz-Stadt (Bezirk)"`
	Limit    int    `envconfig:"LIMIT" default:"1"`

	FetchMode    string `envconfig:"FETCH_MODE" default:"dynamic"`
	Headless     bool   `envconfig:"HEADLESS" default:"true"`
	ChromeBin    string `envconfig:"CHROME_BIN"`
	UserAgent    string `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	Locale       string `envconfig:"LOCALE" default:"de-AT"`
	WindowWidth  int    `envconfig:"WINDOW_WIDTH" default:"1920"`
	WindowHeight int    `envconfig:"WINDOW_HEIGHT" default:"1080"`

	ListingTimeout time.Duration `envconfig:"LISTING_TIMEOUT" default:"90s"`
	DetailTimeout  time.Duration `envconfig:"DETAIL_TIMEOUT" default:"60s"`
	ResultWait     time.Duration `envconfig:"RESULT_WAIT" default:"30s"`
	ElementWait    time.Duration `envconfig:"ELEMENT_WAIT" default:"5s"`

	MaxRetries int           `envconfig:"MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"2s"`

	DetailWorkers int           `envconfig:"DETAIL_WORKERS" default:"1"`
	RateLimit     time.Duration `envconfig:"RATE_LIMIT" default:"0s"`

	OutputDir     string   `envconfig:"OUTPUT_DIR" default:"./data"`
	OutputPrefix  string   `envconfig:"OUTPUT_PREFIX"`
	OutputFormats []string `envconfig:"OUTPUT_FORMATS" default:"csv,json"`
	ArtifactDir   string   `envconfig:"ARTIFACT_DIR" default:"./screenshots"`

	Deduplicate   bool `envconfig:"DEDUPLICATE" default:"false"`
	RespectRobots bool `envconfig:"RESPECT_ROBOTS" default:"false"`
	Debug         bool `envconfig:"DEBUG" default:"false"`
}

// Load reads the .env file (if any) and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Printf("[config] .env file found but could not be loaded: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values envconfig cannot express as tags.
func (c *Config) Validate() error {
	switch c.FetchMode {
	case FetchDynamic, FetchStatic:
	default:
		return fmt.Errorf("config: FETCH_MODE must be %q or %q, got %q", FetchDynamic, FetchStatic, c.FetchMode)
	}
	if c.Limit < 1 {
		return fmt.Errorf("config: LIMIT must be at least 1, got %d", c.Limit)
	}
	if c.DetailWorkers < 1 {
		return fmt.Errorf("config: DETAIL_WORKERS must be at least 1, got %d", c.DetailWorkers)
	}
	for i, f := range c.OutputFormats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "csv" && f != "json" {
			return fmt.Errorf("config: unknown output format %q", f)
		}
		c.OutputFormats[i] = f
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
