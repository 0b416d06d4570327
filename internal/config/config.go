package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for reviewstalk.
type Config struct {
	Harvest Harvest `mapstructure:"harvest" yaml:"harvest"`
	Browser Browser `mapstructure:"browser" yaml:"browser"`
	Fetcher Fetcher `mapstructure:"fetcher" yaml:"fetcher"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	Export  Export  `mapstructure:"export"  yaml:"export"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	API     API     `mapstructure:"api"     yaml:"api"`
}

// Harvest controls the budget-bounded harvest loop.
type Harvest struct {
	MaxPages      int           `mapstructure:"max_pages"       yaml:"max_pages"`
	MaxProducts   int           `mapstructure:"max_products"    yaml:"max_products"`
	TimeBudget    time.Duration `mapstructure:"time_budget"     yaml:"time_budget"`
	BudgetMargin  time.Duration `mapstructure:"budget_margin"   yaml:"budget_margin"`
	RenderSettle  time.Duration `mapstructure:"render_settle"   yaml:"render_settle"`
	ScrollDelay   time.Duration `mapstructure:"scroll_delay"    yaml:"scroll_delay"`
	MinCommentLen int           `mapstructure:"min_comment_len" yaml:"min_comment_len"`
}

// Browser controls the headless browser session.
type Browser struct {
	Headless        bool          `mapstructure:"headless"          yaml:"headless"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
	WindowSize      string        `mapstructure:"window_size"       yaml:"window_size"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	WaitTimeout     time.Duration `mapstructure:"wait_timeout"      yaml:"wait_timeout"`
}

// Fetcher controls the plain HTTP fetcher used for search listings.
type Fetcher struct {
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// Storage controls the document store.
type Storage struct {
	URI       string        `mapstructure:"uri"        yaml:"uri"`
	Database  string        `mapstructure:"database"   yaml:"database"`
	BatchSize int           `mapstructure:"batch_size" yaml:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`

	// FanOut duplicates every record into a platform-wide collection and
	// the global all-reviews collection, alongside the per-target one.
	FanOut bool `mapstructure:"fan_out" yaml:"fan_out"`

	// AllReviewsCollection is the global fan-out target.
	AllReviewsCollection string `mapstructure:"all_reviews_collection" yaml:"all_reviews_collection"`
}

// Export controls the optional spreadsheet mirror.
type Export struct {
	Enabled   bool   `mapstructure:"enabled"    yaml:"enabled"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Logging controls logging behavior.
type Logging struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// API controls the HTTP control server.
type API struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns a Config with sensible defaults. The storage URI
// falls back to a local MongoDB; override it with REVIEWSTALK_STORAGE_URI.
func DefaultConfig() *Config {
	return &Config{
		Harvest: Harvest{
			MaxPages:      10,
			MaxProducts:   5,
			TimeBudget:    120 * time.Second,
			BudgetMargin:  3 * time.Second,
			RenderSettle:  500 * time.Millisecond,
			ScrollDelay:   500 * time.Millisecond,
			MinCommentLen: 10,
		},
		Browser: Browser{
			Headless:        true,
			Stealth:         true,
			WindowSize:      "1920,1080",
			PageLoadTimeout: 15 * time.Second,
			WaitTimeout:     10 * time.Second,
		},
		Fetcher: Fetcher{
			Timeout:         20 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			MaxRedirects:    10,
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Storage: Storage{
			URI:                  "mongodb://localhost:27017",
			Database:             "ecommerce_analytics",
			BatchSize:            100,
			Timeout:              10 * time.Second,
			FanOut:               true,
			AllReviewsCollection: "all_reviews",
		},
		Export: Export{
			Enabled:   false,
			OutputDir: "./output",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		API: API{
			Port: 8090,
		},
	}
}
