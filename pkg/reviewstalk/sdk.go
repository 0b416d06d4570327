// Package reviewstalk provides a public SDK for embedding the review
// harvester as a library.
//
// Example usage:
//
//	client, err := reviewstalk.NewClient(
//	    reviewstalk.WithTimeBudget(90*time.Second),
//	    reviewstalk.WithMaxPages(5),
//	    reviewstalk.WithoutPersistence(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.HarvestProduct(ctx, "https://www.trendyol.com/akilli-saat-p-42")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.TotalReviews, "reviews in", result.CollectionName)
package reviewstalk

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/yorumly/reviewstalk/internal/browser"
	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/fetch"
	"github.com/yorumly/reviewstalk/internal/harvest"
	"github.com/yorumly/reviewstalk/internal/source"
	"github.com/yorumly/reviewstalk/internal/storage"
	"github.com/yorumly/reviewstalk/internal/types"
)

// Re-exported result types so callers never import internal packages.
type (
	RunResult    = types.RunResult
	ReviewRecord = types.ReviewRecord
)

// Client is the high-level harvesting API. A Client is cheap; the browser
// and storage connections live only for the duration of one harvest call.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger
	dryRun bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeBudget bounds the wall clock of each harvest call.
func WithTimeBudget(d time.Duration) Option {
	return func(c *Client) { c.cfg.Harvest.TimeBudget = d }
}

// WithMaxPages bounds review pagination per product.
func WithMaxPages(n int) Option {
	return func(c *Client) { c.cfg.Harvest.MaxPages = n }
}

// WithMaxProducts bounds how many products a search harvest visits.
func WithMaxProducts(n int) Option {
	return func(c *Client) { c.cfg.Harvest.MaxProducts = n }
}

// WithStorage points the client at a MongoDB instance.
func WithStorage(uri, database string) Option {
	return func(c *Client) {
		c.cfg.Storage.URI = uri
		c.cfg.Storage.Database = database
	}
}

// WithoutPersistence keeps harvested records in memory only. The records
// are still returned on the RunResult.
func WithoutPersistence() Option {
	return func(c *Client) { c.dryRun = true }
}

// WithHeadful shows the browser window, mostly for selector debugging.
func WithHeadful() Option {
	return func(c *Client) { c.cfg.Browser.Headless = false }
}

// WithLogger routes the client's logs. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client from defaults plus options.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := config.Validate(c.cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// HarvestProduct harvests one product's reviews. The platform is detected
// from the URL's host.
func (c *Client) HarvestProduct(ctx context.Context, productURL string) (*RunResult, error) {
	if err := config.ValidateURL(productURL); err != nil {
		return nil, err
	}
	p, err := source.Detect(productURL)
	if err != nil {
		return nil, err
	}

	h, cleanup, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return h.HarvestProduct(ctx, p, productURL)
}

// HarvestSearch harvests the top products of a search term on one platform.
func (c *Client) HarvestSearch(ctx context.Context, platform, searchTerm string) (*RunResult, error) {
	p, err := source.Lookup(platform)
	if err != nil {
		return nil, err
	}

	h, cleanup, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return h.HarvestSearch(ctx, p, searchTerm)
}

// Platforms lists the supported platform tags.
func Platforms() []string {
	return source.Platforms()
}

func (c *Client) build(ctx context.Context) (*harvest.Harvester, func(), error) {
	var store storage.ReviewStore
	if c.dryRun {
		store = storage.NewMemoryStore(c.logger)
	} else {
		s, err := storage.NewMongoStore(ctx, &c.cfg.Storage, c.logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
	}

	session, err := browser.NewSession(&c.cfg.Browser, c.logger)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, nil, err
	}
	src := harvest.NewBrowserSource(session, &c.cfg.Harvest, c.logger)

	var listing harvest.ListingFetcher
	client, err := fetch.NewClient(&c.cfg.Fetcher, c.logger)
	if err == nil {
		listing = client
	}

	cleanup := func() {
		if client != nil {
			_ = client.Close()
		}
		_ = src.Close()
		_ = store.Close(context.Background())
	}
	return harvest.New(store, src, listing, c.cfg, c.logger), cleanup, nil
}
