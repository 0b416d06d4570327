package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/yorumly/reviewstalk/internal/browser"
	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/source"
	"github.com/yorumly/reviewstalk/internal/types"
)

// PageSource renders one page and returns its parsed document. The
// production implementation drives a browser; tests substitute a fake.
type PageSource interface {
	Fetch(ctx context.Context, p *source.Profile, url string) (*goquery.Document, error)
	Close() error
}

// ListingFetcher fetches a search listing over plain HTTP, sparing the
// browser budget for pages that need JavaScript.
type ListingFetcher interface {
	GetDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// BrowserSource renders pages through the run's single browser session.
type BrowserSource struct {
	session *browser.Session
	cfg     *config.Harvest
	logger  *slog.Logger
}

// NewBrowserSource wraps an already-launched session.
func NewBrowserSource(session *browser.Session, cfg *config.Harvest, logger *slog.Logger) *BrowserSource {
	return &BrowserSource{
		session: session,
		cfg:     cfg,
		logger:  logger.With("component", "browser_source"),
	}
}

// Fetch navigates, waits for the profile's marker element, scrolls lazy
// content into existence, and snapshots the DOM.
func (b *BrowserSource) Fetch(ctx context.Context, p *source.Profile, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := b.session.Navigate(url, p.PageLoadTimeout); err != nil {
		return nil, &types.PageError{URL: url, Err: err}
	}

	// A missing marker is not fatal: extraction on whatever rendered may
	// still find reviews, and the selector chain has its own fallbacks.
	if err := b.session.WaitVisible(p.WaitSelector, p.PageLoadTimeout); err != nil {
		b.logger.Debug("wait selector missed", "url", url, "selector", p.WaitSelector)
	}

	if p.ScrollPasses > 0 {
		b.session.Scroll(p.ScrollPasses, 0, b.cfg.ScrollDelay)
	}
	if b.cfg.RenderSettle > 0 {
		time.Sleep(b.cfg.RenderSettle)
	}

	doc, err := b.session.Document()
	if err != nil {
		return nil, &types.PageError{URL: url, Err: err}
	}
	return doc, nil
}

// Close releases the browser session.
func (b *BrowserSource) Close() error {
	return b.session.Close()
}
