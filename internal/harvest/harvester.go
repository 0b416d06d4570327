// Package harvest runs the budget-bounded review harvest loops. One run
// owns one browser session, walks review pages sequentially, and flushes
// accepted records to storage page by page so an early stop loses nothing
// already gathered.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/dedup"
	"github.com/yorumly/reviewstalk/internal/extract"
	"github.com/yorumly/reviewstalk/internal/naming"
	"github.com/yorumly/reviewstalk/internal/pipeline"
	"github.com/yorumly/reviewstalk/internal/source"
	"github.com/yorumly/reviewstalk/internal/storage"
	"github.com/yorumly/reviewstalk/internal/types"
)

// Harvester executes product and search harvests.
type Harvester struct {
	store     storage.ReviewStore
	src       PageSource
	listing   ListingFetcher
	extractor *extract.Extractor
	cfg       *config.Config
	logger    *slog.Logger

	// now is the clock; tests substitute a fake to simulate page cost.
	now func() time.Time
}

// New creates a Harvester. listing may be nil; search runs then render
// the listing through the browser instead.
func New(store storage.ReviewStore, src PageSource, listing ListingFetcher, cfg *config.Config, logger *slog.Logger) *Harvester {
	return &Harvester{
		store:     store,
		src:       src,
		listing:   listing,
		extractor: extract.New(logger),
		cfg:       cfg,
		logger:    logger.With("component", "harvester"),
		now:       time.Now,
	}
}

func (h *Harvester) newBudget() *Budget {
	b := &Budget{
		limit:  h.cfg.Harvest.TimeBudget,
		margin: h.cfg.Harvest.BudgetMargin,
		now:    h.now,
	}
	b.start = b.now()
	return b
}

func (h *Harvester) maxPages(p *source.Profile) int {
	max := h.cfg.Harvest.MaxPages
	if p.MaxPages > 0 && (max <= 0 || p.MaxPages < max) {
		max = p.MaxPages
	}
	if max <= 0 {
		max = 1
	}
	return max
}

func (h *Harvester) newPipeline(p *source.Profile, set *dedup.CommentSet) *pipeline.Pipeline {
	pl := pipeline.New(h.logger)
	pl.Use(&pipeline.TrimMiddleware{})
	pl.Use(&pipeline.MinLengthMiddleware{Min: p.MinLength()})
	pl.Use(&pipeline.DedupMiddleware{Set: set})
	pl.Use(&pipeline.DefaultsMiddleware{})
	return pl
}

// HarvestProduct harvests all review pages of one product into its own
// collection. The collection is cleared first: a rerun replaces, never
// appends. Failures on individual pages are skipped and logged; only
// setup and storage infrastructure errors abort the run.
func (h *Harvester) HarvestProduct(ctx context.Context, p *source.Profile, productURL string) (*types.RunResult, error) {
	productName := p.ProductNameFromURL(productURL)
	collectionID := naming.CollectionID(productName, p.ShortName)

	h.logger.Info("product harvest starting",
		"platform", p.Platform,
		"product", productName,
		"collection", collectionID,
	)

	if err := h.store.Clear(ctx, collectionID); err != nil {
		return nil, err
	}

	budget := h.newBudget()
	set := dedup.NewCommentSet(p.DedupPolicy)
	pl := h.newPipeline(p, set)

	var (
		all     []*types.ReviewRecord
		price   *float64
		partial bool
	)

	for page := 1; page <= h.maxPages(p); page++ {
		if budget.Exhausted() || ctx.Err() != nil {
			partial = true
			h.logger.Warn("time budget exhausted", "page", page, "elapsed", budget.Elapsed())
			break
		}

		pageURL := p.ReviewPageURL(productURL, page)
		doc, err := h.src.Fetch(ctx, p, pageURL)
		if err != nil {
			h.logger.Warn("page skipped", "page", page, "url", pageURL, "error", err)
			continue
		}

		if page == 1 {
			price = h.extractor.Price(doc, p)
		}

		records := h.assemble(pl, p, doc, page, productName, productURL, "")
		if len(records) == 0 {
			// No new records on a rendered page means the content is
			// exhausted; later pages only repeat or come up empty.
			h.logger.Info("no new reviews, stopping", "page", page)
			break
		}

		if err := h.flush(ctx, collectionID, records); err != nil {
			return nil, err
		}
		all = append(all, records...)
	}

	if err := h.store.BackfillTotals(ctx, collectionID, productName, len(all)); err != nil {
		h.logger.Warn("total backfill failed", "collection", collectionID, "error", err)
	}

	h.logger.Info("product harvest finished",
		"total", len(all),
		"partial", partial,
		"elapsed", budget.Elapsed(),
	)

	return &types.RunResult{
		Success:        true,
		TotalReviews:   len(all),
		CollectionName: collectionID,
		ProductName:    productName,
		Platform:       p.Platform,
		Price:          price,
		Partial:        partial,
		Results:        all,
	}, nil
}

// HarvestSearch fetches a search listing, then harvests up to maxProducts
// of its products into one shared collection named after the search term.
// The collection is appended to, never cleared: successive searches
// accumulate. All products share one time budget.
func (h *Harvester) HarvestSearch(ctx context.Context, p *source.Profile, searchTerm string) (*types.RunResult, error) {
	collectionID := naming.CollectionID(searchTerm, p.ShortName)
	searchURL := p.SearchURL(searchTerm)
	if searchURL == "" {
		return nil, fmt.Errorf("%w: %q has no search endpoint", types.ErrUnknownPlatform, p.Platform)
	}

	h.logger.Info("search harvest starting",
		"platform", p.Platform,
		"term", searchTerm,
		"collection", collectionID,
	)

	budget := h.newBudget()

	maxProducts := h.cfg.Harvest.MaxProducts
	if maxProducts <= 0 {
		maxProducts = 1
	}

	links, err := h.productLinks(ctx, p, searchURL, maxProducts)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %q on %s", types.ErrNoProducts, searchTerm, p.Platform)
	}

	var (
		all     []*types.ReviewRecord
		partial bool
	)

	for _, productURL := range links {
		if budget.Exhausted() || ctx.Err() != nil {
			partial = true
			h.logger.Warn("time budget exhausted", "remaining_products", len(links), "elapsed", budget.Elapsed())
			break
		}

		productName := p.ProductNameFromURL(productURL)
		set := dedup.NewCommentSet(p.DedupPolicy)
		pl := h.newPipeline(p, set)

		var productRecords []*types.ReviewRecord
		for page := 1; page <= h.maxPages(p); page++ {
			if budget.Exhausted() || ctx.Err() != nil {
				partial = true
				break
			}

			pageURL := p.ReviewPageURL(productURL, page)
			doc, err := h.src.Fetch(ctx, p, pageURL)
			if err != nil {
				h.logger.Warn("page skipped", "product", productName, "page", page, "error", err)
				continue
			}

			records := h.assemble(pl, p, doc, page, productName, productURL, searchTerm)
			if len(records) == 0 {
				break
			}

			if err := h.flush(ctx, collectionID, records); err != nil {
				return nil, err
			}
			productRecords = append(productRecords, records...)
		}

		if err := h.store.BackfillTotals(ctx, collectionID, productName, len(productRecords)); err != nil {
			h.logger.Warn("total backfill failed", "product", productName, "error", err)
		}
		all = append(all, productRecords...)

		h.logger.Info("product done", "product", productName, "reviews", len(productRecords))
	}

	h.logger.Info("search harvest finished",
		"total", len(all),
		"products", len(links),
		"partial", partial,
		"elapsed", budget.Elapsed(),
	)

	return &types.RunResult{
		Success:        true,
		TotalReviews:   len(all),
		CollectionName: collectionID,
		Platform:       p.Platform,
		Partial:        partial,
		Results:        all,
	}, nil
}

// productLinks resolves the search listing into product URLs, preferring
// the plain HTTP fetcher and falling back to the browser.
func (h *Harvester) productLinks(ctx context.Context, p *source.Profile, searchURL string, max int) ([]string, error) {
	if h.listing != nil {
		doc, err := h.listing.GetDocument(ctx, searchURL)
		if err == nil {
			if links := h.extractor.ProductLinks(doc, p, searchURL, max); len(links) > 0 {
				return links, nil
			}
		} else {
			h.logger.Debug("plain listing fetch failed, using browser", "error", err)
		}
	}

	doc, err := h.src.Fetch(ctx, p, searchURL)
	if err != nil {
		return nil, err
	}
	return h.extractor.ProductLinks(doc, p, searchURL, max), nil
}

// assemble extracts candidates from a rendered page and runs each through
// validation, dedup, and normalization. Candidates that fail validation
// are dropped individually; a bad candidate never poisons its page.
func (h *Harvester) assemble(pl *pipeline.Pipeline, p *source.Profile, doc *goquery.Document, page int, productName, productURL, searchTerm string) []*types.ReviewRecord {
	candidates := h.extractor.Reviews(doc, p)

	records := make([]*types.ReviewRecord, 0, len(candidates))
	for i, cand := range candidates {
		rec, err := types.NewReviewRecord(p.Platform, cand.Text, p.MinLength())
		if err != nil {
			continue
		}
		rec.CommentDate = cand.Date
		rec.Rating = cand.Rating
		rec.Likes = cand.Likes
		rec.ProductName = productName
		rec.ProductURL = productURL
		rec.SearchTerm = searchTerm
		rec.PageNumber = page
		rec.IndexInPage = i

		processed, err := pl.Process(rec)
		if err != nil {
			h.logger.Warn("candidate rejected", "page", page, "index", i, "error", err)
			continue
		}
		if processed != nil {
			records = append(records, processed)
		}
	}
	return records
}

// flush writes one page's records. A partial batch failure is logged and
// tolerated; only an infrastructure error aborts the run.
func (h *Harvester) flush(ctx context.Context, collectionID string, records []*types.ReviewRecord) error {
	result, err := h.store.WriteBatch(ctx, collectionID, records)
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		h.logger.Warn("some records not persisted", "failed", len(result.Failed), "inserted", result.Inserted)
	}
	return nil
}
