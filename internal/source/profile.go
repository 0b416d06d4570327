// Package source holds the per-platform harvest descriptors. Selectors and
// thresholds are data here, not code: adding a platform means adding a
// Profile, not another harvest loop.
package source

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yorumly/reviewstalk/internal/dedup"
	"github.com/yorumly/reviewstalk/internal/types"
)

// SelectorChain is an ordered list of CSS selectors tried until one matches.
// Site markup rots; the chain keeps older selectors as fallbacks.
type SelectorChain []string

// Profile describes how one platform is harvested.
type Profile struct {
	// Platform is the canonical tag stored on every record.
	Platform string

	// ShortName prefixes derived collection identifiers.
	ShortName string

	// ReviewSelectors locate review card containers on a review page.
	ReviewSelectors SelectorChain

	// DateSelectors, RatingSelectors, LikesSelectors locate optional
	// per-review fields inside a review card.
	DateSelectors   SelectorChain
	RatingSelectors SelectorChain
	LikesSelectors  SelectorChain

	// PriceSelectors locate the product price on the product page.
	PriceSelectors SelectorChain

	// ProductLinkSelectors locate product anchors on a search listing.
	ProductLinkSelectors SelectorChain

	// ReviewsXPath is an optional XPath fallback for review text, used
	// when every CSS selector in ReviewSelectors comes up empty.
	ReviewsXPath string

	// WaitSelector is polled (bounded) before extraction to let
	// client-side rendering finish.
	WaitSelector string

	// PageParam is the query parameter that addresses review pages
	// ("sayfa", "pageNumber", ...). Empty means the platform paginates
	// by scrolling only.
	PageParam string

	// ReviewPathSuffix is appended to a product URL to reach its review
	// page (e.g. Hepsiburada's "-yorumlari").
	ReviewPathSuffix string

	// SearchURLTemplate builds a search listing URL; %s receives the
	// query-escaped search term.
	SearchURLTemplate string

	// ScrollPasses is how many incremental scrolls trigger lazy content
	// per page.
	ScrollPasses int

	// MinCommentLength rejects shorter trimmed comments. Zero means the
	// shared default.
	MinCommentLength int

	// DedupPolicy selects exact or first-100-characters matching. The
	// prefix policy is an explicit opt-in for sources that re-render
	// truncated tails; it must never be a silent default.
	DedupPolicy dedup.Policy

	// MaxPages bounds pagination when the caller sets no limit.
	MaxPages int

	// PageLoadTimeout bounds one navigation; element polling uses the
	// same bound.
	PageLoadTimeout time.Duration
}

// ReviewPageURL builds the URL for the nth review page of a product.
func (p *Profile) ReviewPageURL(productURL string, page int) string {
	base := productURL
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	if p.ReviewPathSuffix != "" && !strings.HasSuffix(base, p.ReviewPathSuffix) {
		base += p.ReviewPathSuffix
	}
	if p.PageParam == "" || page <= 1 {
		return base
	}
	return fmt.Sprintf("%s?%s=%d", base, p.PageParam, page)
}

// SearchURL builds the listing URL for a search term.
func (p *Profile) SearchURL(term string) string {
	if p.SearchURLTemplate == "" {
		return ""
	}
	return fmt.Sprintf(p.SearchURLTemplate, url.QueryEscape(strings.TrimSpace(term)))
}

// MinLength returns the effective comment acceptance threshold.
func (p *Profile) MinLength() int {
	if p.MinCommentLength > 0 {
		return p.MinCommentLength
	}
	return types.DefaultMinCommentLength
}

// ProductNameFromURL recovers a human-readable product name from a product
// URL slug. Falls back to a generic platform label when the URL carries no
// recognizable slug.
func (p *Profile) ProductNameFromURL(rawURL string) string {
	fallback := p.Platform + " product"

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}

	for _, part := range strings.Split(u.Path, "/") {
		slug := part
		// Hepsiburada and Trendyol embed the name before a "-p-" code.
		if i := strings.Index(part, "-p-"); i > 0 {
			slug = part[:i]
		} else if part == "" || !strings.Contains(part, "-") {
			continue
		}
		slug = strings.TrimSuffix(slug, p.ReviewPathSuffix)

		words := strings.Split(slug, "-")
		titled := make([]string, 0, len(words))
		for _, w := range words {
			if w == "" {
				continue
			}
			titled = append(titled, strings.ToUpper(w[:1])+w[1:])
		}
		if len(titled) >= 2 {
			return strings.Join(titled, " ")
		}
	}
	return fallback
}

// registry maps platform tags to their descriptors.
var registry = map[string]*Profile{
	types.PlatformHepsiburada: {
		Platform:  types.PlatformHepsiburada,
		ShortName: "hepsiburada",
		ReviewSelectors: SelectorChain{
			`[class*="hermes-ReviewCard-module"]`,
			`div[itemprop="review"]`,
		},
		DateSelectors: SelectorChain{
			`span[class*="hermes-ReviewCard-module"][content]`,
		},
		RatingSelectors: SelectorChain{
			`[class*="star"][style*="width"]`,
		},
		LikesSelectors: SelectorChain{
			`[class*="thumbs-up"] span`,
		},
		PriceSelectors: SelectorChain{
			`[data-test-id="price-current-price"]`,
			`.price-value`,
		},
		ProductLinkSelectors: SelectorChain{
			`a[href*="-p-"]`,
		},
		WaitSelector:      `[class*="hermes-ReviewCard-module"]`,
		PageParam:         "sayfa",
		ReviewPathSuffix:  "-yorumlari",
		SearchURLTemplate: "https://www.hepsiburada.com/ara?q=%s",
		ScrollPasses:      4,
		DedupPolicy:       dedup.PolicyExact,
		MaxPages:          10,
		PageLoadTimeout:   10 * time.Second,
	},
	types.PlatformTrendyol: {
		Platform:  types.PlatformTrendyol,
		ShortName: "trendyol",
		ReviewSelectors: SelectorChain{
			`.comment-text p`,
			`.rnr-com-tx`,
			`div.comment`,
		},
		DateSelectors: SelectorChain{
			`.comment-info-item`,
		},
		RatingSelectors: SelectorChain{
			`.full[style*="width"]`,
		},
		PriceSelectors: SelectorChain{
			`.prc-dsc`,
			`.product-price`,
		},
		ProductLinkSelectors: SelectorChain{
			`div.p-card-wrppr a`,
			`a[href*="-p-"]`,
		},
		WaitSelector:      `.comment-text p, .rnr-com-tx`,
		PageParam:         "sayfa",
		SearchURLTemplate: "https://www.trendyol.com/sr?q=%s",
		ScrollPasses:      6,
		DedupPolicy:       dedup.PolicyExact,
		MaxPages:          10,
		PageLoadTimeout:   10 * time.Second,
	},
	types.PlatformN11: {
		Platform:  types.PlatformN11,
		ShortName: "n11",
		ReviewSelectors: SelectorChain{
			`li.comment`,
			`.comment-detail`,
		},
		DateSelectors: SelectorChain{
			`span.commentDate`,
		},
		RatingSelectors: SelectorChain{
			`.ratingCont .rating`,
		},
		LikesSelectors: SelectorChain{
			`.helpful-count`,
		},
		PriceSelectors: SelectorChain{
			`.newPrice ins`,
			`.price`,
		},
		ProductLinkSelectors: SelectorChain{
			`.columnContent .pro a`,
		},
		WaitSelector:      `li.comment`,
		PageParam:         "pg",
		SearchURLTemplate: "https://www.n11.com/arama?q=%s",
		ScrollPasses:      4,
		DedupPolicy:       dedup.PolicyExact,
		MaxPages:          10,
		PageLoadTimeout:   10 * time.Second,
	},
	types.PlatformAmazon: {
		Platform:  types.PlatformAmazon,
		ShortName: "amazon",
		ReviewSelectors: SelectorChain{
			`[data-hook="review-body"] span`,
			`.review-text-content span`,
		},
		DateSelectors: SelectorChain{
			`[data-hook="review-date"]`,
		},
		RatingSelectors: SelectorChain{
			`[data-hook="review-star-rating"] .a-icon-alt`,
			`.review-rating .a-icon-alt`,
		},
		LikesSelectors: SelectorChain{
			`[data-hook="helpful-vote-statement"]`,
		},
		PriceSelectors: SelectorChain{
			`.a-price .a-offscreen`,
			`.a-price-whole`,
			`.a-color-price`,
		},
		ProductLinkSelectors: SelectorChain{
			`div[data-component-type="s-search-result"] h2 a`,
		},
		ReviewsXPath:      `//div[@data-hook="review-collapsed"]//span`,
		WaitSelector:      `[data-hook="review-body"]`,
		PageParam:         "pageNumber",
		SearchURLTemplate: "https://www.amazon.com.tr/s?k=%s",
		ScrollPasses:      3,
		DedupPolicy:       dedup.PolicyExact,
		MaxPages:          10,
		PageLoadTimeout:   12 * time.Second,
	},
	types.PlatformAliExpress: {
		Platform:  types.PlatformAliExpress,
		ShortName: "aliexpress",
		ReviewSelectors: SelectorChain{
			`[class*="list--itemReview"]`,
			`.feedback-item .buyer-feedback span`,
		},
		DateSelectors: SelectorChain{
			`[class*="list--itemInfo"]`,
		},
		RatingSelectors: SelectorChain{
			`[class*="stars--box"]`,
		},
		PriceSelectors: SelectorChain{
			`.product-price-value`,
			`[class*="price--currentPrice"]`,
		},
		ProductLinkSelectors: SelectorChain{
			`a[href*="/item/"]`,
		},
		WaitSelector: `[class*="list--itemReview"]`,
		// AliExpress renders reviews lazily while scrolling; the tail of
		// a re-rendered card can differ by truncation, so the prefix
		// policy is the deliberate choice here.
		PageParam:         "",
		SearchURLTemplate: "https://www.aliexpress.com/wholesale?SearchText=%s",
		ScrollPasses:      8,
		MinCommentLength:  5,
		DedupPolicy:       dedup.PolicyPrefix,
		MaxPages:          1,
		PageLoadTimeout:   15 * time.Second,
	},
}

// Lookup returns the profile registered for a platform tag.
func Lookup(platform string) (*Profile, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownPlatform, platform)
	}
	return p, nil
}

// Detect guesses the platform from a product URL's host.
func Detect(rawURL string) (*Profile, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	for tag, p := range registry {
		if strings.Contains(host, tag) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no profile for host %q", types.ErrUnknownPlatform, host)
}

// Platforms lists the registered platform tags.
func Platforms() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	return tags
}
