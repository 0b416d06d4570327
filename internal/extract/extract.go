// Package extract pulls review candidates and ancillary product data out
// of rendered storefront markup. CSS selector chains are tried in order;
// a profile may declare an XPath fallback for markup that defeats CSS.
package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/yorumly/reviewstalk/internal/source"
	"github.com/yorumly/reviewstalk/internal/types"
)

// Candidate is one review as it comes off the page, before validation,
// dedup, and record assembly.
type Candidate struct {
	Text   string
	Date   string
	Rating float64
	Likes  int
}

// Extractor reads fields out of parsed documents.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// Reviews walks the profile's review selector chain and returns the
// candidates found by the first selector that matches anything. When the
// whole chain misses and the profile declares an XPath fallback, the raw
// markup is re-queried with it. Field-level parse failures substitute
// zero values; they never abort a candidate.
func (e *Extractor) Reviews(doc *goquery.Document, p *source.Profile) []Candidate {
	for _, selector := range p.ReviewSelectors {
		cards := doc.Find(selector)
		if cards.Length() == 0 {
			continue
		}

		candidates := make([]Candidate, 0, cards.Length())
		cards.Each(func(i int, card *goquery.Selection) {
			text := strings.TrimSpace(card.Text())
			if text == "" {
				return
			}
			candidates = append(candidates, Candidate{
				Text:   text,
				Date:   e.firstText(card, p.DateSelectors),
				Rating: e.rating(card, p.RatingSelectors),
				Likes:  e.likes(card, p.LikesSelectors),
			})
		})
		if len(candidates) > 0 {
			e.logger.Debug("reviews extracted", "selector", selector, "count", len(candidates))
			return candidates
		}
	}

	if p.ReviewsXPath != "" {
		return e.reviewsXPath(doc, p.ReviewsXPath)
	}
	return nil
}

// reviewsXPath is the fallback path: re-serialize the document and query
// it with the profile's XPath expression. Only comment text survives this
// path; the optional fields stay zero.
func (e *Extractor) reviewsXPath(doc *goquery.Document, expr string) []Candidate {
	markup, err := doc.Html()
	if err != nil {
		e.logger.Warn("xpath fallback: serialize failed", "error", err)
		return nil
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("xpath fallback: reparse failed", "error", err)
		return nil
	}
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		e.logger.Warn("xpath fallback: invalid expression", "xpath", expr, "error", err)
		return nil
	}

	var candidates []Candidate
	for _, node := range nodes {
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if text == "" {
			continue
		}
		candidates = append(candidates, Candidate{Text: text})
	}
	e.logger.Debug("reviews extracted via xpath", "xpath", expr, "count", len(candidates))
	return candidates
}

// Price finds the product price. Returns nil when no selector matches or
// the matched text does not parse.
func (e *Extractor) Price(doc *goquery.Document, p *source.Profile) *float64 {
	for _, selector := range p.PriceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if price, ok := ParsePrice(text); ok {
			return &price
		}
	}
	return nil
}

// ProductLinks collects product page URLs from a search listing, resolved
// against the listing URL, deduplicated, capped at max.
func (e *Extractor) ProductLinks(doc *goquery.Document, p *source.Profile, listingURL string, max int) []string {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	for _, selector := range p.ProductLinkSelectors {
		doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok || href == "" {
				return true
			}
			href = strings.TrimSpace(href)
			if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
				return true
			}
			parsed, err := url.Parse(href)
			if err != nil {
				return true
			}
			resolved := base.ResolveReference(parsed)
			if resolved.Scheme != "http" && resolved.Scheme != "https" {
				return true
			}
			resolved.Fragment = ""
			abs := resolved.String()
			if !seen[abs] {
				seen[abs] = true
				links = append(links, abs)
			}
			return max <= 0 || len(links) < max
		})
		if len(links) > 0 {
			break
		}
	}
	return links
}

// firstText returns the first non-empty text (or content attribute) from
// a selector chain scoped to one review card.
func (e *Extractor) firstText(card *goquery.Selection, chain source.SelectorChain) string {
	for _, selector := range chain {
		sel := card.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text
		}
		// Hepsiburada keeps the ISO date in a content attribute while
		// rendering a localized label.
		if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

func (e *Extractor) rating(card *goquery.Selection, chain source.SelectorChain) float64 {
	for _, selector := range chain {
		sel := card.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if style, ok := sel.Attr("style"); ok {
			if r, parsed := ratingFromStyleWidth(style); parsed {
				return r
			}
		}
		if r, parsed := ParseRating(sel.Text()); parsed {
			return r
		}
	}
	return 0
}

func (e *Extractor) likes(card *goquery.Selection, chain source.SelectorChain) int {
	for _, selector := range chain {
		text := strings.TrimSpace(card.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if likes, ok := parseFirstInt(text); ok {
			return likes
		}
	}
	return 0
}

var (
	numberPattern  = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	intPattern     = regexp.MustCompile(`\d+`)
	percentPattern = regexp.MustCompile(`width:\s*([\d.]+)%`)
)

// ParsePrice extracts a numeric price from storefront text. Turkish
// formatting uses "." as the thousands separator and "," for decimals
// ("1.299,90 TL"); plain decimal-point prices parse too.
func ParsePrice(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}

	if strings.Contains(match, ",") {
		// Turkish style: drop thousands dots, comma becomes the decimal.
		match = strings.ReplaceAll(match, ".", "")
		match = strings.ReplaceAll(match, ",", ".")
	} else if dots := strings.Count(match, "."); dots > 1 {
		// Several dots with no comma: all of them are thousands separators.
		match = strings.ReplaceAll(match, ".", "")
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

// ParseRating extracts a star rating from text like "4,5", "4.0 out of
// 5 stars" or "5 yıldız". Values are clamped into [0, 5].
func ParseRating(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	match = strings.ReplaceAll(match, ",", ".")
	r, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return types.ClampRating(r), true
}

// ratingFromStyleWidth converts a star-bar fill percentage ("width: 80%")
// to a rating on the 5-point scale.
func ratingFromStyleWidth(style string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(style)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return types.ClampRating(pct / 20), true
}

func parseFirstInt(text string) (int, bool) {
	match := intPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
