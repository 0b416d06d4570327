package types

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Known platform tags. Profiles register under these names.
const (
	PlatformHepsiburada = "hepsiburada"
	PlatformTrendyol    = "trendyol"
	PlatformN11         = "n11"
	PlatformAmazon      = "amazon"
	PlatformAliExpress  = "aliexpress"
)

// DefaultMinCommentLength is the acceptance threshold for trimmed comment
// text when a source profile does not override it.
const DefaultMinCommentLength = 10

// ReviewRecord is one harvested review. It is immutable after creation
// except for TotalReviews, which the batch writer back-fills once all
// records for the product have been written.
type ReviewRecord struct {
	// ID is assigned by the batch writer; unique within a run.
	ID string `bson:"_id" json:"id"`

	// Platform is the source site tag.
	Platform string `bson:"platform" json:"platform"`

	// Comment is the trimmed review text. Never empty.
	Comment string `bson:"comment" json:"comment"`

	// CommentDate is the review's own date as rendered by the source.
	// Free text, not normalized; empty when the source exposes none.
	CommentDate string `bson:"comment_date,omitempty" json:"commentDate,omitempty"`

	// Rating is the per-review star rating in [0, 5]. Zero when the
	// source exposes no per-review rating.
	Rating float64 `bson:"rating" json:"rating"`

	// Likes is the "helpful" count; zero when the source has none.
	Likes int `bson:"likes" json:"likes"`

	// ProductName and ProductURL are provenance, not identity.
	ProductName string `bson:"product_name" json:"productName"`
	ProductURL  string `bson:"product_url" json:"productUrl"`

	// SearchTerm is set only on records harvested via a search run.
	SearchTerm string `bson:"search_term,omitempty" json:"searchTerm,omitempty"`

	// CollectionID is the derived storage identifier this record is
	// grouped under.
	CollectionID string `bson:"collection_id" json:"collectionId"`

	// HarvestedAt is assigned at write time.
	HarvestedAt time.Time `bson:"harvested_at" json:"harvestedAt"`

	// PageNumber and IndexInPage are positional provenance.
	PageNumber  int `bson:"page_number" json:"pageNumber"`
	IndexInPage int `bson:"index_in_page" json:"indexInPage"`

	// TotalReviews is the number of sibling records in the same product
	// grouping, back-filled after the product's harvest completes.
	TotalReviews int `bson:"total_reviews,omitempty" json:"totalReviews,omitempty"`
}

// NewReviewRecord validates candidate comment text and builds a record.
// Candidates whose trimmed text is at or below minLen characters are
// rejected. Length is measured in runes, not bytes: Turkish text would
// otherwise clear the threshold on encoding width alone.
func NewReviewRecord(platform, comment string, minLen int) (*ReviewRecord, error) {
	if minLen <= 0 {
		minLen = DefaultMinCommentLength
	}
	trimmed := strings.TrimSpace(comment)
	if utf8.RuneCountInString(trimmed) <= minLen {
		return nil, ErrCommentTooShort
	}
	return &ReviewRecord{
		Platform: platform,
		Comment:  trimmed,
	}, nil
}

// ClampRating forces a parsed rating into the valid [0, 5] range.
func ClampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

// HarvestResult is the outcome of one budget-bounded harvest loop.
type HarvestResult struct {
	// Records are all accepted records, including those gathered before
	// an early termination.
	Records []*ReviewRecord

	// Partial is true when the loop stopped because the time budget ran
	// out rather than because content was exhausted.
	Partial bool
}

// RunResult is the JSON object the process always terminates with.
type RunResult struct {
	Success        bool            `json:"success"`
	TotalReviews   int             `json:"totalReviews"`
	CollectionName string          `json:"collectionName,omitempty"`
	ProductName    string          `json:"productName,omitempty"`
	Platform       string          `json:"platform,omitempty"`
	Price          *float64        `json:"price,omitempty"`
	Partial        bool            `json:"partial,omitempty"`
	Results        []*ReviewRecord `json:"results,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// WriteFailure describes one record that a batch write could not persist.
type WriteFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// WriteResult reports the outcome of one unordered batch write. A batch
// with failures is not an error; the writer never raises for partial
// failure.
type WriteResult struct {
	Inserted int            `json:"inserted"`
	Failed   []WriteFailure `json:"failed,omitempty"`
}
