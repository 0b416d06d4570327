package types

import (
	"errors"
	"strings"
	"testing"
)

func TestNewReviewRecord(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		minLen  int
		wantErr bool
	}{
		{"accepted", "Ürün beklediğimden çok daha iyi çıktı.", 10, false},
		{"trimmed before measuring", "   kısa yorum   ", 20, true},
		{"exactly at threshold rejected", strings.Repeat("a", 10), 10, true},
		{"one over threshold accepted", strings.Repeat("a", 11), 10, false},
		{"zero minLen uses default", strings.Repeat("a", 10), 0, true},
		{"whitespace only", "    \n\t  ", 10, true},
		// Length is runes: 6 Turkish characters are 12 bytes but still
		// 6 characters, well under a 10-character threshold.
		{"multi-byte runes counted once", strings.Repeat("ç", 6), 10, true},
		{"multi-byte at threshold rejected", strings.Repeat("ş", 10), 10, true},
		{"multi-byte over threshold accepted", strings.Repeat("ğ", 11), 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewReviewRecord(PlatformTrendyol, tt.comment, tt.minLen)
			if tt.wantErr {
				if !errors.Is(err, ErrCommentTooShort) {
					t.Fatalf("expected ErrCommentTooShort, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Comment != strings.TrimSpace(tt.comment) {
				t.Errorf("comment not trimmed: %q", rec.Comment)
			}
			if rec.Platform != PlatformTrendyol {
				t.Errorf("platform = %q", rec.Platform)
			}
		})
	}
}

func TestClampRating(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{3.5, 3.5},
		{5, 5},
		{9.8, 5},
	}
	for _, tt := range tests {
		if got := ClampRating(tt.in); got != tt.want {
			t.Errorf("ClampRating(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrorWrapping(t *testing.T) {
	inner := errors.New("connection refused")

	var err error = &SetupError{Component: "mongodb", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("SetupError must unwrap to its cause")
	}

	err = &StoreError{Op: "insert", Collection: "all_reviews", Err: ErrStoreClosed}
	if !errors.Is(err, ErrStoreClosed) {
		t.Error("StoreError must unwrap to its cause")
	}

	err = &PageError{URL: "https://x", Page: 2, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("PageError must unwrap to its cause")
	}
}
