package source

import (
	"testing"

	"github.com/yorumly/reviewstalk/internal/types"
)

func TestReviewPageURL(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		url      string
		page     int
		want     string
	}{
		{
			name:     "hepsiburada first page gets review suffix",
			platform: types.PlatformHepsiburada,
			url:      "https://www.hepsiburada.com/kedi-mamasi-p-HB123",
			page:     1,
			want:     "https://www.hepsiburada.com/kedi-mamasi-p-HB123-yorumlari",
		},
		{
			name:     "hepsiburada later pages add the page parameter",
			platform: types.PlatformHepsiburada,
			url:      "https://www.hepsiburada.com/kedi-mamasi-p-HB123",
			page:     3,
			want:     "https://www.hepsiburada.com/kedi-mamasi-p-HB123-yorumlari?sayfa=3",
		},
		{
			name:     "existing query string is stripped",
			platform: types.PlatformTrendyol,
			url:      "https://www.trendyol.com/akilli-saat-p-42?boutiqueId=9",
			page:     2,
			want:     "https://www.trendyol.com/akilli-saat-p-42?sayfa=2",
		},
		{
			name:     "scroll-only platform ignores page numbers",
			platform: types.PlatformAliExpress,
			url:      "https://www.aliexpress.com/item/100500.html",
			page:     4,
			want:     "https://www.aliexpress.com/item/100500.html",
		},
		{
			name:     "suffix is not doubled",
			platform: types.PlatformHepsiburada,
			url:      "https://www.hepsiburada.com/kedi-mamasi-p-HB123-yorumlari",
			page:     1,
			want:     "https://www.hepsiburada.com/kedi-mamasi-p-HB123-yorumlari",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.platform)
			if err != nil {
				t.Fatalf("lookup %q: %v", tt.platform, err)
			}
			if got := p.ReviewPageURL(tt.url, tt.page); got != tt.want {
				t.Errorf("ReviewPageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProductNameFromURL(t *testing.T) {
	p, err := Lookup(types.PlatformHepsiburada)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.hepsiburada.com/philips-airfryer-xl-p-HB0001", "Philips Airfryer Xl"},
		{"https://www.hepsiburada.com/kedi-mamasi-p-HB123-yorumlari", "Kedi Mamasi"},
		{"https://www.hepsiburada.com/", "hepsiburada product"},
		{"://broken", "hepsiburada product"},
	}
	for _, tt := range tests {
		if got := p.ProductNameFromURL(tt.url); got != tt.want {
			t.Errorf("ProductNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSearchURL(t *testing.T) {
	p, err := Lookup(types.PlatformTrendyol)
	if err != nil {
		t.Fatal(err)
	}
	got := p.SearchURL("kedi maması")
	want := "https://www.trendyol.com/sr?q=kedi+mamas%C4%B1"
	if got != want {
		t.Errorf("SearchURL() = %q, want %q", got, want)
	}
}

func TestLookupUnknownPlatform(t *testing.T) {
	if _, err := Lookup("ebay"); err == nil {
		t.Fatal("expected an error for an unregistered platform")
	}
	if _, err := Lookup("  TRENDYOL "); err != nil {
		t.Errorf("lookup must normalize case and whitespace: %v", err)
	}
}

func TestDetect(t *testing.T) {
	p, err := Detect("https://www.hepsiburada.com/urun-p-1")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if p.Platform != types.PlatformHepsiburada {
		t.Errorf("detected %q, want hepsiburada", p.Platform)
	}

	if _, err := Detect("https://www.example.com/urun"); err == nil {
		t.Error("unknown host must not resolve to a profile")
	}
}

func TestEveryProfileIsHarvestable(t *testing.T) {
	for _, tag := range Platforms() {
		p, err := Lookup(tag)
		if err != nil {
			t.Fatalf("lookup %q: %v", tag, err)
		}
		if len(p.ReviewSelectors) == 0 {
			t.Errorf("%s: no review selectors", tag)
		}
		if p.SearchURLTemplate == "" {
			t.Errorf("%s: no search endpoint", tag)
		}
		if p.MaxPages <= 0 {
			t.Errorf("%s: max pages must be positive", tag)
		}
	}
}
