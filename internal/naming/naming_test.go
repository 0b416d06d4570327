package naming

import (
	"strings"
	"testing"
)

func TestCollectionID(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		platform string
		want     string
	}{
		{
			name:     "turkish transliteration",
			text:     "İstanbul Kedi Mama",
			platform: "hepsiburada",
			want:     "hepsiburada_reviews_istanbul_kedi_mama",
		},
		{
			name:     "lowercase turkish letters",
			text:     "çğıöşü",
			platform: "n11",
			want:     "n11_reviews_cgiosu",
		},
		{
			name:     "punctuation only yields bare prefix",
			text:     "!!!",
			platform: "amazon",
			want:     "amazon_reviews_",
		},
		{
			name:     "empty text yields bare prefix",
			text:     "",
			platform: "trendyol",
			want:     "trendyol_reviews_",
		},
		{
			name:     "whitespace runs collapse to one underscore",
			text:     "kedi   mama \t 15kg",
			platform: "n11",
			want:     "n11_reviews_kedi_mama_15kg",
		},
		{
			name:     "underscore runs collapse",
			text:     "a__b _ c",
			platform: "amazon",
			want:     "amazon_reviews_a_b_c",
		},
		{
			name:     "platform name with spaces and case",
			text:     "mouse",
			platform: "Hepsi Burada",
			want:     "hepsiburada_reviews_mouse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollectionID(tt.text, tt.platform)
			if got != tt.want {
				t.Errorf("CollectionID(%q, %q) = %q, want %q", tt.text, tt.platform, got, tt.want)
			}
		})
	}
}

func TestCollectionIDLengthCap(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := CollectionID(long, "n11")

	if len(got) != MaxIdentifierLength {
		t.Fatalf("expected exactly %d characters, got %d (%q)", MaxIdentifierLength, len(got), got)
	}
	if !strings.HasPrefix(got, "n11_reviews_") {
		t.Errorf("prefix must survive truncation, got %q", got)
	}
	if strings.HasSuffix(got, "_") {
		t.Errorf("truncated identifier must not end with underscore: %q", got)
	}
}

func TestCollectionIDTruncationTrimsTrailingUnderscore(t *testing.T) {
	// Build text whose truncation point lands on a word boundary so the
	// cut would otherwise leave a trailing underscore.
	text := strings.Repeat("ab ", 40)
	got := CollectionID(text, "hepsiburada")

	if len(got) > MaxIdentifierLength {
		t.Fatalf("identifier exceeds %d characters: %q", MaxIdentifierLength, got)
	}
	if strings.HasSuffix(got, "_") {
		t.Errorf("identifier must not end with underscore: %q", got)
	}
}

func TestCollectionIDDeterministic(t *testing.T) {
	inputs := []string{"Kedi Maması 15 KG!", "", "ÇOK iyi ürün", strings.Repeat("x y ", 50)}
	for _, in := range inputs {
		first := CollectionID(in, "trendyol")
		for i := 0; i < 5; i++ {
			if again := CollectionID(in, "trendyol"); again != first {
				t.Fatalf("CollectionID(%q) not deterministic: %q vs %q", in, first, again)
			}
		}
		// Idempotent under repetition: normalizing an already-safe text
		// changes nothing.
		if safe := SafeText(SafeText(in)); safe != SafeText(in) {
			t.Errorf("SafeText not idempotent for %q: %q vs %q", in, safe, SafeText(in))
		}
	}
}

func BenchmarkCollectionID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CollectionID("Xiaomi Mi Robot Vacuum-Mop 2 Pro Akıllı Robot Süpürge", "hepsiburada")
	}
}
