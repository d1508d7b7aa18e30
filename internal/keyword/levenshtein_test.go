package keyword

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "escrow", "escrow", 0},
		{"empty a", "", "dscr", 4},
		{"empty b", "fico", "", 4},
		{"one substitution", "fico", "fica", 1},
		{"one insertion", "escrw", "escrow", 1},
		{"one deletion", "reservess", "reserves", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"transposition costs two", "dcsr", "dscr", 2},
		{"case difference", "LTV", "ltv", 3},
		{"unicode runes", "año", "ano", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevenshteinDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			if got := LevenshteinDistance(tt.b, tt.a); got != tt.expected {
				t.Errorf("distance should be symmetric: (%q, %q) = %d", tt.b, tt.a, got)
			}
		})
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"dcsr", "dscr", 1},
		{"aprpaisal", "appraisal", 1},
		{"escrw", "escrow", 1},
		{"", "pitia", 5},
		{"same", "same", 0},
		{"ca", "abc", 3},
	}
	for _, tt := range tests {
		if got := DamerauLevenshteinDistance(tt.a, tt.b); got != tt.expected {
			t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}
}
