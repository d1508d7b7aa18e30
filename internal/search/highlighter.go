package search

import (
	"unicode"

	"github.com/totalquality/qassist/pkg/utils"
)

// Snippet returns up to maxLen characters of content centred loosely on the first
// occurrence of any term, with "..." marking cut ends. Without a match it is the
// leading maxLen characters. Terms must be lowercase.
func Snippet(content string, terms []string, maxLen int) string {
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return content
	}
	idx := firstMatch(runes, terms)
	if idx < 0 {
		return utils.Truncate(content, maxLen)
	}
	start := max(0, idx-maxLen/4)
	end := min(len(runes), start+maxLen)
	if end-start < maxLen {
		start = max(0, end-maxLen)
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

func firstMatch(runes []rune, terms []string) int {
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}
	best := -1
	for _, term := range terms {
		t := []rune(term)
		if len(t) == 0 {
			continue
		}
	scan:
		for i := 0; i+len(t) <= len(lower); i++ {
			if best >= 0 && i >= best {
				break
			}
			for j := range t {
				if lower[i+j] != t[j] {
					continue scan
				}
			}
			best = i
			break
		}
	}
	return best
}
