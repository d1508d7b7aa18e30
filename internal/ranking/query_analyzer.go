package ranking

import (
	"strings"
	"unicode/utf8"
)

// QueryAnalyzer analyzes search queries to extract terms.
type QueryAnalyzer struct {
	minTermLength int
}

// NewQueryAnalyzer creates a new QueryAnalyzer that keeps tokens of at least
// minTermLength characters.
func NewQueryAnalyzer(minTermLength int) *QueryAnalyzer {
	return &QueryAnalyzer{minTermLength: minTermLength}
}

// Analyze parses a query string and returns an AnalyzedQuery.
// Terms are split on whitespace and keep punctuation, so "cash-out" stays one term.
func (qa *QueryAnalyzer) Analyze(query string) *AnalyzedQuery {
	lower := strings.ToLower(query)
	result := &AnalyzedQuery{
		Original: query,
		Lower:    lower,
		Terms:    []string{},
		Blank:    strings.TrimSpace(query) == "",
	}
	for _, tok := range strings.Fields(lower) {
		if utf8.RuneCountInString(tok) >= qa.minTermLength {
			result.Terms = append(result.Terms, tok)
		}
	}
	return result
}
