package ranking

import "strings"

// KeywordScorer scores an entry's curated keywords against the query.
type KeywordScorer struct {
	config *RankingConfig
}

// NewKeywordScorer creates a new KeywordScorer.
func NewKeywordScorer(config *RankingConfig) *KeywordScorer {
	return &KeywordScorer{config: config}
}

// Name returns the scorer name.
func (s *KeywordScorer) Name() string {
	return "keyword"
}

// Score awards KeywordInQueryScore for every keyword that appears inside the query,
// plus KeywordTermScore for every query term that appears inside a keyword.
func (s *KeywordScorer) Score(ctx *ScoringContext) float64 {
	var score float64
	for _, kw := range ctx.Keywords {
		if strings.Contains(ctx.Query.Lower, kw) {
			score += s.config.KeywordInQueryScore
		}
		for _, term := range ctx.Query.Terms {
			if strings.Contains(kw, term) {
				score += s.config.KeywordTermScore
			}
		}
	}
	return score
}
