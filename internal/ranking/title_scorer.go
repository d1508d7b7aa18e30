package ranking

import "strings"

// TitleScorer scores query matches in the entry title.
type TitleScorer struct {
	config *RankingConfig
}

// NewTitleScorer creates a new TitleScorer.
func NewTitleScorer(config *RankingConfig) *TitleScorer {
	return &TitleScorer{config: config}
}

// Name returns the scorer name.
func (s *TitleScorer) Name() string {
	return "title"
}

// Score awards TitlePhraseScore when the title contains the whole lowercased query
// and TitleTermScore per term found in the title.
func (s *TitleScorer) Score(ctx *ScoringContext) float64 {
	var score float64
	if strings.Contains(ctx.Title, ctx.Query.Lower) {
		score += s.config.TitlePhraseScore
	}
	for _, term := range ctx.Query.Terms {
		if strings.Contains(ctx.Title, term) {
			score += s.config.TitleTermScore
		}
	}
	return score
}
