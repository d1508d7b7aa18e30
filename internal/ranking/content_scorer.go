package ranking

import "strings"

// ContentScorer scores query terms found in the entry body.
type ContentScorer struct {
	config *RankingConfig
}

// NewContentScorer creates a new ContentScorer.
func NewContentScorer(config *RankingConfig) *ContentScorer {
	return &ContentScorer{config: config}
}

// Name returns the scorer name.
func (s *ContentScorer) Name() string {
	return "content"
}

// Score awards ContentTermScore per term present anywhere in the content.
// Repeated occurrences of a term count once.
func (s *ContentScorer) Score(ctx *ScoringContext) float64 {
	var score float64
	for _, term := range ctx.Query.Terms {
		if strings.Contains(ctx.Content, term) {
			score += s.config.ContentTermScore
		}
	}
	return score
}
