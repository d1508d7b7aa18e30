package ranking

// RankingConfig holds all configuration for the ranking system.
// The defaults define the retrieval behaviour the prompt was tuned against.
type RankingConfig struct {
	KeywordInQueryScore float64 `yaml:"keyword_in_query_score"` // default: 10, per keyword found in the query
	KeywordTermScore    float64 `yaml:"keyword_term_score"`     // default: 5, per (keyword, term) containment
	TitlePhraseScore    float64 `yaml:"title_phrase_score"`     // default: 8, title contains the whole query
	TitleTermScore      float64 `yaml:"title_term_score"`       // default: 3, per term in the title
	ContentTermScore    float64 `yaml:"content_term_score"`     // default: 1, per term in the content

	// PriorityScale divides entry priority to form the multiplier.
	PriorityScale float64 `yaml:"priority_scale"` // default: 10

	// MinTermLength is the shortest token kept as a query term.
	MinTermLength int `yaml:"min_term_length"` // default: 3

	// Limit caps the number of results.
	Limit int `yaml:"limit"` // default: 5
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		KeywordInQueryScore: 10,
		KeywordTermScore:    5,
		TitlePhraseScore:    8,
		TitleTermScore:      3,
		ContentTermScore:    1,
		PriorityScale:       10,
		MinTermLength:       3,
		Limit:               5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	if c.KeywordInQueryScore == 0 {
		c.KeywordInQueryScore = defaults.KeywordInQueryScore
	}
	if c.KeywordTermScore == 0 {
		c.KeywordTermScore = defaults.KeywordTermScore
	}
	if c.TitlePhraseScore == 0 {
		c.TitlePhraseScore = defaults.TitlePhraseScore
	}
	if c.TitleTermScore == 0 {
		c.TitleTermScore = defaults.TitleTermScore
	}
	if c.ContentTermScore == 0 {
		c.ContentTermScore = defaults.ContentTermScore
	}
	if c.PriorityScale == 0 {
		c.PriorityScale = defaults.PriorityScale
	}
	if c.MinTermLength == 0 {
		c.MinTermLength = defaults.MinTermLength
	}
	if c.Limit == 0 {
		c.Limit = defaults.Limit
	}
}
