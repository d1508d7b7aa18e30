package ranking

import (
	"sort"

	"github.com/totalquality/qassist/internal/models"
)

// Ranker combines all scorers and multipliers to rank knowledge entries.
type Ranker struct {
	config      *RankingConfig
	analyzer    *QueryAnalyzer
	scorers     []Scorer
	multipliers []Multiplier
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()

	return &Ranker{
		config:   config,
		analyzer: NewQueryAnalyzer(config.MinTermLength),
		scorers: []Scorer{
			NewKeywordScorer(config),
			NewTitleScorer(config),
			NewContentScorer(config),
		},
		multipliers: DefaultMultipliers(config),
	}
}

// WithMultipliers sets custom multipliers.
func (r *Ranker) WithMultipliers(multipliers []Multiplier) *Ranker {
	r.multipliers = multipliers
	return r
}

// AnalyzeQuery parses and analyzes a query string.
func (r *Ranker) AnalyzeQuery(query string) *AnalyzedQuery {
	return r.analyzer.Analyze(query)
}

// Rank calculates the final score for an entry given an analyzed query.
// A blank query scores zero for every entry.
func (r *Ranker) Rank(query *AnalyzedQuery, entry *models.KnowledgeEntry) float64 {
	if query.Blank {
		return 0
	}
	ctx := NewScoringContext(query, entry)
	var score float64
	for _, s := range r.scorers {
		score += s.Score(ctx)
	}
	for _, m := range r.multipliers {
		score = m.Multiply(ctx, score)
	}
	return score
}

// RankWithBreakdown returns detailed scoring information.
func (r *Ranker) RankWithBreakdown(query *AnalyzedQuery, entry *models.KnowledgeEntry) *ScoreBreakdown {
	breakdown := NewScoreBreakdown()
	if query.Blank {
		return breakdown
	}
	ctx := NewScoringContext(query, entry)

	var score float64
	for _, s := range r.scorers {
		v := s.Score(ctx)
		breakdown.Components[s.Name()] = v
		score += v
	}
	for _, m := range r.multipliers {
		prev := score
		score = m.Multiply(ctx, score)
		if prev != 0 {
			breakdown.Multipliers[m.Name()] = score / prev
		} else {
			breakdown.Multipliers[m.Name()] = 1.0
		}
	}
	breakdown.FinalScore = score
	return breakdown
}

// RankedResult holds an entry with its computed score.
type RankedResult struct {
	Entry     *models.KnowledgeEntry
	Score     float64
	Breakdown *ScoreBreakdown
}

// RankEntries scores every entry, drops non-positive scores, and sorts by score
// descending. Equal scores keep collection order. The result is not truncated.
func (r *Ranker) RankEntries(query string, entries []models.KnowledgeEntry) []*RankedResult {
	analyzed := r.AnalyzeQuery(query)
	results := make([]*RankedResult, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		if score := r.Rank(analyzed, entry); score > 0 {
			results = append(results, &RankedResult{Entry: entry, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// RankEntriesWithBreakdown is RankEntries with per-component score breakdowns.
func (r *Ranker) RankEntriesWithBreakdown(query string, entries []models.KnowledgeEntry) []*RankedResult {
	analyzed := r.AnalyzeQuery(query)
	results := make([]*RankedResult, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		breakdown := r.RankWithBreakdown(analyzed, entry)
		if breakdown.FinalScore > 0 {
			results = append(results, &RankedResult{Entry: entry, Score: breakdown.FinalScore, Breakdown: breakdown})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// GetConfig returns the ranking configuration.
func (r *Ranker) GetConfig() *RankingConfig {
	return r.config
}

// TopN returns the top N results.
func TopN(results []*RankedResult, n int) []*RankedResult {
	if n < 0 || n >= len(results) {
		return results
	}
	return results[:n]
}
