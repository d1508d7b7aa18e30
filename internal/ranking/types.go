// Package ranking provides keyword and priority weighted ranking for knowledge entries.
package ranking

import (
	"strings"

	"github.com/totalquality/qassist/internal/models"
)

// AnalyzedQuery holds the parsed and analyzed form of a search query.
type AnalyzedQuery struct {
	// Original is the original query string.
	Original string
	// Lower is the lowercased query, untrimmed. Whole-query checks use it as is.
	Lower string
	// Terms are the lowercased whitespace tokens longer than the minimum token length.
	Terms []string
	// Blank is true when the query has no non-space characters.
	Blank bool
}

// ScoringContext provides all the context needed for scoring an entry.
// Lowercased fields are computed once per entry and shared by every scorer.
type ScoringContext struct {
	Query    *AnalyzedQuery
	Entry    *models.KnowledgeEntry
	Title    string
	Content  string
	Keywords []string
}

// NewScoringContext creates a ScoringContext from a query and entry.
func NewScoringContext(query *AnalyzedQuery, entry *models.KnowledgeEntry) *ScoringContext {
	keywords := make([]string, len(entry.Keywords))
	for i, k := range entry.Keywords {
		keywords[i] = strings.ToLower(k)
	}
	return &ScoringContext{
		Query:    query,
		Entry:    entry,
		Title:    strings.ToLower(entry.Title),
		Content:  strings.ToLower(entry.Content),
		Keywords: keywords,
	}
}

// Scorer is the interface for all scoring components.
type Scorer interface {
	// Score calculates the score for an entry given the scoring context.
	Score(ctx *ScoringContext) float64
	// Name returns the name of the scorer for debugging/logging.
	Name() string
}

// Multiplier is the interface for score multipliers.
type Multiplier interface {
	// Multiply applies a multiplier to the base score.
	Multiply(ctx *ScoringContext, baseScore float64) float64
	// Name returns the name of the multiplier for debugging/logging.
	Name() string
}

// ScoreBreakdown provides detailed scoring information for debugging.
type ScoreBreakdown struct {
	FinalScore float64
	// Components maps scorer name to its raw contribution.
	Components map[string]float64
	// Multipliers holds the applied multiplier values.
	Multipliers map[string]float64
}

// NewScoreBreakdown creates a new ScoreBreakdown instance.
func NewScoreBreakdown() *ScoreBreakdown {
	return &ScoreBreakdown{
		Components:  make(map[string]float64),
		Multipliers: make(map[string]float64),
	}
}
