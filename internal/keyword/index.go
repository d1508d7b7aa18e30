// Package keyword provides the typo-tolerant fallback index over knowledge entries
// and spelling suggestions for queries that match nothing.
package keyword

import (
	"context"

	"github.com/totalquality/qassist/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 2 when FuzzyEnabled is true.
	Fuzziness int
}

// KeywordIndex defines keyword search operations over knowledge entries.
type KeywordIndex interface {
	// Rebuild replaces the indexed entries.
	Rebuild(ctx context.Context, entries []models.KnowledgeEntry) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	Close() error
	// DocCount returns the total number of entries in the index.
	DocCount() (uint64, error)
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}

// TermDictionary provides access to the term dictionary for spell checking.
// This interface allows dependency injection for testing.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of entries containing a term.
	GetTermFrequency(term string) (int, error)
}
