// Package search runs knowledge retrieval: the linear keyword scorer plus an
// optional typo-tolerant retry when nothing matches.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/keyword"
	"github.com/totalquality/qassist/internal/metrics"
	"github.com/totalquality/qassist/internal/models"
	"github.com/totalquality/qassist/internal/ranking"
)

// Source supplies the knowledge entries to search. knowledge.Store and
// knowledge.Reloader both satisfy it.
type Source interface {
	Entries() []models.KnowledgeEntry
	Get(id string) (models.KnowledgeEntry, bool)
}

// Engine ranks knowledge entries against a query.
type Engine struct {
	source Source
	ranker *ranking.Ranker
	fuzzy  keyword.KeywordIndex
	spell  *keyword.SpellChecker
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFuzzyIndex enables the fuzzy retry and "did you mean" suggestions.
// The index is filled by RebuildFuzzy.
func WithFuzzyIndex(index *keyword.BleveIndex) Option {
	return func(e *Engine) {
		e.fuzzy = index
		e.spell = keyword.NewSpellChecker(index)
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a search engine. A nil ranker uses the default weights.
func NewEngine(source Source, ranker *ranking.Ranker, opts ...Option) *Engine {
	if ranker == nil {
		ranker = ranking.NewRanker(nil)
	}
	e := &Engine{source: source, ranker: ranker, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns at most Limit entries, best first. A blank query returns nothing.
func (e *Engine) Search(query string) []models.KnowledgeEntry {
	ranked := e.rank(query)
	out := make([]models.KnowledgeEntry, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, *r.Entry)
	}
	metrics.ObserveRetrieval(len(out), false)
	return out
}

// SearchWithScores is Search with scores and 1-based ranks.
func (e *Engine) SearchWithScores(query string) []*models.SearchResult {
	results := toResults(e.rank(query))
	metrics.ObserveRetrieval(len(results), false)
	return results
}

// Query runs a search request. When the exact search finds nothing and the
// request asks for it, the query is retried against the fuzzy index and
// spelling corrections are attached.
func (e *Engine) Query(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query); err != nil {
		return nil, err
	}

	response := &models.SearchResponse{
		Query:   query.Query,
		Results: toResults(e.rank(query.Query)),
	}

	if len(response.Results) == 0 && query.Fuzzy && e.fuzzy != nil && strings.TrimSpace(query.Query) != "" {
		results, err := e.fuzzySearch(ctx, query.Query)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			response.Results = results
			response.Fuzzy = true
		}
		if suggested := e.spell.GetSuggestedQuery(query.Query); suggested != "" {
			response.Suggestions = []string{suggested}
		}
	}

	response.QueryTime = time.Since(startTime).Milliseconds()
	metrics.ObserveRetrieval(len(response.Results), response.Fuzzy)
	return response, nil
}

// RebuildFuzzy re-indexes the current entries into the fuzzy index. It is a
// no-op without one.
func (e *Engine) RebuildFuzzy(ctx context.Context) error {
	if e.fuzzy == nil {
		return nil
	}
	entries := e.source.Entries()
	if err := e.fuzzy.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("rebuild fuzzy index: %w", err)
	}
	e.logger.Debug("fuzzy index rebuilt", zap.Int("entries", len(entries)))
	return nil
}

func (e *Engine) rank(query string) []*ranking.RankedResult {
	return ranking.TopN(e.ranker.RankEntries(query, e.source.Entries()), e.ranker.GetConfig().Limit)
}

func (e *Engine) fuzzySearch(ctx context.Context, query string) ([]*models.SearchResult, error) {
	hits, err := e.fuzzy.Search(ctx, query, e.ranker.GetConfig().Limit, &keyword.SearchOptions{FuzzyEnabled: true})
	if err != nil {
		return nil, fmt.Errorf("fuzzy search failed: %w", err)
	}
	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		entry, ok := e.source.Get(hit.ID)
		if !ok {
			// Index is rebuilt after the snapshot swap, so a stale id can briefly appear.
			e.logger.Debug("fuzzy hit not in current snapshot", zap.String("id", hit.ID))
			continue
		}
		results = append(results, &models.SearchResult{
			Entry: &entry,
			Score: hit.Score,
			Rank:  len(results) + 1,
		})
	}
	return results, nil
}

func toResults(ranked []*ranking.RankedResult) []*models.SearchResult {
	results := make([]*models.SearchResult, 0, len(ranked))
	for i, r := range ranked {
		results = append(results, &models.SearchResult{
			Entry: r.Entry,
			Score: r.Score,
			Rank:  i + 1,
		})
	}
	return results
}
