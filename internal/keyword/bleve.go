package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/totalquality/qassist/internal/models"
)

const defaultFuzziness = 2

// entryDoc is the indexed shape of a knowledge entry.
type entryDoc struct {
	Title    string `json:"title"`
	Keywords string `json:"keywords"`
	Content  string `json:"content"`
}

// BleveIndex implements KeywordIndex with an in-memory Bleve index. It also serves
// as the TermDictionary for the spell checker.
type BleveIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	// terms maps each vocabulary term to the number of entries containing it.
	terms map[string]int
}

// NewBleveIndex creates an empty in-memory index.
func NewBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, terms: map[string]int{}}, nil
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so fuzzy distance is
	// measured against the words users actually type.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("keywords", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	im.AddDocumentMapping("entry", docMapping)
	im.DefaultType = "entry"
	im.DefaultMapping = docMapping
	return im
}

// Rebuild indexes entries into a fresh index and swaps it in.
func (b *BleveIndex) Rebuild(ctx context.Context, entries []models.KnowledgeEntry) error {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}
	batch := index.NewBatch()
	terms := make(map[string]int)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = index.Close()
			return err
		}
		doc := entryDoc{Title: e.Title, Keywords: strings.Join(e.Keywords, " "), Content: e.Content}
		if err := batch.Index(e.ID, doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index entry %s: %w", e.ID, err)
		}
		for t := range vocabulary(doc.Title + " " + doc.Keywords + " " + doc.Content) {
			terms[t]++
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to index entries: %w", err)
	}

	b.mu.Lock()
	old := b.index
	b.index = index
	b.terms = terms
	b.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search runs a match query (or a fuzzy query when opts.FuzzyEnabled) over title,
// keywords, and content, and returns up to limit results.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	fuzzyEnabled := false
	fuzziness := defaultFuzziness
	if opts != nil {
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 && opts.Fuzziness <= defaultFuzziness {
			fuzziness = opts.Fuzziness
		}
	}
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var q blevequery.Query
	if fuzzyEnabled {
		q = buildFuzzyQuery(terms, fuzziness)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	b.mu.RLock()
	results, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries, one per term.
func buildFuzzyQuery(terms []string, fuzziness int) blevequery.Query {
	if len(terms) == 1 {
		fq := bleve.NewFuzzyQuery(terms[0])
		fq.SetFuzziness(fuzziness)
		return fq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase word terms, dropping punctuation.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// vocabulary returns the distinct terms of text.
func vocabulary(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokenizeQuery(text) {
		out[t] = struct{}{}
	}
	return out
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

// DocCount returns the total number of entries in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// GetAllTerms returns the vocabulary of the indexed entries, sorted.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.terms))
	for t := range b.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// GetTermFrequency returns the number of entries containing term.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.terms[strings.ToLower(term)], nil
}
