package models

// SearchResult represents a single knowledge hit with its score.
type SearchResult struct {
	Entry *KnowledgeEntry `json:"entry"`
	Score float64         `json:"score"`
	Rank  int             `json:"rank"`
}

// SearchResponse is the response for a knowledge search request.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []*SearchResult `json:"results"`
	// Fuzzy indicates the results came from the typo-tolerant retry because the
	// exact search returned nothing.
	Fuzzy bool `json:"fuzzy,omitempty"`
	// Suggestions holds "Did you mean?" corrections when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
	QueryTime   int64    `json:"query_time_ms"`
}

// Entries returns the entries of results in order.
func Entries(results []*SearchResult) []KnowledgeEntry {
	out := make([]KnowledgeEntry, 0, len(results))
	for _, r := range results {
		out = append(out, *r.Entry)
	}
	return out
}
