package ranking

import (
	"math"
	"testing"

	"github.com/totalquality/qassist/internal/models"
)

func testEntries() []models.KnowledgeEntry {
	return []models.KnowledgeEntry{
		{ID: "escrow-001", Title: "Escrow Account Requirements", Content: "Escrow required when LTV >80.01%.", Keywords: []string{"escrow", "impounds", "tax escrow", "insurance escrow"}, Priority: 6},
		{ID: "reserves-001", Title: "Reserve Requirements by Loan Amount", Content: "3 Months PITIA reserves.", Keywords: []string{"reserves", "pitia"}, Priority: 9},
		{ID: "assets-001", Title: "Asset and Gift Fund Requirements", Content: "Gift funds allowed.", Keywords: []string{"assets", "gift funds", "reserves"}, Priority: 7},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRanker_Rank(t *testing.T) {
	r := NewRanker(nil)
	entries := testEntries()
	q := r.AnalyzeQuery("escrow")
	// keyword 10 + 3*5, title 8 + 3, content 1 = 37, times 0.6.
	if got := r.Rank(q, &entries[0]); !almostEqual(got, 22.2) {
		t.Errorf("Rank = %v, want 22.2", got)
	}
	if got := r.Rank(q, &entries[1]); got != 0 {
		t.Errorf("unrelated entry scored %v", got)
	}
}

func TestRanker_RankEntries_orderAndFilter(t *testing.T) {
	r := NewRanker(nil)
	results := r.RankEntries("reserves", testEntries())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Entry.ID != "reserves-001" || results[1].Entry.ID != "assets-001" {
		t.Errorf("order = %s, %s", results[0].Entry.ID, results[1].Entry.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestRanker_RankEntries_tiesKeepCollectionOrder(t *testing.T) {
	r := NewRanker(nil)
	entries := []models.KnowledgeEntry{
		{ID: "b", Title: "Same", Keywords: []string{"fico"}, Priority: 5},
		{ID: "a", Title: "Same", Keywords: []string{"fico"}, Priority: 5},
		{ID: "c", Title: "Same", Keywords: []string{"fico"}, Priority: 5},
	}
	results := r.RankEntries("fico", entries)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, want := range []string{"b", "a", "c"} {
		if results[i].Entry.ID != want {
			t.Errorf("[%d] = %s, want %s", i, results[i].Entry.ID, want)
		}
	}
}

func TestRanker_RankEntries_priorityRatioRounding(t *testing.T) {
	r := NewRanker(nil)
	// b: 6 content hits at priority 7 = 6*0.7 = 4.199999999999999
	// a: 7 content hits at priority 6 = 7*0.6 = 4.2
	entries := []models.KnowledgeEntry{
		{ID: "b", Title: "x", Content: "aaa bbb ccc ddd eee fff", Priority: 7},
		{ID: "a", Title: "x", Content: "aaa bbb ccc ddd eee fff ggg", Priority: 6},
	}
	results := r.RankEntries("aaa bbb ccc ddd eee fff ggg", entries)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Entry.ID != "a" {
		t.Errorf("first = %s (%v), want a; second = %s (%v)",
			results[0].Entry.ID, results[0].Score, results[1].Entry.ID, results[1].Score)
	}
	priority, scale := 7.0, 10.0
	if want := 6 * (priority / scale); results[1].Score != want {
		t.Errorf("b score = %v, want %v", results[1].Score, want)
	}
}

func TestRanker_blankQuery(t *testing.T) {
	r := NewRanker(nil)
	for _, q := range []string{"", "   ", "\t\n"} {
		if got := r.RankEntries(q, testEntries()); len(got) != 0 {
			t.Errorf("RankEntries(%q) returned %d results", q, len(got))
		}
	}
}

func TestRanker_keywordMatchOutranksContent(t *testing.T) {
	r := NewRanker(nil)
	entries := []models.KnowledgeEntry{
		{ID: "content", Title: "Other", Content: "mentions appraisal in passing", Keywords: []string{"valuation"}, Priority: 8},
		{ID: "keyword", Title: "Other", Content: "unrelated", Keywords: []string{"appraisal"}, Priority: 8},
	}
	results := r.RankEntries("appraisal", entries)
	if len(results) != 2 || results[0].Entry.ID != "keyword" {
		t.Fatalf("keyword match should rank first, got %+v", results)
	}
}

func TestRanker_RankEntriesWithBreakdown(t *testing.T) {
	r := NewRanker(nil)
	results := r.RankEntriesWithBreakdown("escrow", testEntries())
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	b := results[0].Breakdown
	if b.Components["keyword"] != 25 || b.Components["title"] != 11 || b.Components["content"] != 1 {
		t.Errorf("components = %v", b.Components)
	}
	if !almostEqual(b.Multipliers["priority"], 0.6) {
		t.Errorf("priority multiplier = %v", b.Multipliers["priority"])
	}
	if !almostEqual(b.FinalScore, results[0].Score) {
		t.Errorf("FinalScore %v != Score %v", b.FinalScore, results[0].Score)
	}
}

func TestRanker_customConfig(t *testing.T) {
	r := NewRanker(&RankingConfig{ContentTermScore: 4})
	cfg := r.GetConfig()
	if cfg.ContentTermScore != 4 || cfg.KeywordInQueryScore != 10 || cfg.Limit != 5 {
		t.Errorf("unexpected config after defaults: %+v", cfg)
	}
}

func TestTopN(t *testing.T) {
	results := []*RankedResult{{Score: 3}, {Score: 2}, {Score: 1}}
	if len(TopN(results, 2)) != 2 {
		t.Error("TopN(2) should return 2")
	}
	if len(TopN(results, 10)) != 3 {
		t.Error("TopN larger than len should return all")
	}
}

func TestRanker_WithMultipliers(t *testing.T) {
	r := NewRanker(nil).WithMultipliers(nil)
	entries := testEntries()
	if got := r.Rank(r.AnalyzeQuery("escrow"), &entries[0]); !almostEqual(got, 37) {
		t.Errorf("Rank without priority multiplier = %v, want 37", got)
	}
}
