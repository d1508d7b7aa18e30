// Package cli provides terminal output and the interactive chat loop for qassist.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/totalquality/qassist/internal/conversation"
	"github.com/totalquality/qassist/internal/models"
	"github.com/totalquality/qassist/internal/search"
	"github.com/totalquality/qassist/internal/storage"
	"github.com/totalquality/qassist/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	separator  = "─────────────────────────────────────────────────────────"
	snippetLen = 200
)

// ParseFormat maps a --format flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes knowledge search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	label := "match"
	if len(response.Results) != 1 {
		label = "matches"
	}
	fmt.Fprintf(w, "\nFound %d %s in %dms", len(response.Results), label, response.QueryTime)
	if response.Fuzzy {
		fmt.Fprint(w, " (fuzzy)")
	}
	fmt.Fprintln(w)
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(response.Suggestions, ", "))
	}
	fmt.Fprintln(w)

	terms := strings.Fields(strings.ToLower(response.Query))
	for _, result := range response.Results {
		e := result.Entry
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Rank: %d | Score: %.2f | Priority: %d\n", result.Rank, result.Score, e.Priority)
		fmt.Fprintf(w, "ID: %s  [%s / %s]\n", e.ID, e.Category, e.Subcategory)
		fmt.Fprintf(w, "Title: %s\n", e.Title)
		fmt.Fprintf(w, "\n%s\n\n", search.Snippet(e.Content, terms, snippetLen))
	}
	return nil
}

// WritePrograms writes the programs a scenario qualifies for.
func WritePrograms(w io.Writer, query models.ProgramQuery, programs []models.ProgramMatrix, format OutputFormat) error {
	if format == OutputJSON {
		if programs == nil {
			programs = []models.ProgramMatrix{}
		}
		return writeJSON(w, map[string]interface{}{
			"query":    query,
			"programs": programs,
			"count":    len(programs),
		})
	}
	fmt.Fprintf(w, "\n%d program(s) for FICO %d, $%s, %s, %s\n\n",
		len(programs), query.CreditScore, FormatAmount(query.LoanAmount), orAny(query.Occupancy), query.TransactionType)
	for i, p := range programs {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, p.ProgramName, p.Occupancy)
		fmt.Fprintf(w, "   Max LTV (%s): %.0f%%  | Purchase %.0f%% | Rate/Term %.0f%% | Cash-Out %.0f%%\n",
			query.TransactionType, p.LTV(query.TransactionType), p.LTVPurchase, p.LTVRateTerm, p.LTVCashOut)
		fmt.Fprintf(w, "   Min FICO %d | Loan $%s - $%s | Docs: %s\n",
			p.CreditScoreMin, FormatAmount(p.LoanAmountMin), FormatAmount(p.LoanAmountMax), p.IncomeDocType)
		if p.DSCRMin != nil {
			fmt.Fprintf(w, "   Min DSCR %.2f\n", *p.DSCRMin)
		}
		if p.DTIMax != nil {
			fmt.Fprintf(w, "   Max DTI %.0f%%\n", *p.DTIMax)
		}
		if p.Reserves != "" {
			fmt.Fprintf(w, "   Reserves: %s\n", p.Reserves)
		}
	}
	if len(programs) > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "any occupancy"
	}
	return s
}

// WriteConversations writes the conversation sidebar: recency groups, then
// numbered titles. The numbering matches the order ConversationIDs returns.
func WriteConversations(w io.Writer, groups []conversation.Group, activeID string) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return
	}
	n := 0
	for _, g := range groups {
		fmt.Fprintf(w, "\n%s\n", g.Label)
		for _, c := range g.Conversations {
			n++
			marker := " "
			if c.ID == activeID {
				marker = "*"
			}
			fmt.Fprintf(w, " %s %2d. %s (%d messages)\n", marker, n, utils.Truncate(c.Title, 50), len(c.Messages))
		}
	}
	fmt.Fprintln(w)
}

type conversationSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Messages  int    `json:"messages"`
	UpdatedAt int64  `json:"updatedAt"`
}

type conversationGroup struct {
	Label         string                `json:"label"`
	Conversations []conversationSummary `json:"conversations"`
}

// WriteConversationsJSON writes the sidebar groups as JSON summaries.
func WriteConversationsJSON(w io.Writer, groups []conversation.Group) error {
	out := make([]conversationGroup, 0, len(groups))
	for _, g := range groups {
		cg := conversationGroup{Label: g.Label, Conversations: make([]conversationSummary, 0, len(g.Conversations))}
		for _, c := range g.Conversations {
			cg.Conversations = append(cg.Conversations, conversationSummary{
				ID:        c.ID,
				Title:     c.Title,
				Messages:  len(c.Messages),
				UpdatedAt: c.UpdatedAt.UnixMilli(),
			})
		}
		out = append(out, cg)
	}
	return writeJSON(w, out)
}

// ConversationIDs flattens groups into the numbering WriteConversations prints.
func ConversationIDs(groups []conversation.Group) []string {
	var ids []string
	for _, g := range groups {
		for _, c := range g.Conversations {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// WriteStorageUsage writes the on-disk footprint of the conversation store.
func WriteStorageUsage(w io.Writer, path string) {
	size, err := storage.DiskUsageBytes(path)
	if err != nil {
		fmt.Fprintf(w, "Storage: %s (size unavailable: %v)\n", path, err)
		return
	}
	fmt.Fprintf(w, "Storage: %s (%s)\n", path, FormatBytes(size))
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatAmount renders a dollar amount with thousands separators and no cents.
func FormatAmount(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
