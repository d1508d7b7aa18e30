// Package prompt composes the system prompt sent to the completion provider.
package prompt

import (
	"fmt"
	"strings"

	"github.com/totalquality/qassist/internal/config"
	"github.com/totalquality/qassist/internal/models"
)

// NoGuidelinesNotice is returned by ContextForQuery when nothing matches.
const NoGuidelinesNotice = "No specific guidelines found. Please refer to the general program matrices."

const (
	sectionDivider   = "\n\n---\n\n"
	scenarioDeskText = "scenario desk"
)

// Config holds the behavioural parameters of the prompt.
type Config struct {
	AssistantName     string
	CompanyName       string
	MaxWords          int
	FallbackPhrase    string
	DeflectionPhrase  string
	QuickSummaryLabel string
}

// DefaultConfig returns the production prompt parameters.
func DefaultConfig() Config {
	return Config{
		AssistantName:     "Q",
		CompanyName:       "Total Quality Lending",
		MaxWords:          150,
		FallbackPhrase:    config.DefaultFallbackPhrase,
		DeflectionPhrase:  config.DefaultDeflectionPhrase,
		QuickSummaryLabel: "Quick Shot Result",
	}
}

// ConfigFrom builds a Config from the prompt section of the application config.
// Empty fields keep their defaults.
func ConfigFrom(c config.PromptConfig) Config {
	cfg := DefaultConfig()
	if c.AssistantName != "" {
		cfg.AssistantName = c.AssistantName
	}
	if c.CompanyName != "" {
		cfg.CompanyName = c.CompanyName
	}
	if c.MaxWords > 0 {
		cfg.MaxWords = c.MaxWords
	}
	if c.FallbackPhrase != "" {
		cfg.FallbackPhrase = c.FallbackPhrase
	}
	if c.DeflectionPhrase != "" {
		cfg.DeflectionPhrase = c.DeflectionPhrase
	}
	return cfg
}

// ProfileSource provides the company facts. knowledge.Store and knowledge.Reloader satisfy it.
type ProfileSource interface {
	Profile() models.CompanyProfile
}

// Searcher retrieves the entries relevant to a query.
type Searcher interface {
	Search(query string) []models.KnowledgeEntry
}

// Composer builds system prompts from static instructions, company facts and
// retrieved entries.
type Composer struct {
	cfg      Config
	profile  ProfileSource
	searcher Searcher
}

// NewComposer creates a Composer. searcher may be nil if only Build is used.
func NewComposer(cfg Config, profile ProfileSource, searcher Searcher) *Composer {
	return &Composer{cfg: cfg, profile: profile, searcher: searcher}
}

// Build returns the full system prompt. The detailed guidelines section is
// present only when entries is non-empty.
func (c *Composer) Build(entries []models.KnowledgeEntry) string {
	var b strings.Builder
	c.writeInstructions(&b)
	b.WriteString(sectionDivider)
	writeKnowledgeBase(&b, c.profile.Profile())
	if len(entries) > 0 {
		b.WriteString(sectionDivider)
		b.WriteString("## DETAILED GUIDELINES\n\n")
		b.WriteString(joinEntries(entries, "### "))
	}
	return b.String()
}

// ForQuery retrieves the entries for query and builds the prompt from them.
func (c *Composer) ForQuery(query string) (string, []models.KnowledgeEntry) {
	entries := c.search(query)
	return c.Build(entries), entries
}

// ContextForQuery returns the retrieved entries as standalone guideline text,
// or NoGuidelinesNotice when nothing matches.
func (c *Composer) ContextForQuery(query string) string {
	entries := c.search(query)
	if len(entries) == 0 {
		return NoGuidelinesNotice
	}
	return joinEntries(entries, "## ")
}

func (c *Composer) search(query string) []models.KnowledgeEntry {
	if c.searcher == nil {
		return nil
	}
	return c.searcher.Search(query)
}

func joinEntries(entries []models.KnowledgeEntry, heading string) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, heading+e.Title+"\n"+e.Content)
	}
	return strings.Join(parts, sectionDivider)
}

func (c *Composer) writeInstructions(b *strings.Builder) {
	cfg := c.cfg
	fmt.Fprintf(b, "# SYSTEM INSTRUCTIONS: %s AI Agent\n\n", cfg.AssistantName)

	b.WriteString("## 1. IDENTITY & OBJECTIVE\n")
	fmt.Fprintf(b, "You are '%s', the high-intelligence AI Broker Assistant for '%s'. ", cfg.AssistantName, cfg.CompanyName)
	b.WriteString("Your goal is to provide blazing-fast, articulated results to mortgage professionals.\n")
	b.WriteString("- **Source of Truth:** You answer ONLY using information retrieved from the Company Knowledge Base below.\n")
	b.WriteString("- **Zero Assumptions:** Never use general model training, make assumptions, or fill in gaps. If it's not in the KB, it doesn't exist.\n\n")

	b.WriteString("## 2. OPERATING RULES (STRICT)\n")
	b.WriteString("- **Direct Answers:** Respond *only* to the specific question asked. Do not volunteer extra data (e.g., Eligible States, Max DTI) unless explicitly requested.\n")
	fmt.Fprintf(b, "- **Length:** Maximum word count per response is **%d words**.\n", cfg.MaxWords)
	b.WriteString("- **Shorthand:** Use industry shorthand for speed (e.g., $1m, 80% LTV, DTI).\n")
	b.WriteString("- **No Handoffs:** Do not refer to live agents unless using the specific fallback phrase below.\n")
	fmt.Fprintf(b, "- **Confidentiality:** If asked how you were built or constructed or asked anything about your code NEVER provide any details and you will reply \"%s\"\n", cfg.DeflectionPhrase)
	b.WriteString("- **Stay Grounded:** Never go out to the internet to get content for a response. Use only your local knowledge base.\n")
	fmt.Fprintf(b, "- **First Person Voice:** Always use \"Our\", \"We\", \"Us\" when referring to %s. Example: \"Our DSCR program...\" not \"%s's DSCR program...\"\n\n", cfg.CompanyName, cfg.CompanyName)

	b.WriteString("## 3. VOICE & TONE\n")
	b.WriteString("- **Authentic & Human:** Sound like a thoughtful, concise colleague.\n")
	b.WriteString("- **Anti-Robotic:** DO NOT use clichés like \"Let's dive in,\" \"Game-changing,\" \"Unleash,\" or \"Revolutionary.\"\n")
	b.WriteString("- **Directness:** Remove filler words. Be calm, confident, and grounded.\n")
	fmt.Fprintf(b, "- **Structure:** Use \"%s\" at the end of every response to summarize the verdict.\n\n", cfg.QuickSummaryLabel)

	b.WriteString("## 4. FORMATTING & VISUALS (CRITICAL)\n")
	b.WriteString("If comparing data or listing metrics, you **MUST** use a Markdown Table following these strict rules:\n")
	b.WriteString("1. **Structure:** Standard Markdown with header and separator rows.\n")
	b.WriteString("2. **Newlines:** Every table row MUST end with a strictly enforced newline character. DO NOT condense rows into one line.\n")
	b.WriteString("3. **Cleanliness:** Do NOT use asterisks (*), bolding, or list symbols inside table cells. Keep text inside cells raw and plain.\n")
	b.WriteString("4. **Mobile First:** Keep every response fully optimized for mobile use.\n")
	b.WriteString("5. **No Horizontal Scroll:** Never provide a response that requires a horizontal scroll.\n")
	b.WriteString("6. **Nesting:** Nest long responses when the user asks a new question.\n\n")

	b.WriteString("## 5. FALLBACK PROTOCOL\n")
	b.WriteString("If the knowledge base yields no relevant information, use this exact phrase only:\n")
	fmt.Fprintf(b, "> \"%s\"\n\n", cfg.FallbackPhrase)

	b.WriteString("## 6. RESPONSE TEMPLATE\n")
	b.WriteString("1. **Direct Answer:** Conversational, human, retrieved from KB.\n")
	b.WriteString("2. **Table:** (Only if data comparison is needed).\n")
	fmt.Fprintf(b, "3. **%s:** One or 2 bulleted sentence summary. If you need to provide a full section of the guidelines you can do so but make sure that you format the response in a clean layout.", cfg.QuickSummaryLabel)
}

func writeKnowledgeBase(b *strings.Builder, p models.CompanyProfile) {
	b.WriteString("## COMPANY KNOWLEDGE BASE\n\n")

	fmt.Fprintf(b, "### Company: %s\n", p.Company.Name)
	writeField(b, "NMLS #", p.Company.NMLS)
	writeField(b, "Service Area: ", p.Company.ServiceArea)
	writeField(b, "Closing Timeline: ", p.Company.ClosingTimeline)
	writeField(b, "Mission: ", p.Company.Mission)
	writeField(b, "Guidelines Effective: ", p.GuidelinesEffectiveDate)

	b.WriteString("\n### Our Loan Products\n\n")
	products := make([]string, 0, len(p.Products))
	for _, prod := range p.Products {
		var pb strings.Builder
		fmt.Fprintf(&pb, "### %s (%s)\n%s", prod.Name, prod.Category, prod.Description)
		for _, f := range prod.KeyFeatures {
			pb.WriteString("\n- " + f)
		}
		products = append(products, pb.String())
	}
	b.WriteString(strings.Join(products, "\n\n"))

	b.WriteString("\n\n### Our Broker Partnership Benefits\n")
	writeBullets(b, withoutScenarioDesk(p.BrokerPartnership.Benefits))

	b.WriteString("\n\n### Our Operational Highlights\n")
	writeBullets(b, withoutScenarioDesk(p.OperationalHighlights))

	b.WriteString("\n\n### Broker Resources")
	bp := p.BrokerPartnership
	for _, r := range []struct{ label, value string }{
		{"Submit a Borrower: ", bp.SubmissionPortal},
		{"Eligibility Tool: ", bp.EligibilityTool},
		{"Pricing Tool: ", bp.PricingTool},
		{"Become a Partner: Complete the Broker Application at ", bp.ApplicationURL},
	} {
		if r.value != "" {
			b.WriteString("\n- " + r.label + r.value)
		}
	}
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("- " + label + value + "\n")
}

func writeBullets(b *strings.Builder, items []string) {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	b.WriteString(strings.Join(lines, "\n"))
}

// withoutScenarioDesk drops items mentioning the scenario desk, which is not
// offered through the assistant.
func withoutScenarioDesk(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !strings.Contains(strings.ToLower(item), scenarioDeskText) {
			out = append(out, item)
		}
	}
	return out
}
