package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns assistant replies into terminal output. A nil or plain
// Renderer passes text through unchanged.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer returns a glamour-backed renderer wrapping at width columns.
// When enabled is false, or glamour cannot be initialised, replies are printed as-is.
func NewRenderer(enabled bool, width int) *Renderer {
	if !enabled {
		return &Renderer{}
	}
	if width <= 0 {
		width = 80
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{term: tr}
}

// Markdown reports whether replies are rendered rather than streamed raw.
func (r *Renderer) Markdown() bool {
	return r != nil && r.term != nil
}

// Render renders md, falling back to the original text on error.
func (r *Renderer) Render(md string) string {
	if !r.Markdown() {
		return ensureNewline(md)
	}
	out, err := r.term.Render(md)
	if err != nil {
		return ensureNewline(md)
	}
	return out
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
