package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/totalquality/qassist/internal/models"
)

// DefaultPriority is used when an import does not set one.
const DefaultPriority = 5

// EntryMeta is the metadata an author supplies for an imported entry.
type EntryMeta struct {
	ID          string
	Category    string
	Subcategory string
	Title       string
	Keywords    []string
	Priority    int
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Normalize trims trailing whitespace from every line and collapses runs of
// blank lines to one, so extracted text reads cleanly in the YAML document.
func Normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// Entry extracts the document at path and wraps it as a knowledge entry.
// The title defaults to the file name and the priority to DefaultPriority.
func (e *Extractor) Entry(path string, meta EntryMeta) (models.KnowledgeEntry, error) {
	id := strings.TrimSpace(meta.ID)
	if id == "" {
		return models.KnowledgeEntry{}, fmt.Errorf("entry id is required")
	}
	priority := meta.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < 0 {
		return models.KnowledgeEntry{}, fmt.Errorf("priority %d must not be negative", priority)
	}

	text, err := e.Extract(path)
	if err != nil {
		return models.KnowledgeEntry{}, err
	}
	content := Normalize(text)
	if content == "" {
		return models.KnowledgeEntry{}, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	keywords := make([]string, 0, len(meta.Keywords))
	for _, k := range meta.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return models.KnowledgeEntry{
		ID:          id,
		Category:    strings.TrimSpace(meta.Category),
		Subcategory: strings.TrimSpace(meta.Subcategory),
		Title:       title,
		Content:     content,
		Keywords:    keywords,
		Priority:    priority,
	}, nil
}
