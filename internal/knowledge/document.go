// Package knowledge holds the immutable mortgage guideline store: knowledge entries,
// program matrices, and the company profile used by the system prompt.
package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/totalquality/qassist/internal/models"
)

//go:embed data/knowledge.yaml
var defaultDocument []byte

// Document is the on-disk shape of a knowledge file.
type Document struct {
	Matrices    []models.ProgramMatrix  `yaml:"matrices"`
	Entries     []models.KnowledgeEntry `yaml:"entries"`
	Profile     models.CompanyProfile   `yaml:"profile"`
	Suggestions []string                `yaml:"suggestions"`
}

// DefaultDocument parses the knowledge document compiled into the binary.
func DefaultDocument() (*Document, error) {
	return ParseDocument(defaultDocument)
}

// ParseDocument decodes a YAML knowledge document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge document: %w", err)
	}
	return &doc, nil
}

// ReadDocument reads and parses the knowledge document at path.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge document: %w", err)
	}
	return ParseDocument(data)
}

// MarshalEntry renders a single entry as a YAML list item ready to paste under "entries:".
func MarshalEntry(e models.KnowledgeEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode([]models.KnowledgeEntry{e}); err != nil {
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
