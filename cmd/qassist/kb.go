package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/totalquality/qassist/internal/extract"
	"github.com/totalquality/qassist/internal/knowledge"
)

func runKB(args []string, stdout io.Writer) error {
	if len(args) < 1 || args[0] != "import" {
		return fmt.Errorf("usage: qassist kb import [flags] <file>")
	}
	fs := newFlagSet("kb import", os.Stderr)
	id := fs.String("id", "", "entry id (required)")
	title := fs.String("title", "", "entry title (default: file name)")
	category := fs.String("category", "", "category")
	subcategory := fs.String("subcategory", "", "subcategory")
	keywords := fs.String("keywords", "", "comma-separated keywords")
	priority := fs.Int("priority", extract.DefaultPriority, "priority, usually 1-10")
	out := fs.String("out", "", "write YAML to this file instead of stdout")
	if err := fs.Parse(argsReorder(args[1:])); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: qassist kb import [flags] <file>")
	}

	entry, err := extract.NewExtractor().Entry(fs.Arg(0), extract.EntryMeta{
		ID:          *id,
		Category:    *category,
		Subcategory: *subcategory,
		Title:       *title,
		Keywords:    splitKeywords(*keywords),
		Priority:    *priority,
	})
	if err != nil {
		return err
	}
	data, err := knowledge.MarshalEntry(entry)
	if err != nil {
		return err
	}
	if *out != "" {
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", *out, err)
		}
		fmt.Fprintf(stdout, "Wrote entry %s to %s\n", entry.ID, *out)
		return nil
	}
	_, err = stdout.Write(data)
	return err
}

func splitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
