package knowledge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/totalquality/qassist/internal/models"
)

// ErrInvalidEntry is returned when a knowledge document fails validation.
var ErrInvalidEntry = errors.New("invalid knowledge entry")

// Store is an immutable snapshot of the knowledge base. It is safe for concurrent reads.
// Accessors return copies so callers cannot mutate the snapshot.
type Store struct {
	entries     []models.KnowledgeEntry
	byID        map[string]int
	matrices    []models.ProgramMatrix
	profile     models.CompanyProfile
	suggestions []string
}

// NewStore validates doc and builds a snapshot from it.
// Entry ids must be non-empty and unique, and priorities must not be negative.
func NewStore(doc *Document) (*Store, error) {
	s := &Store{
		entries:     make([]models.KnowledgeEntry, 0, len(doc.Entries)),
		byID:        make(map[string]int, len(doc.Entries)),
		matrices:    append([]models.ProgramMatrix(nil), doc.Matrices...),
		profile:     doc.Profile,
		suggestions: append([]string(nil), doc.Suggestions...),
	}
	for i, e := range doc.Entries {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has empty id", ErrInvalidEntry, i)
		}
		if _, dup := s.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidEntry, e.ID)
		}
		if e.Priority < 0 {
			return nil, fmt.Errorf("%w: %q has negative priority %d", ErrInvalidEntry, e.ID, e.Priority)
		}
		e.Keywords = append([]string(nil), e.Keywords...)
		s.byID[e.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Entries returns all entries in collection order.
func (s *Store) Entries() []models.KnowledgeEntry {
	out := make([]models.KnowledgeEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (models.KnowledgeEntry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.KnowledgeEntry{}, false
	}
	return s.entries[i], true
}

// Matrices returns all program matrices in collection order.
func (s *Store) Matrices() []models.ProgramMatrix {
	return append([]models.ProgramMatrix(nil), s.matrices...)
}

// Profile returns the company profile.
func (s *Store) Profile() models.CompanyProfile {
	return s.profile
}

// Suggestions returns the sample questions shown to new users.
func (s *Store) Suggestions() []string {
	return append([]string(nil), s.suggestions...)
}

// FindPrograms returns the matrices a scenario qualifies for, best LTV for the
// transaction type first. Ties keep collection order.
func (s *Store) FindPrograms(q models.ProgramQuery) []models.ProgramMatrix {
	var out []models.ProgramMatrix
	for _, p := range s.matrices {
		if p.Eligible(q.CreditScore, q.LoanAmount, q.Occupancy) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LTV(q.TransactionType) > out[j].LTV(q.TransactionType)
	})
	return out
}
