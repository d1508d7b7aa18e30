// Package conversation persists the client's conversation list and derives
// titles and sidebar groupings from it.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/models"
	"github.com/totalquality/qassist/internal/storage"
	"github.com/totalquality/qassist/pkg/utils"
)

// DefaultTitle names a conversation before its first message.
const DefaultTitle = "New Chat"

const maxTitleLength = 40

// Store reads and writes the whole conversation list as one JSON document
// under a single key.
type Store struct {
	kv     storage.KV
	key    string
	logger *zap.Logger
}

// NewStore creates a Store over kv using key for the document.
func NewStore(kv storage.KV, key string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, key: key, logger: logger}
}

// Load returns the stored conversations. A missing or unreadable document loads
// as an empty list; only storage I/O failures are returned as errors.
func (s *Store) Load(ctx context.Context) ([]models.Conversation, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Conversation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	var convs []models.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		s.logger.Warn("discarding corrupt conversation document", zap.String("key", s.key), zap.Error(err))
		return []models.Conversation{}, nil
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

// Save replaces the stored document with convs.
func (s *Store) Save(ctx context.Context, convs []models.Conversation) error {
	if convs == nil {
		convs = []models.Conversation{}
	}
	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("save conversations: %w", err)
	}
	return nil
}

// NewConversation returns an empty conversation titled DefaultTitle.
func NewConversation(now time.Time) models.Conversation {
	ts := models.NewMillis(now)
	return models.Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  []models.Message{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// NewMessage returns a message with a fresh id.
func NewMessage(role models.Role, content string, now time.Time) models.Message {
	return models.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: models.NewMillis(now),
	}
}

// GenerateTitle derives a title from the first message: the trimmed text,
// cut to 40 characters plus "..." when longer.
func GenerateTitle(firstMessage string) string {
	return utils.Truncate(strings.TrimSpace(firstMessage), maxTitleLength)
}

// Group is one sidebar section.
type Group struct {
	Label         string
	Conversations []models.Conversation
}

// GroupByRecency sorts conversations by UpdatedAt, newest first, and buckets
// them as "Today", "Yesterday", "Previous 7 Days" or a short date like "Jan 2".
// Groups appear in the order their first conversation does.
func GroupByRecency(convs []models.Conversation, now time.Time) []Group {
	sorted := make([]models.Conversation, len(convs))
	copy(sorted, convs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt.Time)
	})

	var groups []Group
	index := make(map[string]int)
	for _, c := range sorted {
		label := RecencyLabel(c.UpdatedAt.Time, now)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Conversations = append(groups[i].Conversations, c)
	}
	return groups
}

// RecencyLabel returns the sidebar bucket for t relative to now, in now's location.
func RecencyLabel(t, now time.Time) string {
	t = t.In(now.Location())
	if sameDay(t, now) {
		return "Today"
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	if !t.Before(now.AddDate(0, 0, -7)) {
		return "Previous 7 Days"
	}
	return t.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
