package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/totalquality/qassist/internal/conversation"
	"github.com/totalquality/qassist/internal/models"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func started(convID string, create *models.Conversation, text string) SendStarted {
	return SendStarted{
		ConversationID: convID,
		Create:         create,
		User:           conversation.NewMessage(models.RoleUser, text, t0),
		Assistant:      conversation.NewMessage(models.RoleAssistant, "", t0),
		At:             t0,
	}
}

func TestApply_sendCreatesConversation(t *testing.T) {
	conv := conversation.NewConversation(t0)
	s := Apply(State{}, started(conv.ID, &conv, "What is the max LTV for a DSCR cash out refinance?"))

	if s.ActiveID != conv.ID || len(s.Conversations) != 1 {
		t.Fatalf("conversation not created and activated: %+v", s)
	}
	got := s.Conversations[0]
	if got.Title != "What is the max LTV for a DSCR cash out ..." {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != models.RoleUser || got.Messages[1].Role != models.RoleAssistant || got.Messages[1].Content != "" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if s.Phase(conv.ID) != PhaseSending {
		t.Errorf("phase = %s", s.Phase(conv.ID))
	}
}

func TestApply_titleOnlyFromFirstMessage(t *testing.T) {
	conv := conversation.NewConversation(t0)
	s := Apply(State{}, ConversationCreated{Conversation: conv})
	s = Apply(s, started(conv.ID, nil, "first question"))
	s = Apply(s, StreamDone{ConversationID: conv.ID})
	s = Apply(s, started(conv.ID, nil, "second question"))
	if s.Conversations[0].Title != "first question" {
		t.Errorf("title = %q", s.Conversations[0].Title)
	}
	if len(s.Conversations[0].Messages) != 4 {
		t.Errorf("messages = %d, want 4", len(s.Conversations[0].Messages))
	}
}

func TestApply_chunksOverwritePlaceholder(t *testing.T) {
	conv := conversation.NewConversation(t0)
	s := Apply(State{}, started(conv.ID, &conv, "hi"))
	s = Apply(s, ChunkReceived{ConversationID: conv.ID, Content: "Hel", At: t0})
	s = Apply(s, ChunkReceived{ConversationID: conv.ID, Content: "Hello", At: t0})

	msgs := s.Conversations[0].Messages
	if len(msgs) != 2 || msgs[1].Content != "Hello" {
		t.Errorf("messages = %+v", msgs)
	}
	if s.Phase(conv.ID) != PhaseStreaming {
		t.Errorf("phase = %s", s.Phase(conv.ID))
	}
}

func TestApply_streamFailed(t *testing.T) {
	tests := []struct {
		name    string
		partial string
		want    string
	}{
		{"keeps partial", "Our DSCR", "Our DSCR"},
		{"fallback when empty", "", "apology"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := conversation.NewConversation(t0)
			s := Apply(State{}, started(conv.ID, &conv, "hi"))
			s = Apply(s, StreamFailed{ConversationID: conv.ID, Partial: tt.partial, Fallback: "apology"})
			if got := s.Conversations[0].Messages[1].Content; got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
			if s.Phase(conv.ID) != PhaseErrored || s.Phase(conv.ID).Busy() {
				t.Errorf("phase = %s", s.Phase(conv.ID))
			}
		})
	}
}

func TestApply_cancelKeepsPartial(t *testing.T) {
	conv := conversation.NewConversation(t0)
	s := Apply(State{}, started(conv.ID, &conv, "hi"))
	s = Apply(s, ChunkReceived{ConversationID: conv.ID, Content: "par", At: t0})
	s = Apply(s, StreamCancelled{ConversationID: conv.ID})
	if s.Conversations[0].Messages[1].Content != "par" || s.Phase(conv.ID) != PhaseCancelled {
		t.Errorf("state = %+v", s)
	}
}

func TestApply_doesNotMutateInput(t *testing.T) {
	conv := conversation.NewConversation(t0)
	before := Apply(State{}, started(conv.ID, &conv, "hi"))
	after := Apply(before, ChunkReceived{ConversationID: conv.ID, Content: "changed", At: t0})
	_ = Apply(after, ConversationDeleted{ID: conv.ID})

	if before.Conversations[0].Messages[1].Content != "" {
		t.Error("Apply mutated the previous state's messages")
	}
	if before.Phase(conv.ID) != PhaseSending {
		t.Error("Apply mutated the previous state's phases")
	}
	if len(after.Conversations) != 1 {
		t.Error("Apply mutated the previous state's conversation list")
	}
}

func TestApply_deleteAndSelect(t *testing.T) {
	a := conversation.NewConversation(t0)
	b := conversation.NewConversation(t0)
	s := Apply(State{}, ConversationCreated{Conversation: a})
	s = Apply(s, ConversationCreated{Conversation: b})
	if s.Conversations[0].ID != b.ID || s.ActiveID != b.ID {
		t.Fatal("new conversations are prepended and activated")
	}
	s = Apply(s, ConversationSelected{ID: a.ID})
	if s.ActiveID != a.ID {
		t.Errorf("active = %s, want %s", s.ActiveID, a.ID)
	}
	s = Apply(s, ConversationSelected{ID: "missing"})
	if s.ActiveID != a.ID {
		t.Error("selecting an unknown id should be ignored")
	}
	s = Apply(s, ConversationDeleted{ID: a.ID})
	if s.ActiveID != "" || len(s.Conversations) != 1 {
		t.Errorf("after deleting active: %+v", s)
	}
	if _, ok := s.Active(); ok {
		t.Error("no conversation should be active")
	}
}

func TestApply_lateChunkForDeletedConversation(t *testing.T) {
	conv := conversation.NewConversation(t0)
	s := Apply(State{}, started(conv.ID, &conv, "hi"))
	s = Apply(s, ConversationDeleted{ID: conv.ID})
	s = Apply(s, ChunkReceived{ConversationID: conv.ID, Content: "late", At: t0})
	for _, c := range s.Conversations {
		for _, m := range c.Messages {
			if strings.Contains(m.Content, "late") {
				t.Error("late chunk resurrected a deleted conversation")
			}
		}
	}
}
