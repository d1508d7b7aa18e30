// Package chat drives a conversation turn on the client: it appends the user
// message and an assistant placeholder, streams the relay's reply into the
// placeholder, and persists the conversation list as it changes.
package chat

import (
	"time"

	"github.com/totalquality/qassist/internal/conversation"
	"github.com/totalquality/qassist/internal/models"
)

// Phase is the state of the latest send in a conversation.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSending   Phase = "sending"
	PhaseStreaming Phase = "streaming"
	PhaseCompleted Phase = "completed"
	PhaseErrored   Phase = "errored"
	PhaseCancelled Phase = "cancelled"
)

// Busy reports whether a send is in flight.
func (p Phase) Busy() bool {
	return p == PhaseSending || p == PhaseStreaming
}

// State is the client's view of all conversations. Values are never mutated
// in place; Apply returns a new State.
type State struct {
	Conversations []models.Conversation
	ActiveID      string
	Phases        map[string]Phase
}

// Active returns the active conversation, if any.
func (s State) Active() (models.Conversation, bool) {
	return s.find(s.ActiveID)
}

// Phase returns the phase of conversation id, PhaseIdle if it never sent.
func (s State) Phase(id string) Phase {
	if p, ok := s.Phases[id]; ok {
		return p
	}
	return PhaseIdle
}

func (s State) find(id string) (models.Conversation, bool) {
	if id == "" {
		return models.Conversation{}, false
	}
	for _, c := range s.Conversations {
		if c.ID == id {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// Event is a state transition input.
type Event interface {
	event()
}

// ConversationCreated prepends a conversation and makes it active.
type ConversationCreated struct {
	Conversation models.Conversation
}

// ConversationSelected changes the active conversation.
type ConversationSelected struct {
	ID string
}

// ConversationDeleted removes a conversation. Deleting the active one clears the selection.
type ConversationDeleted struct {
	ID string
}

// SendStarted appends the user message and an empty assistant placeholder to
// ConversationID. When Create is set it is prepended and activated first.
type SendStarted struct {
	ConversationID string
	Create         *models.Conversation
	User           models.Message
	Assistant      models.Message
	At             time.Time
}

// ChunkReceived replaces the placeholder content with the accumulated text.
type ChunkReceived struct {
	ConversationID string
	Content        string
	At             time.Time
}

// StreamDone ends a send normally.
type StreamDone struct {
	ConversationID string
}

// StreamFailed ends a send with an error. The placeholder keeps Partial, or
// Fallback when nothing streamed.
type StreamFailed struct {
	ConversationID string
	Partial        string
	Fallback       string
}

// StreamCancelled ends a send at the user's request, keeping any partial content.
type StreamCancelled struct {
	ConversationID string
}

func (ConversationCreated) event()  {}
func (ConversationSelected) event() {}
func (ConversationDeleted) event()  {}
func (SendStarted) event()          {}
func (ChunkReceived) event()        {}
func (StreamDone) event()           {}
func (StreamFailed) event()         {}
func (StreamCancelled) event()      {}

// Apply returns the state after ev. It does not modify s.
func Apply(s State, ev Event) State {
	next := State{
		Conversations: s.Conversations,
		ActiveID:      s.ActiveID,
		Phases:        copyPhases(s.Phases),
	}

	switch e := ev.(type) {
	case ConversationCreated:
		next.Conversations = prepend(s.Conversations, e.Conversation)
		next.ActiveID = e.Conversation.ID

	case ConversationSelected:
		if _, ok := s.find(e.ID); ok {
			next.ActiveID = e.ID
		}

	case ConversationDeleted:
		next.Conversations = make([]models.Conversation, 0, len(s.Conversations))
		for _, c := range s.Conversations {
			if c.ID != e.ID {
				next.Conversations = append(next.Conversations, c)
			}
		}
		delete(next.Phases, e.ID)
		if s.ActiveID == e.ID {
			next.ActiveID = ""
		}

	case SendStarted:
		if e.Create != nil {
			next.Conversations = prepend(s.Conversations, *e.Create)
			next.ActiveID = e.Create.ID
		}
		next.Conversations = update(next.Conversations, e.ConversationID, func(c *models.Conversation) {
			if len(c.Messages) == 0 {
				c.Title = conversation.GenerateTitle(e.User.Content)
			}
			c.Messages = append(c.Messages, e.User, e.Assistant)
			c.UpdatedAt = models.NewMillis(e.At)
		})
		next.Phases[e.ConversationID] = PhaseSending

	case ChunkReceived:
		next.Conversations = update(s.Conversations, e.ConversationID, func(c *models.Conversation) {
			setAssistantContent(c, e.Content)
			c.UpdatedAt = models.NewMillis(e.At)
		})
		next.Phases[e.ConversationID] = PhaseStreaming

	case StreamDone:
		next.Phases[e.ConversationID] = PhaseCompleted

	case StreamFailed:
		content := e.Partial
		if content == "" {
			content = e.Fallback
		}
		next.Conversations = update(s.Conversations, e.ConversationID, func(c *models.Conversation) {
			setAssistantContent(c, content)
		})
		next.Phases[e.ConversationID] = PhaseErrored

	case StreamCancelled:
		next.Phases[e.ConversationID] = PhaseCancelled
	}
	return next
}

func copyPhases(in map[string]Phase) map[string]Phase {
	out := make(map[string]Phase, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func prepend(convs []models.Conversation, c models.Conversation) []models.Conversation {
	out := make([]models.Conversation, 0, len(convs)+1)
	out = append(out, c)
	return append(out, convs...)
}

// update copies convs and applies fn to a deep copy of conversation id.
// Unknown ids leave the list unchanged, so late chunks for a deleted
// conversation are dropped.
func update(convs []models.Conversation, id string, fn func(*models.Conversation)) []models.Conversation {
	out := make([]models.Conversation, len(convs))
	copy(out, convs)
	for i := range out {
		if out[i].ID == id {
			c := out[i].Clone()
			fn(c)
			out[i] = *c
			break
		}
	}
	return out
}

func setAssistantContent(c *models.Conversation, content string) {
	if i := len(c.Messages) - 1; i >= 0 && c.Messages[i].Role == models.RoleAssistant {
		c.Messages[i].Content = content
	}
}
