package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/config"
	"github.com/totalquality/qassist/internal/conversation"
	"github.com/totalquality/qassist/internal/models"
)

var (
	// ErrBusy is returned by Send while the conversation already has a reply streaming.
	ErrBusy = errors.New("a reply is already streaming in this conversation")
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotFound is returned when selecting or deleting an unknown conversation.
	ErrNotFound = errors.New("conversation not found")
)

// StreamError is a failed send. Partial holds whatever streamed before the failure.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream failed: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// PromptBuilder produces the system prompt for a user message.
type PromptBuilder interface {
	ForQuery(query string) (string, []models.KnowledgeEntry)
}

// Controller serialises conversation state behind a mutex and runs sends
// against a Streamer. Streams run on the caller's goroutine; cancel the
// context passed to Send to stop one.
type Controller struct {
	mu       sync.Mutex
	state    State
	streamer Streamer
	prompts  PromptBuilder
	store    *conversation.Store
	hooks    []func(State)

	errorMessage string
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPrompts attaches the system prompt builder. Without one the relay's
// default system prompt is used.
func WithPrompts(p PromptBuilder) Option {
	return func(c *Controller) { c.prompts = p }
}

// WithStore persists the conversation list after every change.
func WithStore(s *conversation.Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithErrorMessage sets the reply shown when a send fails before any text arrived.
func WithErrorMessage(msg string) Option {
	return func(c *Controller) {
		if msg != "" {
			c.errorMessage = msg
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller and loads stored conversations.
func NewController(ctx context.Context, streamer Streamer, opts ...Option) (*Controller, error) {
	c := &Controller{
		streamer:     streamer,
		state:        State{Phases: map[string]Phase{}},
		errorMessage: config.DefaultErrorMessage,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store != nil {
		convs, err := c.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.state.Conversations = convs
	}
	return c, nil
}

// State returns the current state. Treat it as read-only.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange registers fn to observe every state change.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// NewChat creates an empty conversation and makes it active.
func (c *Controller) NewChat(ctx context.Context) models.Conversation {
	conv := conversation.NewConversation(c.now())
	c.apply(ctx, ConversationCreated{Conversation: conv})
	return conv
}

// Select makes conversation id active.
func (c *Controller) Select(ctx context.Context, id string) error {
	if _, ok := c.State().find(id); !ok {
		return ErrNotFound
	}
	c.apply(ctx, ConversationSelected{ID: id})
	return nil
}

// Delete removes conversation id.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if _, ok := c.State().find(id); !ok {
		return ErrNotFound
	}
	c.apply(ctx, ConversationDeleted{ID: id})
	return nil
}

// Send posts text to the active conversation, creating one if none is active,
// and blocks until the reply finishes. Cancelling ctx stops the reply, keeps
// what arrived, and returns nil. A failed reply returns *StreamError.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	now := c.now()
	c.mu.Lock()
	active, ok := c.state.Active()
	var create *models.Conversation
	if ok {
		if c.state.Phase(active.ID).Busy() {
			c.mu.Unlock()
			return ErrBusy
		}
	} else {
		conv := conversation.NewConversation(now)
		create = &conv
		active = conv
	}
	convID := active.ID
	user := conversation.NewMessage(models.RoleUser, text, now)
	history := make([]models.Message, 0, len(active.Messages)+1)
	history = append(history, active.Messages...)
	history = append(history, user)

	hooks := c.applyLocked(ctx, SendStarted{
		ConversationID: convID,
		Create:         create,
		User:           user,
		Assistant:      conversation.NewMessage(models.RoleAssistant, "", now),
		At:             now,
	})
	c.mu.Unlock()
	hooks()

	req := models.ChatRequest{Messages: models.ToChatMessages(history)}
	if c.prompts != nil {
		req.SystemPrompt, _ = c.prompts.ForQuery(text)
	}

	var acc strings.Builder
	err := c.streamer.Stream(ctx, req, func(chunk string) {
		acc.WriteString(chunk)
		c.apply(ctx, ChunkReceived{ConversationID: convID, Content: acc.String(), At: c.now()})
	})

	switch {
	case err == nil:
		c.apply(ctx, StreamDone{ConversationID: convID})
		return nil
	case errors.Is(err, context.Canceled):
		c.logger.Debug("send cancelled", zap.String("conversation", convID), zap.Int("chars", acc.Len()))
		c.apply(ctx, StreamCancelled{ConversationID: convID})
		return nil
	default:
		c.logger.Warn("send failed", zap.String("conversation", convID), zap.Error(err))
		c.apply(ctx, StreamFailed{ConversationID: convID, Partial: acc.String(), Fallback: c.errorMessage})
		return &StreamError{Partial: acc.String(), Err: err}
	}
}

func (c *Controller) apply(ctx context.Context, ev Event) {
	c.mu.Lock()
	notify := c.applyLocked(ctx, ev)
	c.mu.Unlock()
	notify()
}

// applyLocked advances state and persists it. The returned func runs the
// change hooks and must be called after unlocking.
func (c *Controller) applyLocked(ctx context.Context, ev Event) func() {
	c.state = Apply(c.state, ev)
	if c.store != nil {
		// Persist even when the send was cancelled.
		if err := c.store.Save(context.WithoutCancel(ctx), c.state.Conversations); err != nil {
			c.logger.Warn("failed to persist conversations", zap.Error(err))
		}
	}
	state := c.state
	hooks := append([]func(State){}, c.hooks...)
	return func() {
		for _, fn := range hooks {
			fn(state)
		}
	}
}
