package models

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Millis is a time that serializes as Unix milliseconds, matching the browser app's documents.
type Millis struct {
	time.Time
}

// NewMillis truncates t to millisecond precision so it survives a JSON round trip unchanged.
func NewMillis(t time.Time) Millis {
	return Millis{time.UnixMilli(t.UnixMilli())}
}

// MarshalJSON writes the time as an integer number of milliseconds.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.UnixMilli())
}

// UnmarshalJSON reads an integer (or float) number of milliseconds.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	m.Time = time.UnixMilli(int64(ms))
	return nil
}

// Message is a single chat turn. Assistant content grows while a reply is streaming.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp Millis `json:"timestamp"`
}

// Conversation is an ordered list of messages with a derived title.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt Millis    `json:"createdAt"`
	UpdatedAt Millis    `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// LastAssistant returns the index of the last assistant message, or -1.
func (c *Conversation) LastAssistant() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}
