package models

// ChatMessage is the role/content pair sent to the relay.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
}

// StreamChunk is the payload of one relayed SSE data frame.
type StreamChunk struct {
	Content string `json:"content"`
}

// DoneSentinel terminates a stream.
const DoneSentinel = "[DONE]"

// ToChatMessages converts conversation history into relay messages, dropping empty
// assistant placeholders.
func ToChatMessages(msgs []Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleAssistant && m.Content == "" {
			continue
		}
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
