package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/totalquality/qassist/internal/models"
)

const dataPrefix = "data: "

var doneFrame = []byte(dataPrefix + models.DoneSentinel + "\n\n")

// frameWriter receives re-framed SSE data and is flushed after every frame.
type frameWriter interface {
	io.Writer
	Flush() error
}

// relayStream copies a provider SSE stream to w, re-framing each content delta
// as {"content": ...}. Lines are handled only once their newline has arrived;
// an unterminated trailing fragment at EOF is dropped. Malformed JSON frames
// are skipped. It returns the number of content frames written.
func relayStream(w frameWriter, body io.Reader, onMalformed func(payload string)) (int, error) {
	reader := bufio.NewReader(body)
	frames := 0
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, err
		}
		frame, ok := reframe(line, onMalformed)
		if !ok {
			continue
		}
		if _, err := w.Write(frame); err != nil {
			return frames, err
		}
		if err := w.Flush(); err != nil {
			return frames, err
		}
		if !bytes.Equal(frame, doneFrame) {
			frames++
		}
	}
}

// reframe converts one provider line into the frame to send, if any.
func reframe(line []byte, onMalformed func(string)) ([]byte, bool) {
	text := strings.TrimSpace(strings.ToValidUTF8(string(line), "\uFFFD"))
	if text == "" || !strings.HasPrefix(text, dataPrefix) {
		return nil, false
	}
	payload := strings.TrimPrefix(text, dataPrefix)
	if payload == models.DoneSentinel {
		return doneFrame, true
	}

	content, err := deltaContent([]byte(payload))
	if err != nil {
		if onMalformed != nil {
			onMalformed(payload)
		}
		return nil, false
	}
	if content == "" {
		return nil, false
	}
	data, err := json.Marshal(models.StreamChunk{Content: content})
	if err != nil {
		return nil, false
	}
	frame := make([]byte, 0, len(dataPrefix)+len(data)+2)
	frame = append(frame, dataPrefix...)
	frame = append(frame, data...)
	frame = append(frame, '\n', '\n')
	return frame, true
}

// contentOnly is the part of a provider chunk the relay forwards.
type contentOnly struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// deltaContent returns choices[0].delta.content. Providers that type other
// envelope fields differently still decode through contentOnly.
func deltaContent(payload []byte) (string, error) {
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload, &chunk); err == nil {
		if len(chunk.Choices) == 0 {
			return "", nil
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	var loose contentOnly
	if err := json.Unmarshal(payload, &loose); err != nil {
		return "", err
	}
	if len(loose.Choices) == 0 {
		return "", nil
	}
	return loose.Choices[0].Delta.Content, nil
}
