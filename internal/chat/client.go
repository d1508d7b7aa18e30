package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/totalquality/qassist/internal/models"
)

// maxErrorBody bounds how much of a non-2xx relay body goes into the error.
const maxErrorBody = 4 << 10

// Streamer sends a chat request and reports each content chunk in order.
// It returns nil when the stream ends and ctx.Err() when cancelled.
type Streamer interface {
	Stream(ctx context.Context, req models.ChatRequest, onChunk func(string)) error
}

// Client calls the relay's POST /api/chat.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a relay client for the server at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Stream posts req and calls onChunk for every content frame until the done
// sentinel or end of stream. Malformed frames are skipped.
func (c *Client) Stream(ctx context.Context, req models.ChatRequest, onChunk func(string)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		text := strings.TrimSpace(string(line))
		if !strings.HasPrefix(text, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(text, "data: ")
		if payload == models.DoneSentinel {
			return nil
		}
		var chunk models.StreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		// A line may already be buffered when the caller aborts; drop it.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if chunk.Content != "" {
			onChunk(chunk.Content)
		}
	}
}
