// Package relay implements POST /api/chat: it forwards a conversation to an
// OpenAI-compatible completion API with streaming on and re-emits each text
// delta to the client as a minimal SSE frame.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/totalquality/qassist/internal/config"
	"github.com/totalquality/qassist/internal/metrics"
	"github.com/totalquality/qassist/internal/models"
)

// maxErrorBody bounds how much of a provider error body is read for logging.
const maxErrorBody = 64 << 10

// Config holds provider settings for the relay.
type Config struct {
	BaseURL             string
	Model               string
	Temperature         *float32
	MaxTokens           int
	APIKeyEnv           string
	DefaultSystemPrompt string
}

// ConfigFrom converts the provider section of the application config.
func ConfigFrom(c config.ProviderConfig) Config {
	return Config{
		BaseURL:             c.BaseURL,
		Model:               c.Model,
		Temperature:         c.Temperature,
		MaxTokens:           c.MaxTokens,
		APIKeyEnv:           c.APIKeyEnv,
		DefaultSystemPrompt: c.DefaultSystemPrompt,
	}
}

// Handler serves the streaming relay. It holds no per-request state, so one
// Handler serves any number of concurrent streams.
type Handler struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithHTTPClient sets the client used to call the provider.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) {
		if c != nil {
			h.client = c
		}
	}
}

// WithRateLimit caps relay requests across all callers. Zero or less disables it.
func WithRateLimit(perMinute int) Option {
	return func(h *Handler) {
		if perMinute > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a relay handler. The provider is called without a client
// timeout; the request context bounds each stream.
func NewHandler(cfg Config, opts ...Option) *Handler {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultProviderBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultProviderModel
	}
	if cfg.Temperature == nil {
		temperature := float32(config.DefaultProviderTemperature)
		cfg.Temperature = &temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = config.DefaultProviderMaxTokens
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = config.DefaultAPIKeyEnv
	}
	if cfg.DefaultSystemPrompt == "" {
		cfg.DefaultSystemPrompt = config.DefaultSystemPrompt
	}
	h := &Handler{cfg: cfg, client: &http.Client{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := h.serve(w, r)
	metrics.RelayStreams.WithLabelValues(outcome).Inc()
	metrics.RelayDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) string {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return metrics.OutcomeRejected
	}
	if h.limiter != nil && !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return metrics.OutcomeRejected
	}

	req, err := decodeRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return metrics.OutcomeRejected
	}

	apiKey := os.Getenv(h.cfg.APIKeyEnv)
	if apiKey == "" {
		h.logger.Error("relay credential missing", zap.String("env", h.cfg.APIKeyEnv))
		writeError(w, http.StatusInternalServerError, ErrMissingCredential.Error())
		return metrics.OutcomeFailed
	}

	ctx := r.Context()
	resp, err := h.callProvider(ctx, apiKey, req)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Debug("client disconnected before provider responded")
			return metrics.OutcomeClientGone
		}
		h.logger.Error("provider request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return metrics.OutcomeFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		perr := &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
		h.logger.Error("provider returned error", zap.Int("status", perr.StatusCode), zap.String("body", perr.Body))
		metrics.ProviderErrors.WithLabelValues(strconv.Itoa(perr.StatusCode)).Inc()
		writeError(w, perr.StatusCode, fmt.Sprintf("Provider API error: %d", perr.StatusCode))
		return metrics.OutcomeProviderError
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache, no-transform")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	out := &flushWriter{w: w, rc: http.NewResponseController(w)}
	frames, err := relayStream(out, resp.Body, func(payload string) {
		h.logger.Debug("skipping malformed provider frame", zap.Int("bytes", len(payload)))
	})
	metrics.RelayChunks.Add(float64(frames))
	if err != nil {
		// Headers are already sent; the only recovery is ending the response.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			h.logger.Debug("client disconnected mid-stream", zap.Int("frames", frames))
			return metrics.OutcomeClientGone
		}
		h.logger.Error("relay stream aborted", zap.Int("frames", frames), zap.Error(err))
		return metrics.OutcomeFailed
	}
	h.logger.Debug("relay stream completed", zap.Int("frames", frames))
	return metrics.OutcomeCompleted
}

func (h *Handler) callProvider(ctx context.Context, apiKey string, req *models.ChatRequest) (*http.Response, error) {
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = h.cfg.DefaultSystemPrompt
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(providerRequest{
		ChatCompletionRequest: openai.ChatCompletionRequest{
			Model:     h.cfg.Model,
			Messages:  messages,
			Stream:    true,
			MaxTokens: h.cfg.MaxTokens,
		},
		Temperature: *h.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encode provider request: %w", err)
	}

	url := strings.TrimRight(h.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	return resp, nil
}

// providerRequest always sends temperature. The embedded field is omitempty,
// which would drop an explicit 0.
type providerRequest struct {
	openai.ChatCompletionRequest
	Temperature float32 `json:"temperature"`
}

// decodeRequest reads the relay body. messages must be present and a JSON array.
func decodeRequest(body io.Reader) (*models.ChatRequest, error) {
	var raw struct {
		Messages     json.RawMessage `json:"messages"`
		SystemPrompt string          `json:"systemPrompt"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, errors.New("invalid request body")
	}
	trimmed := bytes.TrimSpace(raw.Messages)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrValidation
	}
	req := &models.ChatRequest{SystemPrompt: raw.SystemPrompt}
	if err := json.Unmarshal(trimmed, &req.Messages); err != nil {
		return nil, ErrValidation
	}
	return req, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// flushWriter flushes through any middleware wrappers that support it.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f *flushWriter) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f *flushWriter) Flush() error {
	if err := f.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
