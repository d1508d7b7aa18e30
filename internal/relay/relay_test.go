package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"

	openai "github.com/sashabaranov/go-openai"
)

const testKeyEnv = "QASSIST_RELAY_TEST_KEY"

func delta(content string) string {
	return fmt.Sprintf(`data: {"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q}}]}`, content) + "\n\n"
}

type fakeProvider struct {
	*httptest.Server
	calls atomic.Int32

	mu      sync.Mutex
	lastReq openai.ChatCompletionRequest
	auth    string
}

func (p *fakeProvider) request() (openai.ChatCompletionRequest, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReq, p.auth
}

func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("provider path = %s", r.URL.Path)
		}
		p.mu.Lock()
		p.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&p.lastReq)
		p.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(p.Close)
	return p
}

func newTestHandler(p *fakeProvider, opts ...Option) *Handler {
	return NewHandler(Config{BaseURL: p.URL, APIKeyEnv: testKeyEnv}, opts...)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("error body is not JSON: %q", rec.Body.String())
	}
	return out["error"]
}

const validBody = `{"messages":[{"role":"user","content":"What is DSCR?"}],"systemPrompt":"be brief"}`

func TestRelay_streamsDeltasThenDone(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK, delta("Hel")+delta("lo")+"data: [DONE]\n\n")

	rec := post(newTestHandler(p), validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := "data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache, no-transform" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rec.Header().Get("Connection"); got != "keep-alive" {
		t.Errorf("Connection = %q", got)
	}
	if !rec.Flushed {
		t.Error("frames should be flushed")
	}
}

func TestRelay_providerRequest(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK, "data: [DONE]\n\n")

	post(newTestHandler(p), validBody)

	req, auth := p.request()
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if !req.Stream || req.Model != "llama-3.3-70b-versatile" || req.MaxTokens != 4096 {
		t.Errorf("unexpected provider request: stream=%v model=%s max_tokens=%d", req.Stream, req.Model, req.MaxTokens)
	}
	if req.Temperature < 0.69 || req.Temperature > 0.71 {
		t.Errorf("temperature = %v", req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "be brief" {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "What is DSCR?" {
		t.Errorf("user message = %+v", req.Messages[1])
	}
}

func TestRelay_zeroTemperatureIsSent(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	bodies := make(chan map[string]any, 1)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer provider.Close()

	var zero float32
	h := NewHandler(Config{BaseURL: provider.URL, APIKeyEnv: testKeyEnv, Temperature: &zero})
	post(h, validBody)

	body := <-bodies
	got, ok := body["temperature"]
	if !ok {
		t.Fatal("temperature missing from provider request")
	}
	if got != float64(0) {
		t.Errorf("temperature = %v, want 0", got)
	}
}

func TestRelay_defaultSystemPrompt(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK, "data: [DONE]\n\n")

	post(newTestHandler(p), `{"messages":[{"role":"user","content":"hi"}]}`)

	req, _ := p.request()
	if len(req.Messages) == 0 || req.Messages[0].Content != "You are Q, an AI assistant." {
		t.Errorf("system message = %+v", req.Messages)
	}
}

func TestRelay_skipsMalformedFrame(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK,
		delta("Hel")+"data: {\"choices\":[{\"delta\":\n\n"+": keep-alive\n\nevent: ping\n\n"+delta("lo")+"data: [DONE]\n\n")

	rec := post(newTestHandler(p), validBody)

	want := "data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestRelay_missingCredential(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	p := newFakeProvider(t, http.StatusOK, "data: [DONE]\n\n")

	rec := post(newTestHandler(p), validBody)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := errorBody(t, rec); got != "API key not configured" {
		t.Errorf("error = %q", got)
	}
	if p.calls.Load() != 0 {
		t.Errorf("provider called %d times, want 0", p.calls.Load())
	}
}

func TestRelay_rejectsBadRequests(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK, "data: [DONE]\n\n")
	h := newTestHandler(p)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if rec.Code != http.StatusMethodNotAllowed || errorBody(t, rec) != "Method not allowed" {
		t.Errorf("GET: status = %d body = %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing messages", `{}`, "messages array required"},
		{"null messages", `{"messages":null}`, "messages array required"},
		{"messages not array", `{"messages":"hello"}`, "messages array required"},
		{"invalid json", `{"messages":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := errorBody(t, rec); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}
	if p.calls.Load() != 0 {
		t.Errorf("provider called %d times for rejected requests", p.calls.Load())
	}
}

func TestRelay_providerErrorHidesBody(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusTooManyRequests, `{"error":{"message":"org quota secret"}}`)

	rec := post(newTestHandler(p), validBody)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if got := errorBody(t, rec); got != "Provider API error: 429" {
		t.Errorf("error = %q", got)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("provider error text leaked to client")
	}
}

func TestRelay_unreachableProvider(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK, "")
	h := newTestHandler(p)
	p.Close()

	rec := post(h, validBody)

	if rec.Code != http.StatusInternalServerError || errorBody(t, rec) != "Internal server error" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestRelay_rateLimit(t *testing.T) {
	t.Setenv(testKeyEnv, "test-key")
	p := newFakeProvider(t, http.StatusOK, "data: [DONE]\n\n")
	h := newTestHandler(p, WithRateLimit(1))

	if rec := post(h, validBody); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := post(h, validBody)
	if rec.Code != http.StatusTooManyRequests || errorBody(t, rec) != "Rate limit exceeded" {
		t.Errorf("second request: status = %d body = %s", rec.Code, rec.Body.String())
	}
}

type bufferFlusher struct {
	bytes.Buffer
	flushes int
}

func (b *bufferFlusher) Flush() error {
	b.flushes++
	return nil
}

func TestRelayStream_splitReads(t *testing.T) {
	stream := delta("déjà vu") + delta("日本") + "data: [DONE]\n\n"
	var out bufferFlusher
	frames, err := relayStream(&out, iotest.OneByteReader(strings.NewReader(stream)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	want := "data: {\"content\":\"déjà vu\"}\n\ndata: {\"content\":\"日本\"}\n\ndata: [DONE]\n\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if out.flushes != 3 {
		t.Errorf("flushes = %d, want 3", out.flushes)
	}
}

func TestRelayStream_dropsUnterminatedTail(t *testing.T) {
	var out bufferFlusher
	var malformed int
	stream := delta("ok") + "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}"
	frames, err := relayStream(&out, strings.NewReader(stream), func(string) { malformed++ })
	if err != nil {
		t.Fatal(err)
	}
	if frames != 1 || out.String() != "data: {\"content\":\"ok\"}\n\n" {
		t.Errorf("frames = %d output = %q", frames, out.String())
	}
	if malformed != 0 {
		t.Errorf("unterminated tail should not be parsed")
	}
}

func TestRelayStream_tolerantOfEnvelopeFieldTypes(t *testing.T) {
	var out bufferFlusher
	var malformed int
	stream := `data: {"id":"c1","created":"1700000000","choices":[{"index":0,"delta":{"content":"Hi"}}]}` + "\n\n" +
		"data: [DONE]\n\n"
	frames, err := relayStream(&out, strings.NewReader(stream), func(string) { malformed++ })
	if err != nil {
		t.Fatal(err)
	}
	if frames != 1 || out.String() != "data: {\"content\":\"Hi\"}\n\ndata: [DONE]\n\n" {
		t.Errorf("frames = %d output = %q", frames, out.String())
	}
	if malformed != 0 {
		t.Errorf("malformed = %d, want 0", malformed)
	}
}

func TestRelayStream_continuesAfterDone(t *testing.T) {
	var out bufferFlusher
	stream := "data: [DONE]\n\n" + delta("late")
	frames, err := relayStream(&out, strings.NewReader(stream), nil)
	if err != nil {
		t.Fatal(err)
	}
	if frames != 1 || out.String() != "data: [DONE]\n\ndata: {\"content\":\"late\"}\n\n" {
		t.Errorf("frames = %d output = %q", frames, out.String())
	}
}
