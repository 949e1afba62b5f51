package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tradelm/tradelm-ai/internal/backend"
	"github.com/tradelm/tradelm-ai/internal/chat"
	"github.com/tradelm/tradelm-ai/internal/config"
	"github.com/tradelm/tradelm-ai/internal/llm"
	"github.com/tradelm/tradelm-ai/internal/server"
	"github.com/tradelm/tradelm-ai/internal/tagging"
	"github.com/tradelm/tradelm-ai/internal/tools"
)

const testSecret = "shared-secret"

// fakeGateway replays scripted chat completions and one structured payload.
type fakeGateway struct {
	replies       []*llm.Completion
	errs          []error
	structured    json.RawMessage
	structuredErr error
	calls         int
}

func (f *fakeGateway) Complete(context.Context, []llm.Message, string, []llm.ToolDef) (*llm.Completion, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.replies) {
		return nil, fmt.Errorf("unscripted gateway call %d", i)
	}
	return f.replies[i], nil
}

func (f *fakeGateway) CompleteStructured(context.Context, string, string, map[string]any) (json.RawMessage, error) {
	f.calls++
	return f.structured, f.structuredErr
}

func newTestServer(t *testing.T, gw llm.Gateway) *server.Server {
	t.Helper()

	cfg := &config.Config{
		Backend: config.BackendConfig{BaseURL: "http://localhost:8000"},
		Auth:    config.AuthConfig{Secret: testSecret},
		Server:  config.ServerConfig{Port: 8001, RequestTimeout: 5 * time.Second},
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.TradeSummaryTool(backend.MockClient{})); err != nil {
		t.Fatalf("registering tool: %v", err)
	}

	tagger, err := tagging.New(gw)
	if err != nil {
		t.Fatalf("creating tagger: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return server.New(cfg, chat.New(gw, registry, nil), tagger, logger)
}

func doRequest(t *testing.T, s *server.Server, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if authed {
		req.Header.Set(server.AuthHeader, testSecret)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthNoAuth(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})

	w := doRequest(t, s, http.MethodGet, "/health", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" || body["service"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestAuthRejectedBeforeAnyWork(t *testing.T) {
	routes := []struct{ method, path, body string }{
		{http.MethodPost, "/tag-trade", `{"notes":"n"}`},
		{http.MethodPost, "/chat/s1", `{"user_id":"u1","user_plan":"pro","history":[],"new_message":{"role":"user","content":"hi"}}`},
	}

	for _, r := range routes {
		t.Run(r.path+"/missing", func(t *testing.T) {
			gw := &fakeGateway{}
			s := newTestServer(t, gw)

			w := doRequest(t, s, r.method, r.path, r.body, false)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if gw.calls != 0 {
				t.Errorf("gateway called %d times before auth", gw.calls)
			}
			if strings.Contains(w.Body.String(), testSecret) {
				t.Error("response must not leak the expected secret")
			}
		})

		t.Run(r.path+"/wrong", func(t *testing.T) {
			gw := &fakeGateway{}
			s := newTestServer(t, gw)

			req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
			req.Header.Set(server.AuthHeader, "not-the-secret")
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if gw.calls != 0 {
				t.Errorf("gateway called %d times before auth", gw.calls)
			}
		})
	}
}

func TestChatTextOnly(t *testing.T) {
	gw := &fakeGateway{replies: []*llm.Completion{
		{Kind: llm.CompletionText, Content: "Stay disciplined."},
	}}
	s := newTestServer(t, gw)

	body := `{"user_id":"u1","user_plan":"free","history":[],"new_message":{"role":"user","content":"Any advice?"}}`
	w := doRequest(t, s, http.MethodPost, "/chat/s1", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var reply llm.Message
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if reply.Role != llm.RoleAssistant || reply.Content != "Stay disciplined." {
		t.Errorf("reply = %+v", reply)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.calls)
	}
}

func TestChatWinRateScenario(t *testing.T) {
	gw := &fakeGateway{replies: []*llm.Completion{
		{
			Kind: llm.CompletionToolCall,
			ToolCall: &llm.ToolCall{
				ID:   "call-1",
				Name: tools.TradeSummaryToolName,
				Args: map[string]any{"user_id": "u1"},
			},
		},
		{Kind: llm.CompletionText, Content: "Your win rate is 70%."},
	}}
	s := newTestServer(t, gw)

	body := `{"user_id":"u1","user_plan":"pro","history":[{"role":"user","content":"What's my win rate?"}],"new_message":{"role":"user","content":"What's my win rate?"}}`
	w := doRequest(t, s, http.MethodPost, "/chat/s1", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var reply llm.Message
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if reply.Role != llm.RoleAssistant || reply.Content != "Your win rate is 70%." {
		t.Errorf("reply = %+v", reply)
	}
	if gw.calls != 2 {
		t.Errorf("gateway calls = %d, want 2", gw.calls)
	}
}

func TestChatUnknownToolFallback(t *testing.T) {
	gw := &fakeGateway{replies: []*llm.Completion{
		{
			Kind:     llm.CompletionToolCall,
			ToolCall: &llm.ToolCall{ID: "call-1", Name: "wire_funds", Args: map[string]any{}},
		},
	}}
	s := newTestServer(t, gw)

	body := `{"user_id":"u1","user_plan":"pro","history":[],"new_message":{"role":"user","content":"hi"}}`
	w := doRequest(t, s, http.MethodPost, "/chat/s1", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (fallback is not an HTTP error)", w.Code)
	}

	var reply llm.Message
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if reply.Content != chat.UnknownToolFallback {
		t.Errorf("content = %q, want %q", reply.Content, chat.UnknownToolFallback)
	}
}

func TestChatProviderErrorMapsTo502(t *testing.T) {
	gw := &fakeGateway{errs: []error{&llm.Error{Kind: llm.KindProvider, Message: "rate limited"}}}
	s := newTestServer(t, gw)

	body := `{"user_id":"u1","user_plan":"pro","history":[],"new_message":{"role":"user","content":"hi"}}`
	w := doRequest(t, s, http.MethodPost, "/chat/s1", body, true)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestChatUninitializedGatewayMapsTo500(t *testing.T) {
	// A real client constructed without an API key: every call fails with
	// the unavailable kind before any request is attempted.
	s := newTestServer(t, llm.NewClient("https://example.invalid/v1/", "", "m"))

	body := `{"user_id":"u1","user_plan":"pro","history":[],"new_message":{"role":"user","content":"hi"}}`
	w := doRequest(t, s, http.MethodPost, "/chat/s1", body, true)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestChatValidation(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, gw)

	cases := map[string]string{
		"invalid JSON": `{`,
		"missing user": `{"user_plan":"pro","history":[],"new_message":{"role":"user","content":"hi"}}`,
		"missing plan": `{"user_id":"u1","history":[],"new_message":{"role":"user","content":"hi"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/chat/s1", body, true)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}
}

func TestTagTrade(t *testing.T) {
	gw := &fakeGateway{structured: json.RawMessage(`{"tags":["FOMO","Poor Exit"]}`)}
	s := newTestServer(t, gw)

	w := doRequest(t, s, http.MethodPost, "/tag-trade", `{"notes":"Sold too early out of fear"}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp tagging.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "FOMO" || resp.Tags[1] != "Poor Exit" {
		t.Errorf("tags = %v", resp.Tags)
	}
}

func TestTagTradeMalformedOutputMapsTo502(t *testing.T) {
	gw := &fakeGateway{structured: json.RawMessage(`not json at all`)}
	s := newTestServer(t, gw)

	w := doRequest(t, s, http.MethodPost, "/tag-trade", `{"notes":"n"}`, true)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestTagTradeMissingNotes(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, gw)

	w := doRequest(t, s, http.MethodPost, "/tag-trade", `{}`, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}
}
