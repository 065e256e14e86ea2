package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeOpenAI serves a canned chat-completion response so the tester can be
// exercised without a real endpoint.
func fakeOpenAI(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test-1234" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-123",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}},
			},
			"usage": map[string]any{"prompt_tokens": 11, "completion_tokens": 2, "total_tokens": 13},
		})
	}))
}

func TestSmokeTestSuccess(t *testing.T) {
	srv := fakeOpenAI(t, "OK\n")
	defer srv.Close()

	tester, err := NewSmokeTester("sk-test-1234", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("new tester: %v", err)
	}

	result, err := tester.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.OK {
		t.Error("ok = false, want true")
	}
	if result.OutputText != "OK" {
		t.Errorf("output = %q, want OK (trimmed)", result.OutputText)
	}
	if result.Model != "test-model" {
		t.Errorf("model = %q, want test-model", result.Model)
	}
	if result.APISuffix != "1234" {
		t.Errorf("api suffix = %q, want last four characters", result.APISuffix)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 13 {
		t.Errorf("usage = %+v, want total 13", result.Usage)
	}
}

func TestSmokeTestRequiresKey(t *testing.T) {
	if _, err := NewSmokeTester("", "model", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestSmokeTestUnreachableEndpoint(t *testing.T) {
	tester, err := NewSmokeTester("sk-test-1234", "model", "http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("new tester: %v", err)
	}
	if _, err := tester.Run(context.Background()); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
