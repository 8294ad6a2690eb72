package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReplyGreeting(t *testing.T) {
	r := NewResponder("", "", "test-model")
	got := r.Reply(context.Background(), "Hello")
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected greeting reply, got %q", got)
	}
}

func TestReplyPlanRecommendation(t *testing.T) {
	r := NewResponder("", "", "test-model")
	got := r.Reply(context.Background(), "Can you recommend a plan for me?")
	if !strings.Contains(got, "plans") {
		t.Fatalf("expected plan guidance, got %q", got)
	}
}

func TestReplyHowToInvest(t *testing.T) {
	r := NewResponder("", "", "test-model")
	got := r.Reply(context.Background(), "How do I invest here?")
	if !strings.Contains(got, "payment proof") {
		t.Fatalf("expected investing walkthrough, got %q", got)
	}
}

func TestReplyQuestionFallbackWithoutAPIKey(t *testing.T) {
	r := NewResponder("", "", "test-model")
	got := r.Reply(context.Background(), "What happens during a market crash?")
	if !strings.Contains(got, "Good question") {
		t.Fatalf("expected question fallback, got %q", got)
	}
}

func TestReplyUsesCompletionAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": " Diversify your holdings. "}},
			},
		})
	}))
	defer srv.Close()

	r := NewResponder(srv.URL, "secret-key", "test-model")
	got := r.Reply(context.Background(), "What should I do about volatility?")
	if got != "Diversify your holdings." {
		t.Fatalf("expected API answer, got %q", got)
	}
}

func TestReplyPrefersCompletionAPIOverCannedReplies(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hi there, ask me anything."}},
			},
		})
	}))
	defer srv.Close()

	r := NewResponder(srv.URL, "secret-key", "test-model")
	got := r.Reply(context.Background(), "hello")
	if hits != 1 {
		t.Fatalf("expected one completion call, got %d", hits)
	}
	if got != "Hi there, ask me anything." {
		t.Fatalf("expected API answer for greeting, got %q", got)
	}
}

func TestReplyFallsBackWhenAPIFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResponder(srv.URL, "secret-key", "test-model")
	got := r.Reply(context.Background(), "What should I do about volatility?")
	if !strings.Contains(got, "Good question") {
		t.Fatalf("expected fallback reply, got %q", got)
	}
}

func TestReplyFallsBackToCannedReplyWhenAPIFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResponder(srv.URL, "secret-key", "test-model")
	got := r.Reply(context.Background(), "hello")
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected canned greeting fallback, got %q", got)
	}
}
