package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

func TestOllamaBackend_Complete(t *testing.T) {
	var captured ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"Counter offer."},"done":true,"prompt_eval_count":7,"eval_count":3}`)
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.Client(), server.URL+"/", "llama3")
	temp := 0.5
	resp, err := backend.Complete(context.Background(), Request{
		System: "persona",
		Messages: []models.ChatMessage{
			{Role: models.ChatRoleUser, Content: "hello"},
			{Role: models.ChatRoleAssistant, Content: ""},
		},
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "Counter offer." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 7 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v", resp.Usage)
	}

	if captured.Stream {
		t.Error("request should be non-streaming")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system + user", captured.Messages)
	}
	if captured.Options == nil || captured.Options.Temperature == nil || *captured.Options.Temperature != 0.5 {
		t.Errorf("options = %+v", captured.Options)
	}
}

func TestOllamaBackend_ErrorStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantAuth    bool
	}{
		{"json error", http.StatusNotFound, `{"error":"model \"llama3\" not found"}`, `model "llama3" not found`, false},
		{"plain text", http.StatusInternalServerError, "boom", "boom", false},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad token"}`, "bad token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			backend := NewOllamaBackend(server.Client(), server.URL, "llama3")
			_, err := backend.Complete(context.Background(), Request{})

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("err = %v, want ProviderError", err)
			}
			if providerErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", providerErr.StatusCode, tt.status)
			}
			if providerErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", providerErr.Message, tt.wantMessage)
			}
			if errors.Is(err, ErrInvalidCredential) != tt.wantAuth {
				t.Errorf("errors.Is(ErrInvalidCredential) = %t, want %t", !tt.wantAuth, tt.wantAuth)
			}
		})
	}
}

func TestOllamaBackend_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":{"role":"assistant","content":"  "},"done":true}`)
	}))
	defer server.Close()

	backend := NewOllamaBackend(nil, server.URL, "llama3")
	if _, err := backend.Complete(context.Background(), Request{}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestOllamaBackend_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	backend := NewOllamaBackend(nil, url, "llama3")
	if _, err := backend.Complete(context.Background(), Request{}); err == nil {
		t.Error("expected network error")
	}
}
