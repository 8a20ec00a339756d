package categorize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !strings.Contains(req.Messages[0].Content, `"milk"`) {
			t.Errorf("prompt missing item texts: %s", req.Messages[0].Content)
		}
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: content}}},
		})
	}))
}

func TestCategorizeParsesSections(t *testing.T) {
	server := completionServer(t, `{"sections":[{"name":"Dairy & Eggs","items":["milk"]},{"name":"Bakery","items":["bread"]}]}`)
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	sections, err := c.Categorize(context.Background(), []string{"milk", "bread"})
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Name != "Dairy & Eggs" || sections[0].Items[0] != "milk" {
		t.Errorf("unexpected first section: %+v", sections[0])
	}
}

func TestCategorizeToleratesCodeFences(t *testing.T) {
	server := completionServer(t, "```json\n{\"sections\":[{\"name\":\"Dairy & Eggs\",\"items\":[\"milk\"]}]}\n```")
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	sections, err := c.Categorize(context.Background(), []string{"milk"})
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(sections) != 1 || sections[0].Name != "Dairy & Eggs" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}

func TestCategorizeEmptyCompletion(t *testing.T) {
	server := completionServer(t, "")
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	if _, err := c.Categorize(context.Background(), []string{"milk"}); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestCategorizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	if _, err := c.Categorize(context.Background(), []string{"milk"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestCategorizeInvalidJSON(t *testing.T) {
	server := completionServer(t, "Sure! Here are your sections: Dairy")
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	if _, err := c.Categorize(context.Background(), []string{"milk"}); err == nil {
		t.Fatal("expected error for non-JSON completion")
	}
}
