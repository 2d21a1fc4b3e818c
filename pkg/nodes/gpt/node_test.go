package gpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowhost/yandexcloud-nodes/pkg/log"
	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

func testExecutionContext(items ...models.Item) models.ExecutionContext {
	return models.ExecutionContext{
		ID:     "exec-1",
		NodeID: "node-1",
		Items:  items,
		Credentials: map[string]any{
			"serviceAccountJSON": `{"service_account_id":"sa-1","id":"key-1","private_key":"PEM"}`,
		},
	}
}

func TestGPTNode_Completion(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)

		_, _ = w.Write([]byte(`{
			"result": {
				"alternatives": [{"message": {"role": "assistant", "text": "four"}, "status": "ALTERNATIVE_STATUS_FINAL"}],
				"usage": {"totalTokens": "12"},
				"modelVersion": "23.10"
			}
		}`))
	}))
	defer server.Close()

	node, err := NewGPTNode("node-1", map[string]any{
		"folderId":     "folder-1",
		"systemPrompt": "answer in one word",
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.tokens = auth.StaticTokenSource("iam-token")
	node.client = api.NewClient(log.Discard())
	node.completionURL = server.URL

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{"prompt": "what is two plus two"}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if out[0].JSON["text"] != "four" {
		t.Errorf("unexpected completion: %v", out[0].JSON["text"])
	}

	if captured["modelUri"] != "gpt://folder-1/yandexgpt-lite" {
		t.Errorf("unexpected model URI: %v", captured["modelUri"])
	}

	messages, ok := captured["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system + user message, got %v", captured["messages"])
	}

	first := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected system message first, got %v", first["role"])
	}
}

func TestGPTNode_TemperatureRange(t *testing.T) {
	_, err := NewGPTNode("node-1", map[string]any{"folderId": "folder-1", "temperature": 1.5})
	if err == nil || !strings.Contains(err.Error(), "temperature") {
		t.Fatalf("expected temperature range error, got %v", err)
	}
}

func TestGPTNode_MissingFolderID(t *testing.T) {
	_, err := NewGPTNode("node-1", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "folderId") {
		t.Fatalf("expected missing folderId error, got %v", err)
	}
}
