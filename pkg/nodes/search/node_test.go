package search

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
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

func TestSearchNode_WebSearch(t *testing.T) {
	resultXML := `<yandexsearch><response/></yandexsearch>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		query := body["query"].(map[string]any)
		if query["queryText"] != "golang" {
			t.Errorf("unexpected query text: %v", query["queryText"])
		}

		payload := base64.StdEncoding.EncodeToString([]byte(resultXML))
		_, _ = fmt.Fprintf(w, `{"rawData": %q}`, payload)
	}))
	defer server.Close()

	node, err := NewSearchNode("node-1", map[string]any{"folderId": "folder-1", "query": "golang"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.tokens = auth.StaticTokenSource("iam-token")
	node.client = api.NewClient(log.Discard())
	node.searchURL = server.URL

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if out[0].JSON["results"] != resultXML {
		t.Errorf("unexpected decoded results: %v", out[0].JSON["results"])
	}
}

func TestSearchNode_QueryFromItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		query := body["query"].(map[string]any)
		if query["queryText"] != "from-item" {
			t.Errorf("unexpected query text: %v", query["queryText"])
		}

		_, _ = w.Write([]byte(`{"rawData": ""}`))
	}))
	defer server.Close()

	node, err := NewSearchNode("node-1", map[string]any{"folderId": "folder-1"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.tokens = auth.StaticTokenSource("iam-token")
	node.client = api.NewClient(log.Discard())
	node.searchURL = server.URL

	_, err = node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{"query": "from-item"}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
}

func TestSearchNode_NegativePage(t *testing.T) {
	_, err := NewSearchNode("node-1", map[string]any{"folderId": "folder-1", "page": float64(-1)})
	if err == nil || !strings.Contains(err.Error(), "page") {
		t.Fatalf("expected page validation error, got %v", err)
	}
}
