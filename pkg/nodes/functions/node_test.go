package functions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowhost/yandexcloud-nodes/pkg/log"
	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

func testCredentials() map[string]any {
	return map[string]any{
		"serviceAccountJSON": `{"service_account_id":"sa-1","id":"key-1","private_key":"PEM"}`,
	}
}

func testExecutionContext(items ...models.Item) models.ExecutionContext {
	return models.ExecutionContext{
		ID:          "exec-1",
		NodeID:      "node-1",
		Items:       items,
		Credentials: testCredentials(),
	}
}

func TestFunctionsNode_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fn-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer iam-token" {
			t.Errorf("unexpected authorization header: %s", r.Header.Get("Authorization"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": 42}`))
	}))
	defer server.Close()

	node, err := NewFunctionsNode("node-1", map[string]any{"functionId": "fn-123"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.tokens = auth.StaticTokenSource("iam-token")
	node.client = api.NewClient(log.Discard())
	node.invokeBaseURL = server.URL

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{"question": "life"}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}

	if out[0].JSON["answer"] != float64(42) {
		t.Errorf("expected answer 42, got %v", out[0].JSON["answer"])
	}
}

func TestFunctionsNode_UsesDefaultTokenSource(t *testing.T) {
	auth.SetDefaultTokenSource(auth.StaticTokenSource("shared-token"))
	t.Cleanup(func() { auth.SetDefaultTokenSource(nil) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer shared-token" {
			t.Errorf("unexpected authorization header: %s", r.Header.Get("Authorization"))
		}

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	node, err := NewFunctionsNode("node-1", map[string]any{"functionId": "fn-123"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	// No token source injected: Execute must fall back to the process-wide
	// one instead of minting with a private cache.
	node.client = api.NewClient(log.Discard())
	node.invokeBaseURL = server.URL

	if _, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
}

func TestFunctionsNode_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("folderId") != "folder-1" {
			t.Errorf("unexpected folderId: %s", r.URL.Query().Get("folderId"))
		}

		_, _ = w.Write([]byte(`{"functions": [{"id": "fn-1", "name": "resize"}]}`))
	}))
	defer server.Close()

	node, err := NewFunctionsNode("node-1", map[string]any{"operation": "list", "folderId": "folder-1"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.tokens = auth.StaticTokenSource("iam-token")
	node.client = api.NewClient(log.Discard())
	node.apiBaseURL = server.URL

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	functions, ok := out[0].JSON["functions"].([]map[string]any)
	if !ok || len(functions) != 1 {
		t.Fatalf("expected one listed function, got %v", out[0].JSON["functions"])
	}

	if functions[0]["name"] != "resize" {
		t.Errorf("unexpected function name: %v", functions[0]["name"])
	}
}

func TestFunctionsNode_MissingFunctionID(t *testing.T) {
	_, err := NewFunctionsNode("node-1", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "functionId") {
		t.Fatalf("expected missing functionId error, got %v", err)
	}
}

func TestFunctionsNode_MissingCredentials(t *testing.T) {
	node, err := NewFunctionsNode("node-1", map[string]any{"functionId": "fn-123"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	ectx := testExecutionContext(models.NewItem(0, map[string]any{}))
	ectx.Credentials = nil

	_, err = node.Execute(context.Background(), ectx, log.Discard())

	fieldErr := &auth.FieldError{}
	if err == nil || !errors.As(err, &fieldErr) {
		t.Fatalf("expected credential field error, got %v", err)
	}
}
