package compute

import (
	"context"
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

func newTestNode(t *testing.T, serverURL string, config map[string]any) *ComputeNode {
	t.Helper()

	node, err := NewComputeNode("node-1", config)
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.tokens = auth.StaticTokenSource("iam-token")
	node.client = api.NewClient(log.Discard())
	node.apiBaseURL = serverURL

	return node
}

func TestComputeNode_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instances" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		if r.URL.Query().Get("folderId") != "folder-1" {
			t.Errorf("unexpected folderId: %s", r.URL.Query().Get("folderId"))
		}

		_, _ = w.Write([]byte(`{"instances": [{"id": "vm-1", "status": "RUNNING"}]}`))
	}))
	defer server.Close()

	node := newTestNode(t, server.URL, map[string]any{"folderId": "folder-1"})

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	instances, ok := out[0].JSON["instances"].([]map[string]any)
	if !ok || len(instances) != 1 {
		t.Fatalf("expected one instance, got %v", out[0].JSON["instances"])
	}
}

func TestComputeNode_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instances/vm-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		_, _ = w.Write([]byte(`{"id": "vm-1", "status": "STOPPED"}`))
	}))
	defer server.Close()

	node := newTestNode(t, server.URL, map[string]any{"operation": "get", "instanceId": "vm-1"})

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if out[0].JSON["status"] != "STOPPED" {
		t.Errorf("unexpected status: %v", out[0].JSON["status"])
	}
}

func TestComputeNode_StartStop(t *testing.T) {
	for _, action := range []string{"start", "stop"} {
		t.Run(action, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}

				if r.URL.Path != "/instances/vm-1:"+action {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}

				_, _ = w.Write([]byte(`{"id": "op-1", "done": false}`))
			}))
			defer server.Close()

			node := newTestNode(t, server.URL, map[string]any{"operation": action, "instanceId": "vm-1"})

			out, err := node.Execute(context.Background(), testExecutionContext(
				models.NewItem(0, map[string]any{}),
			), log.Discard())
			if err != nil {
				t.Fatalf("execute failed: %v", err)
			}

			if out[0].JSON["id"] != "op-1" {
				t.Errorf("unexpected operation id: %v", out[0].JSON["id"])
			}
		})
	}
}

func TestComputeNode_MissingInstanceID(t *testing.T) {
	_, err := NewComputeNode("node-1", map[string]any{"operation": "start"})
	if err == nil || !strings.Contains(err.Error(), "instanceId") {
		t.Fatalf("expected missing instanceId error, got %v", err)
	}
}
