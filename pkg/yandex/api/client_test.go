package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowhost/yandexcloud-nodes/pkg/log"
)

func testClient() *Client {
	c := NewClient(log.Discard())
	c.Retries.Delay = 0

	return c
}

func TestDoJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Expected bearer token header, got: %q", got)
		}

		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Expected JSON content type, got: %q", got)
		}

		_, _ = w.Write([]byte(`{"result": "ok"}`))
	}))
	defer server.Close()

	var out struct {
		Result string `json:"result"`
	}

	err := testClient().DoJSON(context.Background(), "test.op", http.MethodPost, server.URL, "token-1", map[string]string{"q": "x"}, &out)
	if err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}

	if out.Result != "ok" {
		t.Errorf("Expected result 'ok', got: %s", out.Result)
	}
}

func TestDoJSON_ClientErrorNotRetried(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++

		http.Error(w, `{"message": "folder not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	err := testClient().DoJSON(context.Background(), "compute.list", http.MethodGet, server.URL, "t", nil, nil)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	apiErr := &Error{}
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}

	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got: %d", apiErr.StatusCode)
	}

	if apiErr.Message != "folder not found" {
		t.Errorf("Expected parsed message, got: %q", apiErr.Message)
	}

	if apiErr.Op != "compute.list" {
		t.Errorf("Expected op to be carried, got: %q", apiErr.Op)
	}

	if calls != 1 {
		t.Errorf("Expected 1 call for client error, got: %d", calls)
	}
}

func TestDoJSON_ServerErrorRetried(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++

		if calls < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)

			return
		}

		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := testClient().DoJSON(context.Background(), "test.op", http.MethodGet, server.URL, "t", nil, nil)
	if err != nil {
		t.Fatalf("Expected retries to recover, got: %v", err)
	}

	if calls != 3 {
		t.Errorf("Expected 3 calls, got: %d", calls)
	}
}

func TestDoJSON_RetriesExhausted(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++

		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := testClient().DoJSON(context.Background(), "test.op", http.MethodGet, server.URL, "t", nil, nil)
	if err == nil {
		t.Fatal("Expected error after exhausted retries")
	}

	if calls != 3 {
		t.Errorf("Expected 3 calls, got: %d", calls)
	}
}

func TestStream_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "operation data is not ready yet"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient().Stream(context.Background(), "ocr.getRecognition", http.MethodGet, server.URL, "t")
	if err == nil {
		t.Fatal("Expected error")
	}

	apiErr := &Error{}
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}

	if apiErr.Message != "operation data is not ready yet" {
		t.Errorf("Expected message to surface, got: %q", apiErr.Message)
	}
}
