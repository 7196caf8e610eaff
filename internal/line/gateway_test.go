package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "yoyaku/pkg/errors"
	"yoyaku/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"})
}

func TestGateway_Reply(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, "token-123", testLogger())

	err := gateway.Reply(context.Background(), "reply-token-abc", NewTextMessage("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v2/bot/message/reply" {
		t.Errorf("expected reply path, got %s", gotPath)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["replyToken"] != "reply-token-abc" {
		t.Errorf("expected reply token in body, got %v", gotBody["replyToken"])
	}
	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("expected one message in body, got %v", gotBody["messages"])
	}
}

func TestGateway_Push(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, "token-123", testLogger())

	err := gateway.Push(context.Background(), "U1234567890", NewTextMessage("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v2/bot/message/push" {
		t.Errorf("expected push path, got %s", gotPath)
	}
	if gotBody["to"] != "U1234567890" {
		t.Errorf("expected recipient in body, got %v", gotBody["to"])
	}
}

func TestGateway_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid reply token"}`))
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, "token-123", testLogger())

	err := gateway.Push(context.Background(), "U1234567890", NewTextMessage("hi"))
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeGateway {
		t.Errorf("expected gateway error code, got %s", appErr.Code)
	}
}

func TestGateway_EmptyRecipient(t *testing.T) {
	gateway := NewGateway("http://unused", "token", testLogger())

	if err := gateway.Push(context.Background(), "", NewTextMessage("hi")); err == nil {
		t.Error("expected error for empty user id")
	}
	if err := gateway.Reply(context.Background(), "", NewTextMessage("hi")); err == nil {
		t.Error("expected error for empty reply token")
	}
}

func TestGateway_Unreachable(t *testing.T) {
	gateway := NewGateway("http://127.0.0.1:1", "token", testLogger())

	err := gateway.Push(context.Background(), "U1", NewTextMessage("hi"))
	if err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeGateway {
		t.Errorf("expected gateway error code, got %s", appErr.Code)
	}
}
