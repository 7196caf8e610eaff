package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yoyaku/internal/line"
	"yoyaku/pkg/logger"
	"yoyaku/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const testChannelSecret = "test-channel-secret"

// webhookServer wires the handler behind signature verification the same way
// the application does.
func webhookServer(gateway line.Gateway) http.Handler {
	log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON, Service: "test"})
	d := newTestDispatcher(&mockReservationService{}, gateway)

	router := httprouter.New()
	NewHandler(d, log).RegisterRoutes(router)

	verify := middleware.WebhookSignatureVerification(
		"X-Line-Signature",
		line.SignatureVerifier(testChannelSecret),
		log,
	)
	return verify(router)
}

func postWebhook(handler http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Line-Signature", signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestReceive_ValidSignature(t *testing.T) {
	gateway := &mockGateway{}
	handler := webhookServer(gateway)

	body := `{"destination":"U0","events":[{"type":"follow","replyToken":"r1","source":{"type":"user","userId":"U-new"}}]}`
	rec := postWebhook(handler, body, line.Sign(testChannelSecret, []byte(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(gateway.replies) != 1 {
		t.Errorf("expected welcome reply, got %d replies", len(gateway.replies))
	}
}

func TestReceive_InvalidSignature(t *testing.T) {
	gateway := &mockGateway{}
	handler := webhookServer(gateway)

	body := `{"destination":"U0","events":[{"type":"follow","replyToken":"r1","source":{"type":"user","userId":"U-new"}}]}`
	rec := postWebhook(handler, body, line.Sign("wrong-secret", []byte(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body on rejection, got %q", rec.Body.String())
	}
	if len(gateway.replies) != 0 {
		t.Error("no events may be processed on signature failure")
	}
}

func TestReceive_MissingSignature(t *testing.T) {
	handler := webhookServer(&mockGateway{})

	rec := postWebhook(handler, `{"events":[]}`, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestReceive_MalformedBody(t *testing.T) {
	handler := webhookServer(&mockGateway{})

	body := `{not json`
	rec := postWebhook(handler, body, line.Sign(testChannelSecret, []byte(body)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestReceive_EmptyEventBatch(t *testing.T) {
	handler := webhookServer(&mockGateway{})

	// The platform sends empty deliveries to verify the endpoint
	body := `{"destination":"U0","events":[]}`
	rec := postWebhook(handler, body, line.Sign(testChannelSecret, []byte(body)))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for empty batch, got %d", rec.Code)
	}
}
