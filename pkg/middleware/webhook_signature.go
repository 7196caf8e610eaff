package middleware

import (
	"bytes"
	"io"
	"net/http"

	"yoyaku/pkg/logger"
)

// SignatureVerifier reports whether signature is valid for the raw body bytes.
type SignatureVerifier func(body []byte, signature string) bool

// WebhookSignatureVerification rejects webhook deliveries whose signature
// header does not match the raw request body. Verification must happen before
// any parsing: re-encoded JSON is not guaranteed byte-identical to the
// original, so the raw bytes are read here and restored for downstream
// handlers.
func WebhookSignatureVerification(headerName string, verify SignatureVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get(headerName)
			if signature == "" {
				logAndReject(w, log, r, "Missing "+headerName+" header")
				return
			}

			body, err := readAndRestoreBody(r)
			if err != nil {
				logAndReject(w, log, r, "Failed to read request body")
				return
			}

			if !verify(body, signature) {
				logAndReject(w, log, r, "Invalid webhook signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	return body, nil
}

func logAndReject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Webhook verification failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	w.WriteHeader(http.StatusUnauthorized)
}
