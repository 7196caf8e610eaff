package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"yoyaku/pkg/middleware"
)

// VerifySignature checks a webhook signature against the raw request body.
// The signature is the base64-encoded HMAC-SHA256 of the body keyed with the
// channel secret. Comparison is constant-time.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)

	return hmac.Equal(decoded, mac.Sum(nil))
}

// Sign computes the signature for a body. Used by tests and outbound
// verification tooling.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignatureVerifier adapts VerifySignature for the webhook middleware.
func SignatureVerifier(channelSecret string) middleware.SignatureVerifier {
	return func(body []byte, signature string) bool {
		return VerifySignature(channelSecret, body, signature)
	}
}
