package line

import "testing"

func TestVerifySignature(t *testing.T) {
	secret := "test-channel-secret"
	body := []byte(`{"destination":"U0000","events":[]}`)

	t.Run("valid signature accepted", func(t *testing.T) {
		sig := Sign(secret, body)
		if !VerifySignature(secret, body, sig) {
			t.Error("expected valid signature to verify")
		}
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		sig := Sign(secret, body)
		tampered := append([]byte{}, body...)
		tampered[0] ^= 0x01
		if VerifySignature(secret, tampered, sig) {
			t.Error("expected tampered body to fail verification")
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		sig := Sign("other-secret", body)
		if VerifySignature(secret, body, sig) {
			t.Error("expected signature from wrong secret to fail")
		}
	})

	t.Run("malformed base64 rejected", func(t *testing.T) {
		if VerifySignature(secret, body, "not-valid-base64!!!") {
			t.Error("expected malformed signature to fail")
		}
	})

	t.Run("empty signature rejected", func(t *testing.T) {
		if VerifySignature(secret, body, "") {
			t.Error("expected empty signature to fail")
		}
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		sig := Sign("", body)
		if VerifySignature("", body, sig) {
			t.Error("expected empty secret to fail")
		}
	})
}

func TestSignatureVerifier(t *testing.T) {
	secret := "test-channel-secret"
	body := []byte(`{"events":[]}`)

	verify := SignatureVerifier(secret)

	if !verify(body, Sign(secret, body)) {
		t.Error("expected adapter to accept valid signature")
	}
	if verify(body, Sign("wrong", body)) {
		t.Error("expected adapter to reject invalid signature")
	}
}
