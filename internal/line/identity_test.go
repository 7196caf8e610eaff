package line

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "yoyaku/pkg/errors"
)

func identityServer(t *testing.T, verifyStatus int, verifyBody string, profileStatus int, profileBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/v2.1/verify":
			w.WriteHeader(verifyStatus)
			w.Write([]byte(verifyBody))
		case "/v2/profile":
			if r.Header.Get("Authorization") == "" {
				t.Error("expected bearer auth on profile request")
			}
			w.WriteHeader(profileStatus)
			w.Write([]byte(profileBody))
		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestIdentityProvider_Verify(t *testing.T) {
	t.Run("valid token resolves user id", func(t *testing.T) {
		server := identityServer(t,
			200, `{"client_id":"123","expires_in":3600}`,
			200, `{"userId":"U-valid-user","displayName":"Taro"}`,
		)
		defer server.Close()

		provider := NewIdentityProvider(server.URL, testLogger())

		userID, err := provider.Verify(context.Background(), "valid-token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if userID != "U-valid-user" {
			t.Errorf("expected U-valid-user, got %s", userID)
		}
	})

	t.Run("rejected token returns unauthorized", func(t *testing.T) {
		server := identityServer(t,
			400, `{"error":"invalid_request"}`,
			200, `{}`,
		)
		defer server.Close()

		provider := NewIdentityProvider(server.URL, testLogger())

		_, err := provider.Verify(context.Background(), "bad-token")
		assertUnauthorized(t, err)
	})

	t.Run("expired token returns unauthorized", func(t *testing.T) {
		server := identityServer(t,
			200, `{"client_id":"123","expires_in":0}`,
			200, `{}`,
		)
		defer server.Close()

		provider := NewIdentityProvider(server.URL, testLogger())

		_, err := provider.Verify(context.Background(), "expired-token")
		assertUnauthorized(t, err)
	})

	t.Run("profile failure returns unauthorized", func(t *testing.T) {
		server := identityServer(t,
			200, `{"client_id":"123","expires_in":3600}`,
			401, `{"message":"invalid token"}`,
		)
		defer server.Close()

		provider := NewIdentityProvider(server.URL, testLogger())

		_, err := provider.Verify(context.Background(), "token")
		assertUnauthorized(t, err)
	})

	t.Run("profile without user id returns unauthorized", func(t *testing.T) {
		server := identityServer(t,
			200, `{"client_id":"123","expires_in":3600}`,
			200, `{"displayName":"Taro"}`,
		)
		defer server.Close()

		provider := NewIdentityProvider(server.URL, testLogger())

		_, err := provider.Verify(context.Background(), "token")
		assertUnauthorized(t, err)
	})

	t.Run("empty token returns unauthorized without calling provider", func(t *testing.T) {
		provider := NewIdentityProvider("http://unused", testLogger())

		_, err := provider.Verify(context.Background(), "")
		assertUnauthorized(t, err)
	})
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected unauthorized error code, got %s", appErr.Code)
	}
}
