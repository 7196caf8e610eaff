package line

import (
	"context"
	"net/url"

	"yoyaku/pkg/client"
	apperrors "yoyaku/pkg/errors"
	"yoyaku/pkg/logger"
)

const (
	verifyTokenPath = "/oauth2/v2.1/verify"
	profilePath     = "/v2/profile"
)

// IdentityProvider resolves a client-supplied access token to a verified
// provider user ID. Bookings carry tokens from the embedded web form; the
// token is never trusted as-is.
type IdentityProvider interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}

type httpIdentityProvider struct {
	client *client.HttpClient
	log    *logger.Logger
}

func NewIdentityProvider(baseURL string, log *logger.Logger) IdentityProvider {
	return &httpIdentityProvider{
		client: client.NewHttpClient(baseURL, defaultTimeout),
		log:    log,
	}
}

type verifyTokenResponse struct {
	ClientID  string `json:"client_id"`
	ExpiresIn int64  `json:"expires_in"`
}

type profileResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Verify validates the access token with the provider, then fetches the
// profile it belongs to. Any failure maps to an authentication error; the
// caller must not fall back to an unverified identity.
func (p *httpIdentityProvider) Verify(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", apperrors.Unauthorized("access token is required")
	}

	verifyURL := verifyTokenPath + "?access_token=" + url.QueryEscape(accessToken)
	resp, err := p.client.GET(ctx, verifyURL, nil)
	if err != nil {
		return "", apperrors.Unauthorized("token verification request failed")
	}
	if resp.StatusCode != 200 {
		p.log.Warn("access token rejected by provider", "status", resp.StatusCode)
		return "", apperrors.Unauthorized("access token is invalid or expired")
	}

	var verified verifyTokenResponse
	if err := resp.DecodeJSON(&verified); err != nil {
		return "", apperrors.Unauthorized("malformed token verification response")
	}
	if verified.ExpiresIn <= 0 {
		return "", apperrors.Unauthorized("access token is expired")
	}

	profileResp, err := p.client.GET(ctx, profilePath, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return "", apperrors.Unauthorized("profile request failed")
	}
	if profileResp.StatusCode != 200 {
		p.log.Warn("profile fetch rejected by provider", "status", profileResp.StatusCode)
		return "", apperrors.Unauthorized("could not resolve user profile")
	}

	var profile profileResponse
	if err := profileResp.DecodeJSON(&profile); err != nil {
		return "", apperrors.Unauthorized("malformed profile response")
	}
	if profile.UserID == "" {
		return "", apperrors.Unauthorized("profile has no user id")
	}

	return profile.UserID, nil
}
