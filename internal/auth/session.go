package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/skyforge-project/skyforge-cli/internal/client"
	"github.com/tidwall/gjson"
)

// Server auth endpoints. Paths are contract with the server, not protocol the
// client owns.
const (
	loginEndpoint   = "/v1/auth/login"
	logoutEndpoint  = "/v1/auth/logout"
	refreshEndpoint = "/v1/auth/token/refresh"
)

// Session ties the generic request client to the profile's token store. It
// guarantees that every authenticated outbound call carries a non-expired
// access token, refreshing transparently and persisting the result, so
// callers never reason about expiry.
type Session struct {
	client *client.Client
	store  *Store
}

// NewSession creates a session over c and store.
func NewSession(c *client.Client, store *Store) *Session {
	return &Session{client: c, store: store}
}

// Do issues an authenticated request. The persisted pair is reloaded from
// disk, the access token refreshed first when absent or expiring within the
// safety margin, and the caller's request is then sent with the (possibly
// fresh) access token as bearer credential. Without a stored refresh token
// the call fails fast with ErrNoCredentials and the target request is never
// issued.
func (s *Session) Do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	pair, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if pair.RefreshToken == "" {
		return nil, ErrNoCredentials
	}

	if needsRefresh(pair.AccessToken, time.Now()) {
		log.Debug("access token missing or expiring, refreshing")
		if err = s.refresh(ctx, pair); err != nil {
			return nil, err
		}
	}

	return s.client.Do(ctx, method, endpoint, body, pair.AccessToken)
}

// Refresh forces a refresh of the access token regardless of its current
// expiry. Used by the explicit token refresh command.
func (s *Session) Refresh(ctx context.Context) error {
	pair, err := s.store.Load()
	if err != nil {
		return err
	}
	if pair.RefreshToken == "" {
		return ErrNoCredentials
	}
	return s.refresh(ctx, pair)
}

// refresh exchanges the refresh token for a new access token and persists it
// before the caller's request proceeds. The refresh token itself is reused,
// not rotated.
func (s *Session) refresh(ctx context.Context, pair *TokenPair) error {
	body, err := s.client.Do(ctx, http.MethodPost, refreshEndpoint, nil, pair.RefreshToken)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	access := gjson.GetBytes(body, "access_token").String()
	if access == "" {
		return fmt.Errorf("token refresh failed: response carried no access token")
	}

	pair.AccessToken = access
	return s.store.SetAccessToken(access)
}

// Login performs a password login and persists the returned token pair,
// replacing whatever the profile held before.
func (s *Session) Login(ctx context.Context, email, password string, noExpiry bool) error {
	reqBody := map[string]any{
		"email":    email,
		"password": password,
	}
	if noExpiry {
		reqBody["no_expiry"] = true
	}

	body, err := s.client.Do(ctx, http.MethodPost, loginEndpoint, reqBody, "")
	if err != nil {
		return err
	}
	return s.persistTokens(body)
}

// SaveTokens persists a token pair obtained outside the password path, e.g.
// from the OAuth2 code exchange. The pair is stored exactly as a password
// login would store it.
func (s *Session) SaveTokens(body []byte) error {
	return s.persistTokens(body)
}

func (s *Session) persistTokens(body []byte) error {
	parsed := gjson.ParseBytes(body)
	pair := &TokenPair{
		AccessToken:  parsed.Get("access_token").String(),
		RefreshToken: parsed.Get("refresh_token").String(),
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("login response carried no token pair")
	}
	return s.store.Save(pair)
}

// Logout clears the local session and revokes the refresh token remotely.
// Local state is cleared before the revoke call on purpose: a network failure
// must not leave stale credentials behind. The remote result (message or
// error) is still surfaced to the caller.
func (s *Session) Logout(ctx context.Context) (string, error) {
	pair, err := s.store.Load()
	if err != nil {
		return "", err
	}
	if pair.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	if err = s.store.Clear(); err != nil {
		return "", err
	}

	body, err := s.client.Do(ctx, http.MethodDelete, logoutEndpoint, nil, pair.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("local session cleared, but remote logout failed: %w", err)
	}
	return gjson.GetBytes(body, "msg").String(), nil
}
