package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skyforge-project/skyforge-cli/internal/client"
	"github.com/skyforge-project/skyforge-cli/internal/config"
)

// recordedRequest is one request the fake server saw.
type recordedRequest struct {
	method   string
	path     string
	bearer   string
	hadToken bool
}

// fakeServer records requests and answers from a path-keyed table.
type fakeServer struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			method:   r.Method,
			path:     r.URL.Path,
			bearer:   bearer,
			hadToken: r.Header.Get("Authorization") != "",
		})
		f.mu.Unlock()

		if respond, ok := f.responses[r.Method+" "+r.URL.Path]; ok {
			respond(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"msg":"not found"}`))
	})
}

func (f *fakeServer) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func jsonResponse(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newTestSession(t *testing.T, fake *fakeServer) (*Session, *Store) {
	t.Helper()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	c, err := client.New(&config.Config{Host: ts.URL, Verify: "true"})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	store := NewStore(filepath.Join(t.TempDir(), "default_tokens.json"))
	return NewSession(c, store), store
}

func TestSessionDoRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	fresh := expiringToken(t, time.Now().Add(time.Hour))
	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"POST /v1/auth/token/refresh": jsonResponse(`{"access_token":"` + fresh + `"}`),
		"GET /v1/jobs/":               jsonResponse(`{"jobs":[]}`),
	}}
	session, store := newTestSession(t, fake)

	refresh := expiringToken(t, time.Now().Add(30*24*time.Hour))
	stale := expiringToken(t, time.Now().Add(-time.Hour))
	if err := store.Save(&TokenPair{AccessToken: stale, RefreshToken: refresh}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := session.Do(context.Background(), http.MethodGet, "/v1/jobs/", nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	reqs := fake.recorded()
	if len(reqs) != 2 {
		t.Fatalf("server saw %d requests, want 2 (refresh then target)", len(reqs))
	}
	if reqs[0].path != "/v1/auth/token/refresh" || reqs[0].bearer != refresh {
		t.Errorf("first request = %s with bearer %q, want refresh call with refresh token", reqs[0].path, reqs[0].bearer)
	}
	if reqs[1].path != "/v1/jobs/" || reqs[1].bearer != fresh {
		t.Errorf("second request = %s with bearer %q, want target call with fresh token", reqs[1].path, reqs[1].bearer)
	}

	pair, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pair.AccessToken != fresh {
		t.Error("token file does not hold the refreshed access token")
	}
	if pair.RefreshToken != refresh {
		t.Error("refresh token changed across a refresh, want it untouched")
	}
}

func TestSessionDoFreshTokenSkipsRefresh(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"GET /v1/jobs/": jsonResponse(`{"jobs":[]}`),
	}}
	session, store := newTestSession(t, fake)

	access := expiringToken(t, time.Now().Add(time.Hour))
	if err := store.Save(&TokenPair{AccessToken: access, RefreshToken: "r.r.r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := session.Do(context.Background(), http.MethodGet, "/v1/jobs/", nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	reqs := fake.recorded()
	if len(reqs) != 1 {
		t.Fatalf("server saw %d requests, want exactly 1", len(reqs))
	}
	if reqs[0].bearer != access {
		t.Errorf("bearer = %q, want the stored access token", reqs[0].bearer)
	}
}

func TestSessionDoWithoutCredentials(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){}}
	session, _ := newTestSession(t, fake)

	_, err := session.Do(context.Background(), http.MethodGet, "/v1/jobs/", nil)
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("Do() error = %v, want ErrNoCredentials", err)
	}
	if n := len(fake.recorded()); n != 0 {
		t.Errorf("server saw %d requests, want none without credentials", n)
	}
}

func TestSessionLoginPersistsPair(t *testing.T) {
	t.Parallel()

	access := expiringToken(t, time.Now().Add(time.Hour))
	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"POST /v1/auth/login": jsonResponse(`{"access_token":"` + access + `","refresh_token":"refresh.b.b"}`),
		"GET /v1/jobs/":       jsonResponse(`{"jobs":[]}`),
	}}
	session, store := newTestSession(t, fake)

	if err := session.Login(context.Background(), "dev@example.com", "secret", false); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	pair, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pair.AccessToken != access || pair.RefreshToken != "refresh.b.b" {
		t.Errorf("stored pair = %+v, want login response tokens", pair)
	}

	// End to end: the fresh login must carry the next call without another
	// refresh round trip.
	if _, err = session.Do(context.Background(), http.MethodGet, "/v1/jobs/", nil); err != nil {
		t.Fatalf("Do() after login error = %v", err)
	}
	if n := len(fake.recorded()); n != 2 {
		t.Errorf("server saw %d requests, want 2 (login then target)", n)
	}

	if reqs := fake.recorded(); reqs[0].hadToken {
		t.Error("login request carried an Authorization header, want none")
	}
}

func TestSessionLoginRejectsPartialPair(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"POST /v1/auth/login": jsonResponse(`{"access_token":"only.a.a"}`),
	}}
	session, store := newTestSession(t, fake)

	if err := session.Login(context.Background(), "dev@example.com", "secret", false); err == nil {
		t.Fatal("Login() with partial pair = nil, want error")
	}
	pair, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pair.AccessToken != "" || pair.RefreshToken != "" {
		t.Errorf("partial login persisted %+v, want nothing stored", pair)
	}
}

func TestSessionLogoutClearsBeforeRevoke(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"DELETE /v1/auth/logout": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"msg":"revoke failed"}`))
		},
	}}
	session, store := newTestSession(t, fake)

	if err := store.Save(&TokenPair{AccessToken: "a.a.a", RefreshToken: "r.r.r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err := session.Logout(context.Background())
	if err == nil {
		t.Fatal("Logout() with failing revoke = nil, want error")
	}
	if !strings.Contains(err.Error(), "local session cleared") {
		t.Errorf("Logout() error = %q, want note that local state was cleared", err)
	}

	pair, loadErr := store.Load()
	if loadErr != nil {
		t.Fatalf("Load() error = %v", loadErr)
	}
	if pair.AccessToken != "" || pair.RefreshToken != "" {
		t.Errorf("tokens survived a failed remote logout: %+v", pair)
	}

	reqs := fake.recorded()
	if len(reqs) != 1 || reqs[0].bearer != "r.r.r" {
		t.Errorf("revoke call = %+v, want single DELETE with refresh token bearer", reqs)
	}
}

func TestSessionLogoutSuccess(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"DELETE /v1/auth/logout": jsonResponse(`{"msg":"logged out"}`),
	}}
	session, store := newTestSession(t, fake)

	if err := store.Save(&TokenPair{RefreshToken: "r.r.r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	msg, err := session.Logout(context.Background())
	if err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if msg != "logged out" {
		t.Errorf("Logout() msg = %q, want %q", msg, "logged out")
	}
}

func TestSessionLogoutWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){}}
	session, _ := newTestSession(t, fake)

	_, err := session.Logout(context.Background())
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("Logout() error = %v, want ErrNoRefreshToken", err)
	}
	if n := len(fake.recorded()); n != 0 {
		t.Errorf("server saw %d requests, want none", n)
	}
}

func TestSessionForcedRefresh(t *testing.T) {
	t.Parallel()

	fresh := expiringToken(t, time.Now().Add(time.Hour))
	fake := &fakeServer{responses: map[string]func(http.ResponseWriter, *http.Request){
		"POST /v1/auth/token/refresh": jsonResponse(`{"access_token":"` + fresh + `"}`),
	}}
	session, store := newTestSession(t, fake)

	// Current access token is nowhere near expiry; Refresh must renew anyway.
	if err := store.Save(&TokenPair{
		AccessToken:  expiringToken(t, time.Now().Add(time.Hour)),
		RefreshToken: "r.r.r",
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	pair, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pair.AccessToken != fresh {
		t.Error("Refresh() did not persist the new access token")
	}
}
