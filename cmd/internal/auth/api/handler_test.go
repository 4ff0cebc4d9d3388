package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/auth/session"
	"rollcall/cmd/security/password"
)

func newTestHandler(t *testing.T) (*Handler, *http.ServeMux, *identity.MemoryStore) {
	t.Helper()

	sessCfg := session.DefaultConfig()
	sessCfg.SecretKey = []byte(strings.Repeat("k", 32))
	sessCfg.TokenTTL = time.Hour
	sessCfg.MaxDevicesPerUser = 2

	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	users := identity.NewMemoryStore()
	svc := session.NewService(sessCfg, users, session.NewMemoryStore(), tokens, password.Config{Cost: bcrypt.MinCost})

	h, err := NewHandler(slog.New(slog.DiscardHandler), LoadConfigFromEnv(), svc)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	return h, mux, users
}

func seedUser(t *testing.T, users *identity.MemoryStore, username, plain string) identity.User {
	t.Helper()

	hash, err := password.Config{Cost: bcrypt.MinCost}.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := users.Create(context.Background(), identity.CreateUserInput{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func doLogin(t *testing.T, mux *http.ServeMux, username, pass string) *httptest.ResponseRecorder {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, pass)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, mux *http.ServeMux, username, pass string) string {
	t.Helper()

	rec := doLogin(t, mux, username, pass)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func TestHandler_LoginSuccess(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")

	rec := doLogin(t, mux, "alice", "pw123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.User.Username != "alice" || resp.SessionID == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	var sess *http.Cookie
	for _, c := range cookies {
		if c.Name == "session" {
			sess = c
		}
	}
	if sess == nil {
		t.Fatalf("session cookie not set")
	}
	if sess.Value != resp.Token || !sess.HttpOnly || sess.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attrs: %+v", sess)
	}
}

func TestHandler_LoginInvalidCredentials(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")

	rec := doLogin(t, mux, "alice", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_credentials") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHandler_LoginSessionLimit(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")

	loginToken(t, mux, "alice", "pw123")
	loginToken(t, mux, "alice", "pw123")

	rec := doLogin(t, mux, "alice", "pw123")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "session_limit_exceeded") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHandler_LoginRejectsBadPayloads(t *testing.T) {
	_, mux, _ := newTestHandler(t)

	for name, body := range map[string]string{
		"not json":       "not json",
		"unknown field":  `{"username":"a","password":"b","extra":1}`,
		"empty username": `{"username":"","password":"b"}`,
		"empty password": `{"username":"a","password":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}
}

func TestHandler_LoginRejectsOversizedBody(t *testing.T) {
	_, mux, _ := newTestHandler(t)

	body := `{"username":"alice","password":"` + strings.Repeat("x", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if !strings.Contains(rec.Body.String(), "request_too_large") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHandler_MeBearerAndCookie(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")
	token := loginToken(t, mux, "alice", "pw123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer: status = %d body %s", rec.Code, rec.Body.String())
	}

	// Cookie transport, with and without a stored "Bearer " prefix.
	for _, value := range []string{token, "Bearer " + token} {
		req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: value})
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("cookie %q: status = %d", value, rec.Code)
		}
	}
}

func TestHandler_MeUnauthenticated(t *testing.T) {
	_, mux, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}
}

func TestHandler_LogoutInvalidatesAndClearsCookie(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")
	token := loginToken(t, mux, "alice", "pw123")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: status = %d", rec.Code)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("session cookie not cleared")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status = %d", rec.Code)
	}
}

func TestHandler_SessionsListMarksCurrent(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")
	first := loginToken(t, mux, "alice", "pw123")
	loginToken(t, mux, "alice", "pw123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+first)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var resp sessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sessions) != 2 {
		t.Fatalf("len = %d", len(resp.Sessions))
	}
	currents := 0
	for _, s := range resp.Sessions {
		if s.Current {
			currents++
		}
	}
	if currents != 1 {
		t.Fatalf("current sessions = %d, want 1", currents)
	}
}

func TestHandler_RevokeSession(t *testing.T) {
	_, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")
	keeper := loginToken(t, mux, "alice", "pw123")
	victim := loginToken(t, mux, "alice", "pw123")

	// Find the victim session's id.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+victim)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var listed sessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var victimID int64
	for _, s := range listed.Sessions {
		if s.Current {
			victimID = s.ID
		}
	}
	if victimID == 0 {
		t.Fatalf("victim session not found")
	}

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/sessions/%d", victimID), nil)
	req.Header.Set("Authorization", "Bearer "+keeper)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("revoke: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+victim)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("victim after revoke: status = %d", rec.Code)
	}

	// Revoking again reports not found.
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/sessions/%d", victimID), nil)
	req.Header.Set("Authorization", "Bearer "+keeper)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double revoke: status = %d", rec.Code)
	}
}

func TestHandler_RequireUserMiddleware(t *testing.T) {
	h, mux, users := newTestHandler(t)
	seedUser(t, users, "alice", "pw123")
	token := loginToken(t, mux, "alice", "pw123")

	var gotUser identity.User
	protected := h.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser.Username != "alice" {
		t.Fatalf("user = %+v", gotUser)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", rec.Code)
	}
}

func TestSummarizeUserAgent(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{"", "Unknown device"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "Chrome on macOS"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0", "Firefox on Windows"},
		{"curl/8.4.0", "curl"},
	}
	for _, tc := range cases {
		if got := summarizeUserAgent(tc.ua); got != tc.want {
			t.Fatalf("summarizeUserAgent(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}
