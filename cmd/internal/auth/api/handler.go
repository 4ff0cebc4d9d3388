package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/auth/session"
)

// Handler wires the HTTP auth endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}
	return &Handler{log: log, cfg: cfg, sessions: sessions}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/v1/auth/login", h.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/v1/auth/me", h.handleMe)
	mux.HandleFunc("/api/v1/sessions", h.handleSessions)
	mux.HandleFunc("/api/v1/sessions/", h.handleSessionByID)
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		failDecode(w, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	dev := h.deviceFromRequest(r, req.DeviceName)

	issued, err := h.sessions.Login(ctx, now, username, req.Password, dev)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			loginsTotal.WithLabelValues("invalid_credentials").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		case errors.Is(err, session.ErrSessionLimit):
			loginsTotal.WithLabelValues("session_limit").Inc()
			writeError(w, http.StatusConflict, "session_limit_exceeded", "maximum number of devices reached; log out another device first")
		default:
			loginsTotal.WithLabelValues("error").Inc()
			h.log.Error("auth.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	loginsTotal.WithLabelValues("success").Inc()
	h.log.Info("auth.login.ok",
		"user_id", issued.User.ID,
		"session_id", issued.Session.ID,
		"device", issued.Session.DeviceName,
	)

	h.setSessionCookie(w, r, issued.Token, issued.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		User:      toUserResponse(issued.User),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		SessionID: issued.Session.ID,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Logout is deliberately lenient: an absent or already-deleted token
	// still clears the cookie and reports success.
	if err := h.sessions.Logout(r.Context(), h.tokenFromRequest(r)); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	logoutsTotal.Inc()
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(user)})
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	rows, err := h.sessions.ListSessions(r.Context(), user.ID)
	if err != nil {
		h.log.Error("auth.sessions.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	current := h.tokenFromRequest(r)
	out := make([]sessionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSessionResponse(row, current))
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: out})
}

func (h *Handler) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	idRaw := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid session id")
		return
	}

	if err := h.sessions.RevokeSession(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.log.Error("auth.sessions.revoke.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	sessionRevocationsTotal.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// authenticate runs the auth gate for endpoints handled inside this
// package. Route groups outside it use RequireUser instead.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	user, err := h.sessions.Authenticate(r.Context(), time.Now().UTC(), h.tokenFromRequest(r))
	if err != nil {
		if errors.Is(err, session.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return identity.User{}, false
		}
		h.log.Error("auth.gate.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return identity.User{}, false
	}
	return user, true
}
