package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/auth/session"
)

type ctxKey int

const userKey ctxKey = iota

// UserFrom returns the authenticated user stored by RequireUser or
// OptionalUser, if any.
func UserFrom(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userKey).(identity.User)
	return u, ok
}

// WithUser returns a context carrying the given user, as RequireUser
// would. Intended for handler tests.
func WithUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// RequireUser is middleware that runs the full auth gate: token extraction,
// verification, user lookup, session ledger check and last-seen touch.
// Requests that fail any step get 401 and never reach next.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.tokenFromRequest(r)
		user, err := h.sessions.Authenticate(r.Context(), time.Now().UTC(), token)
		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}
			h.log.Error("auth.gate.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// OptionalUser is middleware that attaches the user when a valid token is
// present but never rejects the request.
func (h *Handler) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.tokenFromRequest(r)
		if user, ok := h.sessions.AuthenticateOptional(r.Context(), time.Now().UTC(), token); ok {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}
