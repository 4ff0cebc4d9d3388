// Package authapi exposes Rollcall's authentication and session endpoints
// over HTTP: credential login, logout, current-user introspection, and
// per-device session management.
//
// Tokens travel either as an Authorization bearer header (API clients) or
// as an HttpOnly cookie (the web UI). The header wins when both are
// present.
package authapi
