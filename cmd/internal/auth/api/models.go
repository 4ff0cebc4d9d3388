package authapi

import (
	"time"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/auth/session"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	ID         int64     `json:"id"`
	DeviceName string    `json:"device_name"`
	UserAgent  string    `json:"user_agent,omitempty"`
	IP         string    `json:"ip,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeen   time.Time `json:"last_seen"`
	Current    bool      `json:"current"`
}

type loginResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	SessionID int64        `json:"session_id"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

type sessionListResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toSessionResponse(row session.Row, currentToken string) sessionResponse {
	resp := sessionResponse{
		ID:         row.ID,
		DeviceName: row.DeviceName,
		UserAgent:  row.UserAgent,
		CreatedAt:  row.CreatedAt,
		LastSeen:   row.LastSeen,
		Current:    currentToken != "" && row.Token == currentToken,
	}
	if row.IP != nil {
		resp.IP = row.IP.String()
	}
	return resp
}
