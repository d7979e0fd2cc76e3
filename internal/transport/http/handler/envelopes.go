package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campusboard-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login/refresh responses.
type AuthEnvelope struct {
	Bearer       string          `json:"Bearer,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	Message      string          `json:"message,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// VerificationEnvelope wraps code-issuance responses. Delivered is false when
// the code was stored but could not be sent.
type VerificationEnvelope struct {
	Token     string `json:"token,omitempty"`
	Delivered bool   `json:"delivered"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PageEnvelope wraps cursor-paginated list responses.
type PageEnvelope struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NotificationsEnvelope wraps notification lists with the unread counter.
type NotificationsEnvelope struct {
	Data   []domain.Notification `json:"data"`
	Unread int                   `json:"unread"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
