package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campusboard-api/internal/application/messaging"
	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/pkg/validate"
	"github.com/campusboard-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// MessagingHandler handles chat requests, conversations and messages.
type MessagingHandler struct {
	svc messaging.Service
}

func NewMessagingHandler(svc messaging.Service) *MessagingHandler {
	return &MessagingHandler{svc: svc}
}

// ChatRequestsEnvelope groups a user's requests by direction.
type ChatRequestsEnvelope struct {
	Incoming []domain.ChatRequest `json:"incoming"`
	Outgoing []domain.ChatRequest `json:"outgoing"`
}

// RespondEnvelope carries the decided request and, on approval, the new
// conversation.
type RespondEnvelope struct {
	Request      *domain.ChatRequest  `json:"request"`
	Conversation *domain.Conversation `json:"conversation,omitempty"`
}

func (h *MessagingHandler) RequestChat(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.ChatRequestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cr, err := h.svc.RequestChat(r.Context(), chi.URLParam(r, "id"), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cr)
}

func (h *MessagingHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	incoming, outgoing, err := h.svc.ListRequests(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatRequestsEnvelope{Incoming: incoming, Outgoing: outgoing})
}

// Respond approves or rejects a pending chat request. The action comes from
// the URL: /chat-requests/{id}/approve or /chat-requests/{id}/reject.
func (h *MessagingHandler) Respond(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	action := chi.URLParam(r, "action")
	if action != "approve" && action != "reject" {
		writeError(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}
	cr, conv, err := h.svc.Respond(r.Context(), chi.URLParam(r, "id"), claims.UserID, action == "approve")
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RespondEnvelope{Request: cr, Conversation: conv})
}

func (h *MessagingHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	convs, err := h.svc.ListConversations(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *MessagingHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	msgs, err := h.svc.ListMessages(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessagingHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.SendMessage(r.Context(), chi.URLParam(r, "id"), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessagingHandler) ListAllConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.svc.ListAllConversations(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *MessagingHandler) DeactivateConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeactivateConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "conversation deactivated"})
}

// FlagMessage marks or clears a moderation flag: {"flagged": true|false}.
func (h *MessagingHandler) FlagMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flagged *bool `json:"flagged"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Flagged == nil {
		writeError(w, http.StatusBadRequest, "flagged required")
		return
	}
	m, err := h.svc.FlagMessage(r.Context(), chi.URLParam(r, "id"), *req.Flagged)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
