package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusboard-api/internal/application/verification"
	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/pkg/validate"
	"github.com/campusboard-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// VerificationHandler drives the contact verification flow and the admin
// identity-review endpoint.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req := domain.StartVerificationRequest{Channel: chi.URLParam(r, "channel")}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, err := h.svc.Start(r.Context(), claims.UserID, req)
	writeIssueResult(w, token, err)
}

func (h *VerificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, err := h.svc.Resend(r.Context(), req)
	writeIssueResult(w, token, err)
}

// writeIssueResult renders the outcome of a code issuance. A delivery
// problem is reported together with the continuation token: the code is
// stored and redeemable, only the send failed.
func writeIssueResult(w http.ResponseWriter, token string, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, VerificationEnvelope{Token: token, Delivered: true, Message: "code sent"})
		return
	}
	if token != "" && (errors.Is(err, domain.ErrDeliveryFailed) || errors.Is(err, domain.ErrSMSNotConfigured)) {
		writeJSON(w, http.StatusAccepted, VerificationEnvelope{
			Token:     token,
			Delivered: false,
			Error:     err.Error(),
		})
		return
	}
	httpError(w, err)
}

func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Submit(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verified"})
}

// Review is the admin decision on a user's identity document.
func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req domain.SetVerificationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.Review(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
