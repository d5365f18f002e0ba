package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/invitation"
	"github.com/mhutchins/coachwork/internal/user"
)

// invitationsHandler groups invitation HTTP handlers. Send, list and
// cancel require an authenticated professional; the token routes are
// public, addressed by the unguessable token itself.
type invitationsHandler struct {
	service *invitation.Service
}

func newInvitationsHandler(svc *invitation.Service) *invitationsHandler {
	return &invitationsHandler{service: svc}
}

type sendInvitationRequest struct {
	Email     string  `json:"email"`
	PackageID *string `json:"package_id,omitempty"`
}

// SendInvitation handles POST /api/v1/invitations.
func (h *invitationsHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleProfessional {
		writeServiceError(w, apperror.Authorization("only professionals can send invitations"), "")
		return
	}

	var req sendInvitationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	inv, err := h.service.Send(r.Context(), id.UserID, req.Email, req.PackageID)
	if err != nil {
		writeServiceError(w, err, "failed to send invitation")
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

// ListInvitations handles GET /api/v1/invitations?status=...
func (h *invitationsHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleProfessional {
		writeServiceError(w, apperror.Authorization("only professionals can list invitations"), "")
		return
	}

	invs, err := h.service.List(r.Context(), id.UserID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err, "failed to list invitations")
		return
	}

	writeJSON(w, http.StatusOK, invs)
}

// CancelInvitation handles DELETE /api/v1/invitations/{id}.
func (h *invitationsHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleProfessional {
		writeServiceError(w, apperror.Authorization("only professionals can cancel invitations"), "")
		return
	}
	invID := chi.URLParam(r, "id")

	if err := h.service.Cancel(r.Context(), invID, id.UserID); err != nil {
		writeServiceError(w, err, "failed to cancel invitation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetInvitationByToken handles GET /invitations/accept?token=...
// (public). Returns the redacted view used to render the acceptance
// form.
func (h *invitationsHandler) GetInvitationByToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "invalid_token", "token is required")
		return
	}

	view, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, err, "failed to look up invitation")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
	invitation.AcceptInput
}

// AcceptInvitation handles POST /invitations/accept (public).
func (h *invitationsHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req acceptInvitationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_token", "token is required")
		return
	}

	newUser, err := h.service.Accept(r.Context(), req.Token, req.AcceptInput)
	if err != nil {
		writeServiceError(w, err, "failed to accept invitation")
		return
	}

	writeJSON(w, http.StatusCreated, newUser)
}
