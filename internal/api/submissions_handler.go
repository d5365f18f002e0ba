package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/submission"
	"github.com/mhutchins/coachwork/internal/user"
)

// submissionsHandler groups submission and review HTTP handlers.
type submissionsHandler struct {
	service *submission.Service
}

func newSubmissionsHandler(svc *submission.Service) *submissionsHandler {
	return &submissionsHandler{service: svc}
}

// SubmitTask handles POST /api/v1/tasks/{id}/submissions. Participants only.
func (h *submissionsHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleParticipant {
		writeServiceError(w, apperror.Authorization("only participants can submit work"), "")
		return
	}
	taskID := chi.URLParam(r, "id")

	var in submission.SubmitInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	sub, err := h.service.Submit(r.Context(), taskID, id.UserID, in)
	if err != nil {
		writeServiceError(w, err, "failed to submit task")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// ListSubmissions handles GET /api/v1/tasks/{id}/submissions.
func (h *submissionsHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	subs, err := h.service.List(r.Context(), taskID, id.UserID, id.Role)
	if err != nil {
		writeServiceError(w, err, "failed to list submissions")
		return
	}

	writeJSON(w, http.StatusOK, subs)
}

// ReviewSubmission handles PUT /api/v1/submissions/{id}/review.
// Professionals only.
func (h *submissionsHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleProfessional {
		writeServiceError(w, apperror.Authorization("only professionals can review submissions"), "")
		return
	}
	subID := chi.URLParam(r, "id")

	var in submission.ReviewInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	sub, err := h.service.Review(r.Context(), subID, id.UserID, in)
	if err != nil {
		writeServiceError(w, err, "failed to review submission")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}
