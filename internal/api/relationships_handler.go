package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhutchins/coachwork/internal/relationship"
)

// relationshipsHandler groups coaching-relationship HTTP handlers.
type relationshipsHandler struct {
	service *relationship.Service
}

func newRelationshipsHandler(svc *relationship.Service) *relationshipsHandler {
	return &relationshipsHandler{service: svc}
}

type createRelationshipRequest struct {
	ParticipantID string `json:"participant_id"`
	PackageID     string `json:"package_id"`
}

// CreateRelationship handles POST /api/v1/relationships.
func (h *relationshipsHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	var req createRelationshipRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	rel, err := h.service.Create(r.Context(), id.UserID, req.ParticipantID, req.PackageID)
	if err != nil {
		writeServiceError(w, err, "failed to create relationship")
		return
	}

	writeJSON(w, http.StatusCreated, rel)
}

// ListRelationships handles GET /api/v1/relationships.
func (h *relationshipsHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	items, err := h.service.List(r.Context(), id.UserID, id.Role)
	if err != nil {
		writeServiceError(w, err, "failed to list relationships")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// GetRelationship handles GET /api/v1/relationships/{id}.
func (h *relationshipsHandler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	relID := chi.URLParam(r, "id")

	item, err := h.service.Get(r.Context(), relID, id.UserID, id.Role)
	if err != nil {
		writeServiceError(w, err, "failed to get relationship")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

type updateRelationshipRequest struct {
	Status string `json:"status"`
}

// UpdateRelationshipStatus handles PUT /api/v1/relationships/{id}/status.
func (h *relationshipsHandler) UpdateRelationshipStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	relID := chi.URLParam(r, "id")

	var req updateRelationshipRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	rel, err := h.service.UpdateStatus(r.Context(), relID, id.UserID, id.Role, req.Status)
	if err != nil {
		writeServiceError(w, err, "failed to update relationship status")
		return
	}

	writeJSON(w, http.StatusOK, rel)
}
