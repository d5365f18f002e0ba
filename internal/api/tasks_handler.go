package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/task"
	"github.com/mhutchins/coachwork/internal/user"
)

// tasksHandler groups task HTTP handlers.
type tasksHandler struct {
	service *task.Service
}

func newTasksHandler(svc *task.Service) *tasksHandler {
	return &tasksHandler{service: svc}
}

// CreateTask handles POST /api/v1/tasks. Professionals only.
func (h *tasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleProfessional {
		writeServiceError(w, apperror.Authorization("only professionals can create tasks"), "")
		return
	}

	var in task.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	t, err := h.service.Create(r.Context(), id.UserID, in)
	if err != nil {
		writeServiceError(w, err, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// ListTasks handles GET /api/v1/tasks?relationship_id=...
func (h *tasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	relFilter := r.URL.Query().Get("relationship_id")

	items, err := h.service.List(r.Context(), id.UserID, id.Role, relFilter)
	if err != nil {
		writeServiceError(w, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *tasksHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	item, err := h.service.Get(r.Context(), taskID, id.UserID, id.Role)
	if err != nil {
		writeServiceError(w, err, "failed to get task")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// UpdateTask handles PUT /api/v1/tasks/{id}.
func (h *tasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	var in task.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	t, err := h.service.Update(r.Context(), taskID, id.UserID, id.Role, in)
	if err != nil {
		writeServiceError(w, err, "failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}. Professionals only.
func (h *tasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	if id.Role != user.RoleProfessional {
		writeServiceError(w, apperror.Authorization("only professionals can delete tasks"), "")
		return
	}
	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), taskID, id.UserID); err != nil {
		writeServiceError(w, err, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
