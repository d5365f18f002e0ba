package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/invitation"
	"github.com/mhutchins/coachwork/internal/metrics"
	"github.com/mhutchins/coachwork/internal/relationship"
	"github.com/mhutchins/coachwork/internal/submission"
	"github.com/mhutchins/coachwork/internal/task"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Relationships *relationship.Service
	Tasks         *task.Service
	Submissions   *submission.Service
	Invitations   *invitation.Service
	Pool          *pgxpool.Pool
	Metrics       *metrics.Metrics
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// Handlers.
	relationships := newRelationshipsHandler(deps.Relationships)
	tasks := newTasksHandler(deps.Tasks)
	submissions := newSubmissionsHandler(deps.Submissions)
	invitations := newInvitationsHandler(deps.Invitations)

	// Health check with a DB round-trip.
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.Pool != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Pool.Ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler())
	}

	// Public token routes: the token itself is the credential.
	r.Get("/invitations/accept", invitations.GetInvitationByToken)
	r.Post("/invitations/accept", invitations.AcceptInvitation)

	// Authenticated routes: identity forwarded by the upstream gateway.
	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(requireIdentity)

		ar.Post("/relationships", relationships.CreateRelationship)
		ar.Get("/relationships", relationships.ListRelationships)
		ar.Get("/relationships/{id}", relationships.GetRelationship)
		ar.Put("/relationships/{id}/status", relationships.UpdateRelationshipStatus)

		ar.Post("/tasks", tasks.CreateTask)
		ar.Get("/tasks", tasks.ListTasks)
		ar.Get("/tasks/{id}", tasks.GetTask)
		ar.Put("/tasks/{id}", tasks.UpdateTask)
		ar.Delete("/tasks/{id}", tasks.DeleteTask)

		ar.Post("/tasks/{id}/submissions", submissions.SubmitTask)
		ar.Get("/tasks/{id}/submissions", submissions.ListSubmissions)
		ar.Put("/submissions/{id}/review", submissions.ReviewSubmission)

		ar.Post("/invitations", invitations.SendInvitation)
		ar.Get("/invitations", invitations.ListInvitations)
		ar.Delete("/invitations/{id}", invitations.CancelInvitation)
	})

	return r
}
