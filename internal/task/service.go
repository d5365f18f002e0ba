package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/audit"
	"github.com/mhutchins/coachwork/internal/metrics"
	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/user"
)

// Service implements the task lifecycle engine.
type Service struct {
	pool     *pgxpool.Pool
	store    *Store
	recorder *audit.Recorder
	metrics  *metrics.Metrics
}

// NewService creates a task service. recorder and m may be nil in tests.
func NewService(pool *pgxpool.Pool, store *Store, recorder *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{pool: pool, store: store, recorder: recorder, metrics: m}
}

// Create assigns a new task within an active relationship owned by the
// professional. "Not yours", "not active" and "does not exist" are one
// NotFound by design so a professional cannot probe other professionals'
// relationships.
func (s *Service) Create(ctx context.Context, professionalID string, in CreateInput) (*Task, error) {
	if in.CoachingRelationshipID == "" {
		return nil, apperror.Validation("coaching_relationship_id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperror.Validation("title is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	participantID, err := s.store.ActiveRelationshipParticipant(ctx, tx, in.CoachingRelationshipID, professionalID)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("active relationship not found")
		}
		return nil, err
	}

	t, err := s.store.Insert(ctx, tx, professionalID, participantID, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing task creation: %w", err)
	}

	s.metrics.IncTaskTransition(StatusPending)
	s.recorder.Record(audit.Event{
		UserID:       professionalID,
		TargetUserID: participantID,
		EntityType:   audit.EntityTask,
		EntityID:     t.ID,
		ActionType:   audit.ActionCreate,
		Description:  "task assigned: " + t.Title,
	})
	return t, nil
}

// List returns the caller's tasks, optionally filtered to one
// relationship, after materializing overdue states.
func (s *Service) List(ctx context.Context, userID, role, relationshipID string) ([]*ListItem, error) {
	items, flipped, err := s.store.List(ctx, userID, role, relationshipID)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < flipped; i++ {
		s.metrics.IncTaskTransition(StatusOverdue)
	}
	if items == nil {
		items = []*ListItem{}
	}
	return items, nil
}

// Get returns a single task visible to the caller, after materializing
// its overdue state.
func (s *Service) Get(ctx context.Context, id, userID, role string) (*ListItem, error) {
	item, flipped, err := s.store.GetScoped(ctx, id, userID, role)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("task not found")
		}
		return nil, err
	}
	if flipped {
		s.metrics.IncTaskTransition(StatusOverdue)
	}
	return item, nil
}

// Update applies a partial update to a task. Terminal tasks reject every
// change; content fields belong to the assigning professional; status
// writes are limited to the edges documented on CheckStatusChange.
func (s *Service) Update(ctx context.Context, id, userID, role string, in UpdateInput) (*Task, error) {
	if in.Title == nil && in.Description == nil && in.DueDate == nil && in.Status == nil {
		return nil, apperror.Validation("no fields to update")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperror.Validation("title cannot be empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Relabel first so the status checks below see the task as any other
	// read path would.
	flipped, err := s.store.MaterializeOverdueByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetForUpdate(ctx, tx, id, userID, role)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("task not found")
		}
		return nil, err
	}

	if IsTerminal(current.Status) {
		return nil, apperror.Validation("task is %s and cannot be modified", current.Status)
	}

	contentChange := in.Title != nil || in.Description != nil || in.DueDate != nil
	if contentChange && role != user.RoleProfessional {
		return nil, apperror.Authorization("only the assigning professional may edit task details")
	}

	if in.Status != nil {
		if err := CheckStatusChange(current.Status, *in.Status, role); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateFields(ctx, tx, id, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing task update: %w", err)
	}

	if flipped {
		s.metrics.IncTaskTransition(StatusOverdue)
	}
	if in.Status != nil {
		s.metrics.IncTaskTransition(*in.Status)
	}
	s.recorder.Record(audit.Event{
		UserID:      userID,
		EntityType:  audit.EntityTask,
		EntityID:    updated.ID,
		ActionType:  audit.ActionUpdate,
		Description: describeUpdate(in),
	})
	return updated, nil
}

func describeUpdate(in UpdateInput) string {
	if in.Status != nil {
		return "task status set to " + *in.Status
	}
	return "task details updated"
}

// Delete hard-deletes a task the professional assigned, along with its
// submissions.
func (s *Service) Delete(ctx context.Context, id, professionalID string) error {
	n, err := s.store.Delete(ctx, id, professionalID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("task not found")
	}
	s.recorder.Record(audit.Event{
		UserID:      professionalID,
		EntityType:  audit.EntityTask,
		EntityID:    id,
		ActionType:  audit.ActionDelete,
		Description: "task deleted",
	})
	return nil
}
