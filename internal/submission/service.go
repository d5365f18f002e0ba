package submission

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/audit"
	"github.com/mhutchins/coachwork/internal/metrics"
	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/task"
	"github.com/mhutchins/coachwork/internal/user"
)

// Service implements the submission and review pipeline. Submitting work
// and reviewing it each pair a submission write with the parent task's
// status change in one transaction.
type Service struct {
	pool     *pgxpool.Pool
	store    *Store
	recorder *audit.Recorder
	metrics  *metrics.Metrics
}

// NewService creates a submission service. recorder and m may be nil in
// tests.
func NewService(pool *pgxpool.Pool, store *Store, recorder *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{pool: pool, store: store, recorder: recorder, metrics: m}
}

// Submit records the participant's work against a task and moves the task
// to submitted. The task must be assigned to the caller and not terminal;
// submitting from the submitted state is allowed and supersedes the prior
// attempt for review purposes.
func (s *Service) Submit(ctx context.Context, taskID, participantID string, in SubmitInput) (*Submission, error) {
	if !in.HasContent() {
		return nil, apperror.Validation("submission text or attachment URL is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.store.LockTaskForSubmission(ctx, tx, taskID, participantID)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("task not found")
		}
		return nil, err
	}
	if task.IsTerminal(locked.Status) {
		return nil, apperror.Validation("task is %s and no longer accepts submissions", locked.Status)
	}

	sub, err := s.store.Insert(ctx, tx, taskID, participantID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetTaskStatus(ctx, tx, taskID, task.StatusSubmitted); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing submission: %w", err)
	}

	s.metrics.IncSubmission()
	s.metrics.IncTaskTransition(task.StatusSubmitted)
	s.recorder.Record(audit.Event{
		UserID:       participantID,
		TargetUserID: locked.AssignedBy,
		EntityType:   audit.EntitySubmission,
		EntityID:     sub.ID,
		ActionType:   audit.ActionSubmit,
		Description:  "work submitted for task",
	})

	return sub, nil
}

// List returns a task's submissions visible to the caller: all of them
// for the assigning professional, only their own for the participant.
func (s *Service) List(ctx context.Context, taskID, userID, role string) ([]*Submission, error) {
	var (
		subs []*Submission
		err  error
	)
	switch role {
	case user.RoleProfessional:
		subs, err = s.store.ListForProfessional(ctx, taskID, userID)
	case user.RoleParticipant:
		subs, err = s.store.ListForParticipant(ctx, taskID, userID)
	default:
		return nil, apperror.Authorization("unknown role %q", role)
	}
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("task not found")
		}
		return nil, err
	}
	if subs == nil {
		subs = []*Submission{}
	}
	return subs, nil
}

// Review records the professional's verdict on a submission and applies
// its side effect to the parent task: approval completes the task,
// needs_revision sends it back to in_progress, a plain review leaves it
// untouched. An empty status defaults to reviewed.
func (s *Service) Review(ctx context.Context, submissionID, professionalID string, in ReviewInput) (*Submission, error) {
	if in.Status == "" {
		in.Status = StatusReviewed
	}
	if !ValidReviewStatus(in.Status) {
		return nil, apperror.Validation("status must be one of: reviewed, approved, needs_revision")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	r, err := s.store.LockForReview(ctx, tx, submissionID, professionalID)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("submission not found")
		}
		return nil, err
	}
	if r.Submission.Status != StatusSubmitted {
		return nil, apperror.Conflict("submission has already been reviewed")
	}
	if task.IsTerminal(r.TaskStatus) {
		return nil, apperror.Validation("task is %s and its submissions cannot be reviewed", r.TaskStatus)
	}

	sub, err := s.store.UpdateReview(ctx, tx, submissionID, in.Status, in.Feedback, professionalID)
	if err != nil {
		return nil, err
	}

	nextTask, moved := TaskStatusAfterReview(in.Status)
	if moved {
		if err := s.store.SetTaskStatus(ctx, tx, r.TaskID, nextTask); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing review: %w", err)
	}

	s.metrics.IncReview(in.Status)
	if moved {
		s.metrics.IncTaskTransition(nextTask)
	}
	s.recorder.Record(audit.Event{
		UserID:       professionalID,
		TargetUserID: r.SubmittedBy,
		EntityType:   audit.EntitySubmission,
		EntityID:     sub.ID,
		ActionType:   audit.ActionReview,
		Description:  "submission marked " + in.Status,
	})

	return sub, nil
}
