package submission

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/storage"
)

// Store provides database operations for task submissions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new submission store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const submissionColumns = `id, task_id, submitted_by, submission_text,
	attachment_url, status, feedback, reviewed_by, reviewed_at, created_at`

func scanSubmission(row pgx.Row) (*Submission, error) {
	sub := &Submission{}
	err := row.Scan(
		&sub.ID, &sub.TaskID, &sub.SubmittedBy, &sub.SubmissionText,
		&sub.AttachmentURL, &sub.Status, &sub.Feedback, &sub.ReviewedBy,
		&sub.ReviewedAt, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SubmittableTask holds the task facts needed to accept a submission.
type SubmittableTask struct {
	Status     string
	AssignedBy string
}

// LockTaskForSubmission locks and returns the task provided it is
// assigned to the participant and its relationship still names them as
// the participant. Returns pgx.ErrNoRows otherwise.
func (s *Store) LockTaskForSubmission(ctx context.Context, q storage.Querier, taskID, participantID string) (*SubmittableTask, error) {
	st := &SubmittableTask{}
	err := q.QueryRow(ctx,
		`SELECT t.status, t.assigned_by
		 FROM tasks t
		 JOIN coaching_relationships r ON r.id = t.coaching_relationship_id
		 WHERE t.id = $1 AND t.assigned_to = $2 AND r.participant_id = $2
		 FOR UPDATE OF t`,
		taskID, participantID,
	).Scan(&st.Status, &st.AssignedBy)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Insert creates a submission row with status=submitted.
func (s *Store) Insert(ctx context.Context, q storage.Querier, taskID, participantID string, in SubmitInput) (*Submission, error) {
	query := fmt.Sprintf(
		`INSERT INTO task_submissions (task_id, submitted_by, submission_text, attachment_url, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING %s`, submissionColumns)

	sub, err := scanSubmission(q.QueryRow(ctx, query,
		taskID, participantID, in.SubmissionText, in.AttachmentURL, StatusSubmitted,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting submission: %w", err)
	}
	return sub, nil
}

// SetTaskStatus writes the parent task's status inside the caller's
// transaction.
func (s *Store) SetTaskStatus(ctx context.Context, q storage.Querier, taskID, status string) error {
	_, err := q.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = now() WHERE id = $2`, status, taskID)
	if err != nil {
		return fmt.Errorf("setting task status: %w", err)
	}
	return nil
}

// ListForProfessional returns every submission for a task the
// professional assigned, newest first. Returns pgx.ErrNoRows when the
// task is absent or foreign.
func (s *Store) ListForProfessional(ctx context.Context, taskID, professionalID string) ([]*Submission, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND assigned_by = $2)`,
		taskID, professionalID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking task ownership: %w", err)
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}

	query := fmt.Sprintf(
		`SELECT %s FROM task_submissions WHERE task_id = $1 ORDER BY created_at DESC, id DESC`,
		submissionColumns)
	return s.list(ctx, query, taskID)
}

// ListForParticipant returns the participant's own submissions for a task
// assigned to them, newest first.
func (s *Store) ListForParticipant(ctx context.Context, taskID, participantID string) ([]*Submission, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND assigned_to = $2)`,
		taskID, participantID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking task assignment: %w", err)
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}

	query := fmt.Sprintf(
		`SELECT %s FROM task_submissions
		 WHERE task_id = $1 AND submitted_by = $2
		 ORDER BY created_at DESC, id DESC`, submissionColumns)
	return s.list(ctx, query, taskID, participantID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Submission, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission row: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Reviewable holds a locked submission plus the parent task facts needed
// to apply a review.
type Reviewable struct {
	Submission  *Submission
	TaskID      string
	TaskStatus  string
	SubmittedBy string
}

// LockForReview locks and returns the submission provided its task was
// assigned by the professional. Returns pgx.ErrNoRows otherwise.
func (s *Store) LockForReview(ctx context.Context, q storage.Querier, submissionID, professionalID string) (*Reviewable, error) {
	query := `SELECT ts.id, ts.task_id, ts.submitted_by, ts.submission_text,
		ts.attachment_url, ts.status, ts.feedback, ts.reviewed_by, ts.reviewed_at,
		ts.created_at, t.status
		 FROM task_submissions ts
		 JOIN tasks t ON t.id = ts.task_id
		 WHERE ts.id = $1 AND t.assigned_by = $2
		 FOR UPDATE OF ts, t`

	r := &Reviewable{Submission: &Submission{}}
	sub := r.Submission
	err := q.QueryRow(ctx, query, submissionID, professionalID).Scan(
		&sub.ID, &sub.TaskID, &sub.SubmittedBy, &sub.SubmissionText,
		&sub.AttachmentURL, &sub.Status, &sub.Feedback, &sub.ReviewedBy,
		&sub.ReviewedAt, &sub.CreatedAt, &r.TaskStatus,
	)
	if err != nil {
		return nil, err
	}
	r.TaskID = sub.TaskID
	r.SubmittedBy = sub.SubmittedBy
	return r, nil
}

// UpdateReview stamps the verdict onto the submission row.
func (s *Store) UpdateReview(ctx context.Context, q storage.Querier, submissionID, status string, feedback *string, reviewedBy string) (*Submission, error) {
	query := fmt.Sprintf(
		`UPDATE task_submissions
		 SET status = $1, feedback = $2, reviewed_by = $3, reviewed_at = now()
		 WHERE id = $4
		 RETURNING %s`, submissionColumns)

	sub, err := scanSubmission(q.QueryRow(ctx, query, status, feedback, reviewedBy, submissionID))
	if err != nil {
		return nil, fmt.Errorf("updating review: %w", err)
	}
	return sub, nil
}
