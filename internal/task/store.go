package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/user"
)

// Store provides database operations for tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new task store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool so the service can own transactions.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

const taskColumns = `id, coaching_relationship_id, assigned_by, assigned_to,
	title, description, due_date, status, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	err := row.Scan(
		&t.ID, &t.CoachingRelationshipID, &t.AssignedBy, &t.AssignedTo,
		&t.Title, &t.Description, &t.DueDate, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// scopeColumn maps a caller role to the task column that must match the
// caller id, and the column holding the counterpart.
func scopeColumn(role string) (own, counterpart string, err error) {
	switch role {
	case user.RoleProfessional:
		return "assigned_by", "assigned_to", nil
	case user.RoleParticipant:
		return "assigned_to", "assigned_by", nil
	default:
		return "", "", fmt.Errorf("unknown role %q", role)
	}
}

// ActiveRelationshipParticipant returns the participant of an active
// relationship owned by the professional. Returns pgx.ErrNoRows when the
// relationship is absent, foreign, or not active; callers deliberately
// cannot tell these apart.
func (s *Store) ActiveRelationshipParticipant(ctx context.Context, q storage.Querier, relationshipID, professionalID string) (string, error) {
	var participantID string
	err := q.QueryRow(ctx,
		`SELECT participant_id FROM coaching_relationships
		 WHERE id = $1 AND professional_id = $2 AND status = 'active'`,
		relationshipID, professionalID,
	).Scan(&participantID)
	if err != nil {
		return "", err
	}
	return participantID, nil
}

// Insert creates a pending task and returns the full row.
func (s *Store) Insert(ctx context.Context, q storage.Querier, professionalID, participantID string, in CreateInput) (*Task, error) {
	query := fmt.Sprintf(
		`INSERT INTO tasks (coaching_relationship_id, assigned_by, assigned_to, title, description, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING %s`, taskColumns)

	t, err := scanTask(q.QueryRow(ctx, query,
		in.CoachingRelationshipID, professionalID, participantID,
		in.Title, in.Description, in.DueDate, StatusPending,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return t, nil
}

// MaterializeOverdueScoped relabels every past-due pending or in_progress
// task visible to the caller as overdue. The UPDATE is idempotent:
// concurrent readers racing on the same rows converge on the same state.
// Returns the number of tasks flipped.
func (s *Store) MaterializeOverdueScoped(ctx context.Context, q storage.Querier, userID, role, relationshipID string) (int64, error) {
	own, _, err := scopeColumn(role)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(
		`UPDATE tasks SET status = 'overdue', updated_at = now()
		 WHERE %s = $1 AND status IN ('pending', 'in_progress')
		   AND due_date IS NOT NULL AND due_date < now()`, own)
	args := []any{userID}
	if relationshipID != "" {
		query += ` AND coaching_relationship_id = $2`
		args = append(args, relationshipID)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("materializing overdue tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MaterializeOverdueByID relabels a single past-due task as overdue.
// Returns true when the row was flipped.
func (s *Store) MaterializeOverdueByID(ctx context.Context, q storage.Querier, id string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE tasks SET status = 'overdue', updated_at = now()
		 WHERE id = $1 AND status IN ('pending', 'in_progress')
		   AND due_date IS NOT NULL AND due_date < now()`, id)
	if err != nil {
		return false, fmt.Errorf("materializing overdue task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const listSelect = `SELECT t.id, t.coaching_relationship_id, t.assigned_by, t.assigned_to,
	t.title, t.description, t.due_date, t.status, t.created_at, t.updated_at,
	u.first_name, u.last_name,
	(SELECT count(*) FROM task_submissions ts WHERE ts.task_id = t.id) AS submission_count
 FROM tasks t
 JOIN users u ON u.id = t.%s`

func scanListItem(row pgx.Row) (*ListItem, error) {
	item := &ListItem{}
	var first, last string
	err := row.Scan(
		&item.ID, &item.CoachingRelationshipID, &item.AssignedBy, &item.AssignedTo,
		&item.Title, &item.Description, &item.DueDate, &item.Status,
		&item.CreatedAt, &item.UpdatedAt,
		&first, &last, &item.SubmissionCount,
	)
	if err != nil {
		return nil, err
	}
	item.CounterpartName = strings.TrimSpace(first + " " + last)
	return item, nil
}

// List returns the caller's tasks ordered by recency, flipping past-due
// rows to overdue in the same transaction so the caller never observes a
// stale working status. Returns the items and the number of rows flipped.
func (s *Store) List(ctx context.Context, userID, role, relationshipID string) ([]*ListItem, int64, error) {
	own, counterpart, err := scopeColumn(role)
	if err != nil {
		return nil, 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	flipped, err := s.MaterializeOverdueScoped(ctx, tx, userID, role, relationshipID)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(listSelect, counterpart) + fmt.Sprintf(` WHERE t.%s = $1`, own)
	args := []any{userID}
	if relationshipID != "" {
		query += ` AND t.coaching_relationship_id = $2`
		args = append(args, relationshipID)
	}
	query += ` ORDER BY t.created_at DESC, t.id DESC`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var items []*ListItem
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning task row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("committing task list: %w", err)
	}
	return items, flipped, nil
}

// GetScoped returns a single task visible to the caller with the same
// lazy-overdue treatment as List. Returns pgx.ErrNoRows when the task is
// absent or not the caller's.
func (s *Store) GetScoped(ctx context.Context, id, userID, role string) (*ListItem, bool, error) {
	own, counterpart, err := scopeColumn(role)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	flipped, err := s.MaterializeOverdueByID(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf(listSelect, counterpart) + fmt.Sprintf(` WHERE t.id = $1 AND t.%s = $2`, own)
	item, err := scanListItem(tx.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing task read: %w", err)
	}
	return item, flipped, nil
}

// GetForUpdate locks and returns a task visible to the caller inside the
// given transaction.
func (s *Store) GetForUpdate(ctx context.Context, q storage.Querier, id, userID, role string) (*Task, error) {
	own, _, err := scopeColumn(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1 AND %s = $2 FOR UPDATE`, taskColumns, own)
	return scanTask(q.QueryRow(ctx, query, id, userID))
}

// UpdateFields applies a partial update and returns the updated row.
func (s *Store) UpdateFields(ctx context.Context, q storage.Querier, id string, in UpdateInput) (*Task, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if in.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *in.Title)
		argIdx++
	}
	if in.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *in.Description)
		argIdx++
	}
	if in.DueDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("due_date = $%d", argIdx))
		args = append(args, *in.DueDate)
		argIdx++
	}
	if in.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *in.Status)
		argIdx++
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, taskColumns,
	)

	t, err := scanTask(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return t, nil
}

// Delete hard-deletes a task owned by the professional; submissions go
// with it via the foreign key cascade. Returns the number of rows removed.
func (s *Store) Delete(ctx context.Context, id, professionalID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND assigned_by = $2`, id, professionalID)
	if err != nil {
		return 0, fmt.Errorf("deleting task: %w", err)
	}
	return tag.RowsAffected(), nil
}
