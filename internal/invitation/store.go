package invitation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/storage"
)

// Store provides database operations for invitations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new invitation store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const invitationColumns = `id, invited_by, package_id, email, token, status,
	expires_at, accepted_at, created_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID, &inv.InvitedBy, &inv.PackageID, &inv.Email, &inv.Token,
		&inv.Status, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ExpireStale flips any pending invitations for the email whose deadline
// has passed. Run before inserting a fresh invitation so a token nobody
// ever redeemed does not trip the one-pending-per-email index.
func (s *Store) ExpireStale(ctx context.Context, q storage.Querier, email string) error {
	_, err := q.Exec(ctx,
		`UPDATE invitations SET status = 'expired'
		 WHERE lower(email) = lower($1) AND status = 'pending' AND expires_at <= now()`, email)
	if err != nil {
		return fmt.Errorf("expiring stale invitations: %w", err)
	}
	return nil
}

// PendingExists reports whether a live invitation already exists for the
// email: status pending and not yet past its deadline. Compared
// case-insensitively.
func (s *Store) PendingExists(ctx context.Context, q storage.Querier, email string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM invitations
			WHERE lower(email) = lower($1) AND status = 'pending' AND expires_at > now()
		)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking pending invitation: %w", err)
	}
	return exists, nil
}

// Insert creates a pending invitation with the given token and deadline.
func (s *Store) Insert(ctx context.Context, q storage.Querier, invitedBy, email, token string, packageID *string, expiresAt time.Time) (*Invitation, error) {
	query := fmt.Sprintf(
		`INSERT INTO invitations (invited_by, package_id, email, token, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING %s`, invitationColumns)

	inv, err := scanInvitation(q.QueryRow(ctx, query,
		invitedBy, packageID, email, token, StatusPending, expiresAt,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting invitation: %w", err)
	}
	return inv, nil
}

// GetByToken retrieves an invitation by its opaque token. Returns
// pgx.ErrNoRows when no such token exists.
func (s *Store) GetByToken(ctx context.Context, q storage.Querier, token string) (*Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE token = $1`, invitationColumns)
	return scanInvitation(q.QueryRow(ctx, query, token))
}

// GetByTokenForUpdate locks the invitation row for the acceptance
// transaction.
func (s *Store) GetByTokenForUpdate(ctx context.Context, q storage.Querier, token string) (*Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE token = $1 FOR UPDATE`, invitationColumns)
	return scanInvitation(q.QueryRow(ctx, query, token))
}

// MarkExpired flips a pending invitation past its deadline to expired.
// A no-op when a concurrent reader already flipped it.
func (s *Store) MarkExpired(ctx context.Context, q storage.Querier, id string) error {
	_, err := q.Exec(ctx,
		`UPDATE invitations SET status = 'expired' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("marking invitation expired: %w", err)
	}
	return nil
}

// MarkAccepted conditionally flips a pending invitation to accepted.
// Returns false when the row was no longer pending.
func (s *Store) MarkAccepted(ctx context.Context, q storage.Querier, id string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE invitations SET status = 'accepted', accepted_at = now()
		 WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("marking invitation accepted: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns the professional's invitations, newest first, optionally
// filtered by status.
func (s *Store) List(ctx context.Context, invitedBy, statusFilter string) ([]*Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE invited_by = $1`, invitationColumns)
	args := []any{invitedBy}
	if statusFilter != "" {
		query += ` AND status = $2`
		args = append(args, statusFilter)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	var invs []*Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation row: %w", err)
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// Cancel conditionally cancels a pending invitation owned by the
// professional. A single conditional update so it cannot race a
// concurrent acceptance. Returns false when nothing matched.
func (s *Store) Cancel(ctx context.Context, id, invitedBy string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invitations SET status = 'cancelled'
		 WHERE id = $1 AND invited_by = $2 AND status = 'pending'`, id, invitedBy)
	if err != nil {
		return false, fmt.Errorf("cancelling invitation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// StatusScoped returns the status of an invitation owned by the
// professional, for distinguishing terminal rows from absent ones.
func (s *Store) StatusScoped(ctx context.Context, id, invitedBy string) (string, error) {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM invitations WHERE id = $1 AND invited_by = $2`, id, invitedBy,
	).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}
