package relationship

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/user"
)

// Store provides database operations for coaching relationships.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new relationship store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const relationshipColumns = `id, professional_id, participant_id, package_id,
	status, started_at, completed_at, created_at`

func scanRelationship(row pgx.Row) (*Relationship, error) {
	r := &Relationship{}
	err := row.Scan(
		&r.ID, &r.ProfessionalID, &r.ParticipantID, &r.PackageID,
		&r.Status, &r.StartedAt, &r.CompletedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// scopeColumn maps a caller role to the column that must match the caller
// id, and the column holding the counterpart.
func scopeColumn(role string) (own, counterpart string, err error) {
	switch role {
	case user.RoleProfessional:
		return "professional_id", "participant_id", nil
	case user.RoleParticipant:
		return "participant_id", "professional_id", nil
	default:
		return "", "", fmt.Errorf("unknown role %q", role)
	}
}

// ActiveExists reports whether an active relationship already exists for
// the exact (professional, participant, package) triple. This pre-check is
// advisory: the partial unique index is the real guarantee under
// concurrent writers.
func (s *Store) ActiveExists(ctx context.Context, q storage.Querier, professionalID, participantID, packageID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM coaching_relationships
			WHERE professional_id = $1 AND participant_id = $2 AND package_id = $3
			  AND status = $4
		)`,
		professionalID, participantID, packageID, StatusActive,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking active relationship: %w", err)
	}
	return exists, nil
}

// Insert creates an active relationship and returns the full row.
func (s *Store) Insert(ctx context.Context, q storage.Querier, professionalID, participantID, packageID string) (*Relationship, error) {
	query := fmt.Sprintf(
		`INSERT INTO coaching_relationships (professional_id, participant_id, package_id, status, started_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING %s`, relationshipColumns)

	r, err := scanRelationship(q.QueryRow(ctx, query, professionalID, participantID, packageID, StatusActive))
	if err != nil {
		return nil, fmt.Errorf("inserting relationship: %w", err)
	}
	return r, nil
}

// InsertIdempotent creates an active relationship unless one already
// exists for the triple, in which case it is a no-op. Used by invitation
// acceptance so a retried accept cannot create duplicates.
func (s *Store) InsertIdempotent(ctx context.Context, q storage.Querier, professionalID, participantID, packageID string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO coaching_relationships (professional_id, participant_id, package_id, status, started_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (professional_id, participant_id, package_id) WHERE status = 'active'
		 DO NOTHING`,
		professionalID, participantID, packageID, StatusActive,
	)
	if err != nil {
		return fmt.Errorf("idempotent relationship insert: %w", err)
	}
	return nil
}

// List returns the caller's relationships ordered by recency, joined with
// the counterpart identity and the package title.
func (s *Store) List(ctx context.Context, userID, role string) ([]*ListItem, error) {
	own, counterpart, err := scopeColumn(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT r.id, r.professional_id, r.participant_id, r.package_id,
		        r.status, r.started_at, r.completed_at, r.created_at,
		        u.id, u.first_name, u.last_name, p.title
		 FROM coaching_relationships r
		 JOIN users u ON u.id = r.%s
		 JOIN packages p ON p.id = r.package_id
		 WHERE r.%s = $1
		 ORDER BY r.started_at DESC, r.id DESC`, counterpart, own)

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	var items []*ListItem
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetScoped returns a single relationship visible to the caller, joined
// the same way as List. Returns pgx.ErrNoRows when the row does not exist
// or does not belong to the caller.
func (s *Store) GetScoped(ctx context.Context, id, userID, role string) (*ListItem, error) {
	own, counterpart, err := scopeColumn(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT r.id, r.professional_id, r.participant_id, r.package_id,
		        r.status, r.started_at, r.completed_at, r.created_at,
		        u.id, u.first_name, u.last_name, p.title
		 FROM coaching_relationships r
		 JOIN users u ON u.id = r.%s
		 JOIN packages p ON p.id = r.package_id
		 WHERE r.id = $1 AND r.%s = $2`, counterpart, own)

	item, err := scanListItem(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}
	return item, nil
}

func scanListItem(row pgx.Row) (*ListItem, error) {
	item := &ListItem{}
	var first, last string
	err := row.Scan(
		&item.ID, &item.ProfessionalID, &item.ParticipantID, &item.PackageID,
		&item.Status, &item.StartedAt, &item.CompletedAt, &item.CreatedAt,
		&item.CounterpartID, &first, &last, &item.PackageTitle,
	)
	if err != nil {
		return nil, err
	}
	item.CounterpartName = strings.TrimSpace(first + " " + last)
	return item, nil
}

// UpdateStatus transitions a relationship the caller is a party to. The
// status predicate keeps terminal rows immutable without a separate read:
// zero rows affected means absent, foreign, terminal, or already in the
// target status. completed_at is set exactly when the transition target
// is completed.
func (s *Store) UpdateStatus(ctx context.Context, id, userID, role, newStatus string) (*Relationship, error) {
	own, _, err := scopeColumn(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`UPDATE coaching_relationships
		 SET status = $1,
		     completed_at = CASE WHEN $1 = 'completed' THEN now() ELSE completed_at END
		 WHERE id = $2 AND %s = $3 AND status NOT IN ('completed', 'cancelled')
		   AND status <> $1
		 RETURNING %s`, own, relationshipColumns)

	r, err := scanRelationship(s.pool.QueryRow(ctx, query, newStatus, id, userID))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// StatusScoped returns the current status of a relationship visible to
// the caller, used to distinguish "terminal" from "not found" after a
// conditional update matched no rows.
func (s *Store) StatusScoped(ctx context.Context, id, userID, role string) (string, error) {
	own, _, err := scopeColumn(role)
	if err != nil {
		return "", err
	}

	var status string
	query := fmt.Sprintf(`SELECT status FROM coaching_relationships WHERE id = $1 AND %s = $2`, own)
	if err := s.pool.QueryRow(ctx, query, id, userID).Scan(&status); err != nil {
		return "", err
	}
	return status, nil
}
