// Package catalog is the read side of the externally owned package
// catalog. The workflow engine only needs ownership facts: package CRUD
// itself lives elsewhere.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/storage"
)

// Package is a coaching package offered by a professional.
type Package struct {
	ID             string    `json:"id"`
	ProfessionalID string    `json:"professional_id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store provides read operations over the packages table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new catalog store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetByID retrieves a package by primary key. Returns pgx.ErrNoRows when
// the package does not exist.
func (s *Store) GetByID(ctx context.Context, q storage.Querier, id string) (*Package, error) {
	p := &Package{}
	err := q.QueryRow(ctx,
		`SELECT id, professional_id, title, created_at FROM packages WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ProfessionalID, &p.Title, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting package by id: %w", err)
	}
	return p, nil
}

// OwnedBy reports whether the package exists and belongs to the given
// professional. Absence and foreign ownership are indistinguishable to
// the caller.
func (s *Store) OwnedBy(ctx context.Context, q storage.Querier, id, professionalID string) (bool, error) {
	var owned bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM packages WHERE id = $1 AND professional_id = $2)`,
		id, professionalID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("checking package ownership: %w", err)
	}
	return owned, nil
}
