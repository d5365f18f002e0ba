package user

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/mhutchins/coachwork/internal/storage"
)

// Store provides database operations for the user directory.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new user store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone,
	role, email_verified, phone_verified, created_at`

// scanUser scans a single user row.
func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Role, &u.EmailVerified, &u.PhoneVerified, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, nil
}

// GetRole returns the role of the user with the given id, using the given
// querier so the lookup can participate in a caller-owned transaction.
// Returns pgx.ErrNoRows when the user does not exist.
func (s *Store) GetRole(ctx context.Context, q storage.Querier, id string) (string, error) {
	var role string
	err := q.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("getting user role: %w", err)
	}
	return role, nil
}

// EmailExists reports whether a user is already registered with the given
// email address, compared case-insensitively.
func (s *Store) EmailExists(ctx context.Context, q storage.Querier, email string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// CreateParticipant inserts a new participant account with a bcrypt-hashed
// password. Both verification flags are forced true: the account is only
// ever created through invitation acceptance, and a redeemed invitation is
// itself proof of contact. Runs on the given querier so it can be part of
// the acceptance transaction.
func (s *Store) CreateParticipant(ctx context.Context, q storage.Querier, in CreateParticipantInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO users (email, password_hash, first_name, last_name, phone, role, email_verified, phone_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, true, true)
		 RETURNING %s`, userColumns)

	u, err := scanUser(q.QueryRow(ctx, query,
		in.Email, string(hash), in.FirstName, in.LastName, in.Phone, RoleParticipant,
	))
	if err != nil {
		return nil, fmt.Errorf("creating participant: %w", err)
	}
	return u, nil
}
