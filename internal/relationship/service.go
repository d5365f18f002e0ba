package relationship

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/audit"
	"github.com/mhutchins/coachwork/internal/catalog"
	"github.com/mhutchins/coachwork/internal/metrics"
	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/user"
)

// Service implements the relationship manager: validated creation and
// lifecycle transitions for coaching relationships.
type Service struct {
	pool     *pgxpool.Pool
	store    *Store
	users    *user.Store
	packages *catalog.Store
	recorder *audit.Recorder
	metrics  *metrics.Metrics
}

// NewService creates a relationship service. recorder and m may be nil in
// tests.
func NewService(pool *pgxpool.Pool, store *Store, users *user.Store, packages *catalog.Store, recorder *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{pool: pool, store: store, users: users, packages: packages, recorder: recorder, metrics: m}
}

// Create establishes an active relationship between a professional and a
// participant, scoped to a package the professional owns. All checks plus
// the insert run in one transaction; the partial unique index on the
// triple backstops the duplicate pre-check under concurrent writers.
func (s *Service) Create(ctx context.Context, professionalID, participantID, packageID string) (*Relationship, error) {
	if professionalID == "" || participantID == "" || packageID == "" {
		return nil, apperror.Validation("professional, participant and package are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	role, err := s.users.GetRole(ctx, tx, professionalID)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.Authorization("caller is not a professional")
		}
		return nil, err
	}
	if role != user.RoleProfessional {
		return nil, apperror.Authorization("caller is not a professional")
	}

	role, err = s.users.GetRole(ctx, tx, participantID)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("participant not found")
		}
		return nil, err
	}
	if role != user.RoleParticipant {
		return nil, apperror.NotFound("participant not found")
	}

	owned, err := s.packages.OwnedBy(ctx, tx, packageID, professionalID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperror.NotFound("package not found")
	}

	exists, err := s.store.ActiveExists(ctx, tx, professionalID, participantID, packageID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("an active relationship already exists for this participant and package")
	}

	rel, err := s.store.Insert(ctx, tx, professionalID, participantID, packageID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, apperror.Conflict("an active relationship already exists for this participant and package")
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing relationship creation: %w", err)
	}

	s.metrics.IncRelationshipCreated()
	s.recorder.Record(audit.Event{
		UserID:       professionalID,
		TargetUserID: participantID,
		EntityType:   audit.EntityRelationship,
		EntityID:     rel.ID,
		ActionType:   audit.ActionCreate,
		Description:  "coaching relationship created",
	})

	return rel, nil
}

// List returns the caller's relationships ordered by recency.
func (s *Service) List(ctx context.Context, userID, role string) ([]*ListItem, error) {
	items, err := s.store.List(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ListItem{}
	}
	return items, nil
}

// Get returns a single relationship visible to the caller.
func (s *Service) Get(ctx context.Context, id, userID, role string) (*ListItem, error) {
	item, err := s.store.GetScoped(ctx, id, userID, role)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("relationship not found")
		}
		return nil, err
	}
	return item, nil
}

// UpdateStatus transitions a relationship the caller is a party to.
// Completed and cancelled are terminal.
func (s *Service) UpdateStatus(ctx context.Context, id, userID, role, newStatus string) (*Relationship, error) {
	if !ValidStatus(newStatus) {
		return nil, apperror.Validation("status must be one of: active, completed, cancelled")
	}

	rel, err := s.store.UpdateStatus(ctx, id, userID, role, newStatus)
	if err == nil {
		s.recorder.Record(audit.Event{
			UserID:      userID,
			EntityType:  audit.EntityRelationship,
			EntityID:    rel.ID,
			ActionType:  audit.ActionUpdate,
			Description: "relationship status set to " + newStatus,
		})
		return rel, nil
	}
	if !storage.IsNoRows(err) {
		return nil, err
	}

	// The conditional update matched nothing: distinguish a rejected
	// transition from a row that is absent or not the caller's.
	status, serr := s.store.StatusScoped(ctx, id, userID, role)
	if serr != nil {
		if storage.IsNoRows(serr) {
			return nil, apperror.NotFound("relationship not found")
		}
		return nil, serr
	}
	if !CanTransition(status, newStatus) {
		if status == newStatus {
			return nil, apperror.Validation("relationship is already %s", status)
		}
		return nil, apperror.Validation("relationship is %s and cannot change status", status)
	}
	return nil, apperror.NotFound("relationship not found")
}
