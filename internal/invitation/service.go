package invitation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/audit"
	"github.com/mhutchins/coachwork/internal/catalog"
	"github.com/mhutchins/coachwork/internal/mail"
	"github.com/mhutchins/coachwork/internal/metrics"
	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/user"
)

// The narrow store surfaces the service consumes. Satisfied by the
// concrete stores; they exist so the lifecycle branches are testable
// without a real database.
type invitationStore interface {
	ExpireStale(ctx context.Context, q storage.Querier, email string) error
	PendingExists(ctx context.Context, q storage.Querier, email string) (bool, error)
	Insert(ctx context.Context, q storage.Querier, invitedBy, email, token string, packageID *string, expiresAt time.Time) (*Invitation, error)
	GetByToken(ctx context.Context, q storage.Querier, token string) (*Invitation, error)
	GetByTokenForUpdate(ctx context.Context, q storage.Querier, token string) (*Invitation, error)
	MarkExpired(ctx context.Context, q storage.Querier, id string) error
	MarkAccepted(ctx context.Context, q storage.Querier, id string) (bool, error)
	List(ctx context.Context, invitedBy, statusFilter string) ([]*Invitation, error)
	Cancel(ctx context.Context, id, invitedBy string) (bool, error)
	StatusScoped(ctx context.Context, id, invitedBy string) (string, error)
}

type userDirectory interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	EmailExists(ctx context.Context, q storage.Querier, email string) (bool, error)
	CreateParticipant(ctx context.Context, q storage.Querier, in user.CreateParticipantInput) (*user.User, error)
}

type packageCatalog interface {
	GetByID(ctx context.Context, q storage.Querier, id string) (*catalog.Package, error)
}

type relationshipLinker interface {
	InsertIdempotent(ctx context.Context, q storage.Querier, professionalID, participantID, packageID string) error
}

// db is what the service needs from a connection pool.
type db interface {
	storage.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service implements the invitation lifecycle: issuing tokens, validating
// them for anonymous holders, and atomically redeeming them into a new
// participant account plus, when package-bound, a coaching relationship.
type Service struct {
	pool          db
	store         invitationStore
	users         userDirectory
	packages      packageCatalog
	relationships relationshipLinker
	sender        mail.Sender
	baseURL       string
	recorder      *audit.Recorder
	metrics       *metrics.Metrics
}

// NewService creates an invitation service. recorder and m may be nil in
// tests.
func NewService(pool db, store invitationStore, users userDirectory, packages packageCatalog, relationships relationshipLinker, sender mail.Sender, baseURL string, recorder *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{
		pool:          pool,
		store:         store,
		users:         users,
		packages:      packages,
		relationships: relationships,
		sender:        sender,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		recorder:      recorder,
		metrics:       m,
	}
}

// AcceptLink returns the redemption URL carried in the invitation email.
func (s *Service) AcceptLink(token string) string {
	return s.baseURL + "/invitations/accept?token=" + token
}

// Send issues a pending invitation for the email and dispatches the
// invitation email inside the same transaction. A failed send rolls the
// invitation back: an invitation nobody can redeem is as good as none.
func (s *Service) Send(ctx context.Context, invitedBy, email string, packageID *string) (*Invitation, error) {
	if email == "" {
		return nil, apperror.Validation("email is required")
	}

	professional, err := s.users.GetByID(ctx, invitedBy)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.Authorization("caller is not a professional")
		}
		return nil, err
	}
	if professional.Role != user.RoleProfessional {
		return nil, apperror.Authorization("caller is not a professional")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	registered, err := s.users.EmailExists(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, apperror.Conflict("a user with this email is already registered")
	}

	// A pending invitation past its deadline must not block a re-send,
	// and it would otherwise trip the one-pending-per-email index. Flip
	// stale rows before checking and inserting.
	if err := s.store.ExpireStale(ctx, tx, email); err != nil {
		return nil, err
	}

	pending, err := s.store.PendingExists(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperror.Conflict("a pending invitation already exists for this email")
	}

	var packageTitle string
	if packageID != nil {
		pkg, err := s.packages.GetByID(ctx, tx, *packageID)
		if err != nil {
			if storage.IsNoRows(err) {
				return nil, apperror.NotFound("package not found")
			}
			return nil, err
		}
		if pkg.ProfessionalID != invitedBy {
			return nil, apperror.NotFound("package not found")
		}
		packageTitle = pkg.Title
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	inv, err := s.store.Insert(ctx, tx, invitedBy, email, token, packageID, time.Now().Add(ExpiryDays*24*time.Hour))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, apperror.Conflict("a pending invitation already exists for this email")
		}
		return nil, err
	}

	msg := mail.BuildInvitationEmail(mail.InvitationEmailData{
		ProfessionalName: professional.FullName(),
		PackageTitle:     packageTitle,
		AcceptLink:       s.AcceptLink(token),
		ExpiresInDays:    ExpiryDays,
	})
	msg.To = email
	if err := s.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("sending invitation email: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing invitation: %w", err)
	}

	s.metrics.IncInvitation("sent")
	s.recorder.Record(audit.Event{
		UserID:      invitedBy,
		EntityType:  audit.EntityInvitation,
		EntityID:    inv.ID,
		ActionType:  audit.ActionInvite,
		Description: "invitation sent to " + email,
	})

	return inv, nil
}

// GetByToken validates a token on behalf of its anonymous holder. A
// pending invitation past its deadline is flipped to expired on the spot
// and reported as such.
func (s *Service) GetByToken(ctx context.Context, token string) (*TokenView, error) {
	inv, err := s.store.GetByToken(ctx, s.pool, token)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("invitation not found")
		}
		return nil, err
	}

	if inv.Status == StatusPending && inv.Expired(time.Now()) {
		if err := s.store.MarkExpired(ctx, s.pool, inv.ID); err != nil {
			return nil, err
		}
		return nil, apperror.Validation("invitation has expired")
	}
	if inv.Status != StatusPending {
		return nil, apperror.Validation("invitation has been %s", inv.Status)
	}

	professional, err := s.users.GetByID(ctx, inv.InvitedBy)
	if err != nil {
		return nil, err
	}

	view := &TokenView{
		Email:            inv.Email,
		ProfessionalName: professional.FullName(),
		ExpiresAt:        inv.ExpiresAt,
	}
	if inv.PackageID != nil {
		pkg, err := s.packages.GetByID(ctx, s.pool, *inv.PackageID)
		if err != nil {
			return nil, err
		}
		view.PackageTitle = pkg.Title
	}
	return view, nil
}

// Accept redeems a token in one transaction: re-validates it under a row
// lock, creates the participant account, marks the invitation accepted
// and, when package-bound, idempotently creates the coaching
// relationship so a retried accept cannot produce duplicates.
func (s *Service) Accept(ctx context.Context, token string, in AcceptInput) (*user.User, error) {
	if in.Email == "" || in.FirstName == "" || in.LastName == "" || in.Password == "" {
		return nil, apperror.Validation("email, first name, last name and password are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := s.store.GetByTokenForUpdate(ctx, tx, token)
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, apperror.NotFound("invitation not found")
		}
		return nil, err
	}
	if inv.Status != StatusPending {
		return nil, apperror.Validation("invitation has been %s", inv.Status)
	}
	if inv.Expired(time.Now()) {
		if err := s.store.MarkExpired(ctx, tx, inv.ID); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("committing expiry: %w", err)
		}
		return nil, apperror.Validation("invitation has expired")
	}
	if !strings.EqualFold(in.Email, inv.Email) {
		return nil, apperror.Validation("email does not match the invitation")
	}

	registered, err := s.users.EmailExists(ctx, tx, in.Email)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, apperror.Conflict("a user with this email is already registered")
	}

	newUser, err := s.users.CreateParticipant(ctx, tx, user.CreateParticipantInput{
		Email:     inv.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Password:  in.Password,
	})
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, apperror.Conflict("a user with this email is already registered")
		}
		return nil, err
	}

	ok, err := s.store.MarkAccepted(ctx, tx, inv.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("invitation has already been resolved")
	}

	if inv.PackageID != nil {
		pkg, err := s.packages.GetByID(ctx, tx, *inv.PackageID)
		if err != nil {
			if storage.IsNoRows(err) {
				return nil, apperror.Validation("the invited package no longer exists")
			}
			return nil, err
		}
		if err := s.relationships.InsertIdempotent(ctx, tx, pkg.ProfessionalID, newUser.ID, pkg.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing invitation acceptance: %w", err)
	}

	s.metrics.IncInvitation("accepted")
	s.recorder.Record(audit.Event{
		UserID:       newUser.ID,
		TargetUserID: inv.InvitedBy,
		EntityType:   audit.EntityInvitation,
		EntityID:     inv.ID,
		ActionType:   audit.ActionAccept,
		Description:  "invitation accepted",
	})

	return newUser, nil
}

// List returns the professional's invitations, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, invitedBy, statusFilter string) ([]*Invitation, error) {
	switch statusFilter {
	case "", StatusPending, StatusAccepted, StatusExpired, StatusCancelled:
	default:
		return nil, apperror.Validation("status filter must be one of: pending, accepted, expired, cancelled")
	}

	invs, err := s.store.List(ctx, invitedBy, statusFilter)
	if err != nil {
		return nil, err
	}
	if invs == nil {
		invs = []*Invitation{}
	}
	return invs, nil
}

// Cancel withdraws a pending invitation the professional issued.
func (s *Service) Cancel(ctx context.Context, id, invitedBy string) error {
	ok, err := s.store.Cancel(ctx, id, invitedBy)
	if err != nil {
		return err
	}
	if !ok {
		status, serr := s.store.StatusScoped(ctx, id, invitedBy)
		if serr != nil {
			if storage.IsNoRows(serr) {
				return apperror.NotFound("invitation not found")
			}
			return serr
		}
		return apperror.Validation("invitation is %s and cannot be cancelled", status)
	}

	s.metrics.IncInvitation("cancelled")
	s.recorder.Record(audit.Event{
		UserID:      invitedBy,
		EntityType:  audit.EntityInvitation,
		EntityID:    id,
		ActionType:  audit.ActionCancel,
		Description: "invitation cancelled",
	})
	return nil
}
