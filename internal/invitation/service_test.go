package invitation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/catalog"
	"github.com/mhutchins/coachwork/internal/mail"
	"github.com/mhutchins/coachwork/internal/storage"
	"github.com/mhutchins/coachwork/internal/user"
)

// fakeTx satisfies pgx.Tx for the lifecycle paths under test. Only
// Commit and Rollback are ever reached; anything else panics via the
// embedded nil interface.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error { t.committed = true; return nil }

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	storage.Querier
	tx *fakeTx
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) { return d.tx, nil }

// fakeStore records the order of store calls so tests can assert what
// happens before the insert.
type fakeStore struct {
	inv      *Invitation
	pending  bool
	accepted bool
	calls    []string
	expired  []string
}

func (f *fakeStore) ExpireStale(_ context.Context, _ storage.Querier, _ string) error {
	f.calls = append(f.calls, "ExpireStale")
	return nil
}

func (f *fakeStore) PendingExists(_ context.Context, _ storage.Querier, _ string) (bool, error) {
	f.calls = append(f.calls, "PendingExists")
	return f.pending, nil
}

func (f *fakeStore) Insert(_ context.Context, _ storage.Querier, invitedBy, email, token string, packageID *string, expiresAt time.Time) (*Invitation, error) {
	f.calls = append(f.calls, "Insert")
	return &Invitation{
		ID: "inv-1", InvitedBy: invitedBy, PackageID: packageID,
		Email: email, Token: token, Status: StatusPending, ExpiresAt: expiresAt,
	}, nil
}

func (f *fakeStore) GetByToken(_ context.Context, _ storage.Querier, _ string) (*Invitation, error) {
	if f.inv == nil {
		return nil, pgx.ErrNoRows
	}
	return f.inv, nil
}

func (f *fakeStore) GetByTokenForUpdate(ctx context.Context, q storage.Querier, token string) (*Invitation, error) {
	return f.GetByToken(ctx, q, token)
}

func (f *fakeStore) MarkExpired(_ context.Context, _ storage.Querier, id string) error {
	f.expired = append(f.expired, id)
	return nil
}

func (f *fakeStore) MarkAccepted(_ context.Context, _ storage.Querier, _ string) (bool, error) {
	f.calls = append(f.calls, "MarkAccepted")
	return f.accepted, nil
}

func (f *fakeStore) List(context.Context, string, string) ([]*Invitation, error) { return nil, nil }

func (f *fakeStore) Cancel(context.Context, string, string) (bool, error) { return false, nil }

func (f *fakeStore) StatusScoped(context.Context, string, string) (string, error) {
	return "", pgx.ErrNoRows
}

type fakeUsers struct {
	professional *user.User
	exists       bool
	created      *user.User
}

func (f *fakeUsers) GetByID(_ context.Context, _ string) (*user.User, error) {
	if f.professional == nil {
		return nil, pgx.ErrNoRows
	}
	return f.professional, nil
}

func (f *fakeUsers) EmailExists(_ context.Context, _ storage.Querier, _ string) (bool, error) {
	return f.exists, nil
}

func (f *fakeUsers) CreateParticipant(_ context.Context, _ storage.Querier, in user.CreateParticipantInput) (*user.User, error) {
	f.created = &user.User{
		ID: "user-2", Email: in.Email, FirstName: in.FirstName,
		LastName: in.LastName, Role: user.RoleParticipant,
	}
	return f.created, nil
}

type fakePackages struct {
	pkg *catalog.Package
}

func (f *fakePackages) GetByID(_ context.Context, _ storage.Querier, _ string) (*catalog.Package, error) {
	if f.pkg == nil {
		return nil, pgx.ErrNoRows
	}
	return f.pkg, nil
}

type fakeLinker struct {
	professionalID, participantID, packageID string
}

func (f *fakeLinker) InsertIdempotent(_ context.Context, _ storage.Querier, professionalID, participantID, packageID string) error {
	f.professionalID, f.participantID, f.packageID = professionalID, participantID, packageID
	return nil
}

type fakeSender struct {
	sent []mail.Email
}

func (f *fakeSender) Send(_ context.Context, e mail.Email) error {
	f.sent = append(f.sent, e)
	return nil
}

func testProfessional() *user.User {
	return &user.User{ID: "pro-1", Email: "coach@example.com", FirstName: "Dana", LastName: "Coach", Role: user.RoleProfessional}
}

func newTestService(store *fakeStore, users *fakeUsers, pkgs *fakePackages, rels *fakeLinker) (*Service, *fakeTx, *fakeSender) {
	tx := &fakeTx{}
	sender := &fakeSender{}
	svc := NewService(&fakeDB{tx: tx}, store, users, pkgs, rels, sender, "https://app.example.com", nil, nil)
	return svc, tx, sender
}

func TestSendExpiresStaleRowsBeforeInsert(t *testing.T) {
	store := &fakeStore{}
	svc, tx, sender := newTestService(store, &fakeUsers{professional: testProfessional()}, &fakePackages{}, &fakeLinker{})

	inv, err := svc.Send(context.Background(), "pro-1", "invitee@example.com", nil)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	// A pending invitation past its deadline must never block a re-send:
	// stale rows are flipped before the duplicate check and the insert.
	want := []string{"ExpireStale", "PendingExists", "Insert"}
	if len(store.calls) != len(want) {
		t.Fatalf("store calls = %v, want %v", store.calls, want)
	}
	for i, c := range want {
		if store.calls[i] != c {
			t.Fatalf("store calls = %v, want %v", store.calls, want)
		}
	}
	if !tx.committed {
		t.Error("transaction was not committed")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "invitee@example.com" {
		t.Errorf("invitation email not sent to invitee: %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].TextBody, inv.Token) {
		t.Error("email body missing the invitation token")
	}
}

func TestSendRejectsLivePendingInvitation(t *testing.T) {
	store := &fakeStore{pending: true}
	svc, tx, _ := newTestService(store, &fakeUsers{professional: testProfessional()}, &fakePackages{}, &fakeLinker{})

	_, err := svc.Send(context.Background(), "pro-1", "invitee@example.com", nil)
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if tx.committed {
		t.Error("rejected send must not commit")
	}
	if !tx.rolledBack {
		t.Error("rejected send must roll back")
	}
}

func TestGetByTokenFlipsExpiredPending(t *testing.T) {
	store := &fakeStore{inv: &Invitation{
		ID: "inv-1", InvitedBy: "pro-1", Email: "invitee@example.com",
		Status: StatusPending, ExpiresAt: time.Now().Add(-time.Minute),
	}}
	svc, _, _ := newTestService(store, &fakeUsers{professional: testProfessional()}, &fakePackages{}, &fakeLinker{})

	_, err := svc.GetByToken(context.Background(), "cwinv_stale")
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("error should report expiry, got %q", err.Error())
	}
	if len(store.expired) != 1 || store.expired[0] != "inv-1" {
		t.Errorf("expected the row to be flipped to expired, got %v", store.expired)
	}
}

func TestGetByTokenTerminalStates(t *testing.T) {
	for _, status := range []string{StatusAccepted, StatusExpired, StatusCancelled} {
		t.Run(status, func(t *testing.T) {
			store := &fakeStore{inv: &Invitation{
				ID: "inv-1", InvitedBy: "pro-1", Email: "invitee@example.com",
				Status: status, ExpiresAt: time.Now().Add(time.Hour),
			}}
			svc, _, _ := newTestService(store, &fakeUsers{professional: testProfessional()}, &fakePackages{}, &fakeLinker{})

			_, err := svc.GetByToken(context.Background(), "cwinv_used")
			if !apperror.IsKind(err, apperror.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), status) {
				t.Errorf("error should name the status, got %q", err.Error())
			}
			if len(store.expired) != 0 {
				t.Error("terminal rows must not be re-flipped")
			}
		})
	}
}

func TestGetByTokenUnknown(t *testing.T) {
	svc, _, _ := newTestService(&fakeStore{}, &fakeUsers{}, &fakePackages{}, &fakeLinker{})

	_, err := svc.GetByToken(context.Background(), "cwinv_nosuch")
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetByTokenPendingView(t *testing.T) {
	pkgID := "pkg-1"
	store := &fakeStore{inv: &Invitation{
		ID: "inv-1", InvitedBy: "pro-1", PackageID: &pkgID,
		Email: "invitee@example.com", Status: StatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	pkgs := &fakePackages{pkg: &catalog.Package{ID: pkgID, ProfessionalID: "pro-1", Title: "Career Coaching"}}
	svc, _, _ := newTestService(store, &fakeUsers{professional: testProfessional()}, pkgs, &fakeLinker{})

	view, err := svc.GetByToken(context.Background(), "cwinv_live")
	if err != nil {
		t.Fatalf("GetByToken returned error: %v", err)
	}
	if view.Email != "invitee@example.com" {
		t.Errorf("Email = %q", view.Email)
	}
	if view.ProfessionalName != "Dana Coach" {
		t.Errorf("ProfessionalName = %q", view.ProfessionalName)
	}
	if view.PackageTitle != "Career Coaching" {
		t.Errorf("PackageTitle = %q", view.PackageTitle)
	}
}

func acceptInput(email string) AcceptInput {
	return AcceptInput{Email: email, FirstName: "Sam", LastName: "Client", Password: "secret-pw"}
}

func TestAcceptMatchesEmailCaseInsensitively(t *testing.T) {
	pkgID := "pkg-1"
	store := &fakeStore{
		accepted: true,
		inv: &Invitation{
			ID: "inv-1", InvitedBy: "pro-1", PackageID: &pkgID,
			Email: "Invitee@Example.com", Status: StatusPending,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	users := &fakeUsers{professional: testProfessional()}
	rels := &fakeLinker{}
	pkgs := &fakePackages{pkg: &catalog.Package{ID: pkgID, ProfessionalID: "pro-1", Title: "Career Coaching"}}
	svc, tx, _ := newTestService(store, users, pkgs, rels)

	got, err := svc.Accept(context.Background(), "cwinv_live", acceptInput("invitee@EXAMPLE.COM"))
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	// The account keeps the spelling the invitation was issued with.
	if got.Email != "Invitee@Example.com" {
		t.Errorf("created account email = %q", got.Email)
	}
	if got.Role != user.RoleParticipant {
		t.Errorf("created account role = %q", got.Role)
	}
	if !tx.committed {
		t.Error("acceptance was not committed")
	}
	if rels.professionalID != "pro-1" || rels.participantID != "user-2" || rels.packageID != pkgID {
		t.Errorf("relationship not linked: %+v", rels)
	}
}

func TestAcceptRejectsMismatchedEmail(t *testing.T) {
	store := &fakeStore{inv: &Invitation{
		ID: "inv-1", InvitedBy: "pro-1", Email: "invitee@example.com",
		Status: StatusPending, ExpiresAt: time.Now().Add(time.Hour),
	}}
	users := &fakeUsers{professional: testProfessional()}
	svc, tx, _ := newTestService(store, users, &fakePackages{}, &fakeLinker{})

	_, err := svc.Accept(context.Background(), "cwinv_live", acceptInput("someone.else@example.com"))
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Errorf("error should report the mismatch, got %q", err.Error())
	}
	if users.created != nil {
		t.Error("no account may be created for a mismatched email")
	}
	if tx.committed {
		t.Error("mismatch must not commit")
	}
}

func TestAcceptExpiredFlipsAndCommits(t *testing.T) {
	store := &fakeStore{inv: &Invitation{
		ID: "inv-1", InvitedBy: "pro-1", Email: "invitee@example.com",
		Status: StatusPending, ExpiresAt: time.Now().Add(-time.Minute),
	}}
	svc, tx, _ := newTestService(store, &fakeUsers{professional: testProfessional()}, &fakePackages{}, &fakeLinker{})

	_, err := svc.Accept(context.Background(), "cwinv_stale", acceptInput("invitee@example.com"))
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.expired) != 1 || store.expired[0] != "inv-1" {
		t.Errorf("expected the row to be flipped to expired, got %v", store.expired)
	}
	// The flip must survive the failed acceptance.
	if !tx.committed {
		t.Error("expiry flip was not committed")
	}
}

func TestAcceptNonPending(t *testing.T) {
	store := &fakeStore{inv: &Invitation{
		ID: "inv-1", InvitedBy: "pro-1", Email: "invitee@example.com",
		Status: StatusAccepted, ExpiresAt: time.Now().Add(time.Hour),
	}}
	svc, tx, _ := newTestService(store, &fakeUsers{professional: testProfessional()}, &fakePackages{}, &fakeLinker{})

	_, err := svc.Accept(context.Background(), "cwinv_used", acceptInput("invitee@example.com"))
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), StatusAccepted) {
		t.Errorf("error should name the status, got %q", err.Error())
	}
	if tx.committed {
		t.Error("resolved invitations must not commit")
	}
}
