package invitation

import "time"

// Invitation statuses. pending is the only live state; the other three
// are terminal.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// ExpiryDays is how long an invitation stays redeemable. The deadline
// is fixed at creation and never extended.
const ExpiryDays = 7

// Invitation is a pending offer for an email address to join as a
// participant, optionally bound to a package.
type Invitation struct {
	ID         string     `json:"id"`
	InvitedBy  string     `json:"invited_by"`
	PackageID  *string    `json:"package_id,omitempty"`
	Email      string     `json:"email"`
	Token      string     `json:"-"`
	Status     string     `json:"status"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Expired reports whether the invitation's deadline has passed at now.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// TokenView is the redacted shape returned to an anonymous holder of a
// token, enough to render an acceptance form and nothing more.
type TokenView struct {
	Email            string    `json:"email"`
	ProfessionalName string    `json:"professional_name"`
	PackageTitle     string    `json:"package_title,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// AcceptInput holds the account details supplied when redeeming a token.
type AcceptInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}
