package user

import "time"

// Roles recognized by the workflow engine. The engine never invents
// roles of its own; it only reads what the upstream identity layer
// assigned, except on invitation acceptance where the new account is
// always a participant.
const (
	RoleProfessional = "professional"
	RoleParticipant  = "participant"
)

// User is a row in the externally owned users table. The workflow engine
// reads id, role and email; the remaining fields exist so invitation
// acceptance can create a complete participant account.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// FullName returns the display name used in joined list views.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CreateParticipantInput holds the fields for the account created when an
// invitation is accepted.
type CreateParticipantInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Password  string
}
