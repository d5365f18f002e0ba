package relationship

import "time"

// Relationship statuses. Completed and cancelled are terminal.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// validStatuses is the set of accepted relationship status values.
var validStatuses = map[string]bool{
	StatusActive:    true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// ValidStatus reports whether s is a recognized relationship status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// IsTerminal reports whether a relationship in this status accepts no
// further transitions.
func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a status change from `from` to `to` is
// allowed. Terminal statuses accept no outbound transitions, so a
// completed or cancelled relationship cannot be revived.
func CanTransition(from, to string) bool {
	if !ValidStatus(to) {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	return from != to
}

// Relationship binds one professional, one participant and one package.
type Relationship struct {
	ID             string     `json:"id"`
	ProfessionalID string     `json:"professional_id"`
	ParticipantID  string     `json:"participant_id"`
	PackageID      string     `json:"package_id"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListItem is a relationship joined with the counterpart's identity and
// the package title, as returned by list and get views.
type ListItem struct {
	Relationship
	CounterpartID   string `json:"counterpart_id"`
	CounterpartName string `json:"counterpart_name"`
	PackageTitle    string `json:"package_title"`
}
