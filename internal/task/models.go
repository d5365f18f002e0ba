package task

import "time"

// Task statuses. Completed and cancelled are terminal; overdue is derived
// from due_date at read time and never chosen by a caller.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
	StatusCancelled  = "cancelled"
)

// Task is a unit of work a professional assigns to a participant within a
// relationship. assigned_to is denormalized from the relationship's
// participant at creation time.
type Task struct {
	ID                     string     `json:"id"`
	CoachingRelationshipID string     `json:"coaching_relationship_id"`
	AssignedBy             string     `json:"assigned_by"`
	AssignedTo             string     `json:"assigned_to"`
	Title                  string     `json:"title"`
	Description            *string    `json:"description,omitempty"`
	DueDate                *time.Time `json:"due_date,omitempty"`
	Status                 string     `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ListItem is a task joined with the counterpart name and submission
// count, as returned by list and get views.
type ListItem struct {
	Task
	CounterpartName string `json:"counterpart_name"`
	SubmissionCount int    `json:"submission_count"`
}

// CreateInput holds the fields for assigning a new task.
type CreateInput struct {
	CoachingRelationshipID string     `json:"coaching_relationship_id"`
	Title                  string     `json:"title"`
	Description            *string    `json:"description,omitempty"`
	DueDate                *time.Time `json:"due_date,omitempty"`
}

// UpdateInput holds optional fields for a partial task update.
type UpdateInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      *string    `json:"status,omitempty"`
}
