package audit

import "time"

// Event is one append-only activity-log row: who did what to whom. The
// engine writes these as a side channel and never reads them back.
type Event struct {
	UserID       string
	TargetUserID string // empty when the action has no counterpart user
	EntityType   string
	EntityID     string
	ActionType   string
	Description  string
	CreatedAt    time.Time
}

// Entity types recorded in activity logs.
const (
	EntityRelationship = "coaching_relationship"
	EntityTask         = "task"
	EntitySubmission   = "task_submission"
	EntityInvitation   = "invitation"
	EntityUser         = "user"
)

// Action types recorded in activity logs.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSubmit = "submit"
	ActionReview = "review"
	ActionInvite = "invite"
	ActionAccept = "accept"
	ActionCancel = "cancel"
)
