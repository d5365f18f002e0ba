package submission

import (
	"time"

	"github.com/mhutchins/coachwork/internal/task"
)

// Submission statuses. A submission starts as submitted and is resolved
// by exactly one review; resubmission after needs_revision creates a new
// row rather than reusing this one.
const (
	StatusSubmitted     = "submitted"
	StatusReviewed      = "reviewed"
	StatusApproved      = "approved"
	StatusNeedsRevision = "needs_revision"
)

// reviewStatuses is the set of statuses a professional may assign.
var reviewStatuses = map[string]bool{
	StatusReviewed:      true,
	StatusApproved:      true,
	StatusNeedsRevision: true,
}

// ValidReviewStatus reports whether s is an acceptable review outcome.
func ValidReviewStatus(s string) bool {
	return reviewStatuses[s]
}

// TaskStatusAfterReview returns the task status a review outcome forces,
// if any. A plain "reviewed" acknowledges the work without moving the
// task; approval and revision requests are the only paths out of the
// task's submitted state.
func TaskStatusAfterReview(outcome string) (string, bool) {
	switch outcome {
	case StatusApproved:
		return task.StatusCompleted, true
	case StatusNeedsRevision:
		return task.StatusInProgress, true
	default:
		return "", false
	}
}

// Submission is a participant's attempt to complete a task.
type Submission struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"task_id"`
	SubmittedBy    string     `json:"submitted_by"`
	SubmissionText *string    `json:"submission_text,omitempty"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
	Status         string     `json:"status"`
	Feedback       *string    `json:"feedback,omitempty"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SubmitInput holds the participant's submission content. At least one of
// the two fields must be set.
type SubmitInput struct {
	SubmissionText *string `json:"submission_text,omitempty"`
	AttachmentURL  *string `json:"attachment_url,omitempty"`
}

// HasContent reports whether the input carries any submission content.
func (in SubmitInput) HasContent() bool {
	return (in.SubmissionText != nil && *in.SubmissionText != "") ||
		(in.AttachmentURL != nil && *in.AttachmentURL != "")
}

// ReviewInput holds a professional's verdict on a submission.
type ReviewInput struct {
	Status   string  `json:"status"`
	Feedback *string `json:"feedback,omitempty"`
}
