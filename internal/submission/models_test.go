package submission

import (
	"testing"

	"github.com/mhutchins/coachwork/internal/task"
)

func TestValidReviewStatus(t *testing.T) {
	valid := []string{StatusReviewed, StatusApproved, StatusNeedsRevision}
	for _, s := range valid {
		if !ValidReviewStatus(s) {
			t.Errorf("ValidReviewStatus(%q) = false, want true", s)
		}
	}
	invalid := []string{StatusSubmitted, "", "rejected", "APPROVED"}
	for _, s := range invalid {
		if ValidReviewStatus(s) {
			t.Errorf("ValidReviewStatus(%q) = true, want false", s)
		}
	}
}

func TestTaskStatusAfterReview(t *testing.T) {
	tests := []struct {
		name      string
		outcome   string
		want      string
		wantMoved bool
	}{
		{"approved completes the task", StatusApproved, task.StatusCompleted, true},
		{"needs_revision reopens the task", StatusNeedsRevision, task.StatusInProgress, true},
		{"reviewed leaves the task alone", StatusReviewed, "", false},
		{"unknown outcome leaves the task alone", "whatever", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, moved := TaskStatusAfterReview(tt.outcome)
			if got != tt.want || moved != tt.wantMoved {
				t.Errorf("TaskStatusAfterReview(%q) = (%q, %v), want (%q, %v)",
					tt.outcome, got, moved, tt.want, tt.wantMoved)
			}
		})
	}
}

func TestSubmitInputHasContent(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		in   SubmitInput
		want bool
	}{
		{"text only", SubmitInput{SubmissionText: str("done")}, true},
		{"url only", SubmitInput{AttachmentURL: str("https://example.com/doc")}, true},
		{"both", SubmitInput{SubmissionText: str("done"), AttachmentURL: str("https://example.com/doc")}, true},
		{"neither", SubmitInput{}, false},
		{"empty text", SubmitInput{SubmissionText: str("")}, false},
		{"empty url", SubmitInput{AttachmentURL: str("")}, false},
		{"empty text with url", SubmitInput{SubmissionText: str(""), AttachmentURL: str("https://example.com/doc")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.HasContent(); got != tt.want {
				t.Errorf("HasContent() = %v, want %v", got, tt.want)
			}
		})
	}
}
