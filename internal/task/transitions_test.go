package task

import (
	"testing"
	"time"

	"github.com/mhutchins/coachwork/internal/apperror"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestOverdueEligible(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := timePtr(now.Add(-time.Hour))
	future := timePtr(now.Add(time.Hour))

	tests := []struct {
		name    string
		status  string
		dueDate *time.Time
		want    bool
	}{
		{"pending past due", StatusPending, past, true},
		{"in_progress past due", StatusInProgress, past, true},
		{"pending future due", StatusPending, future, false},
		{"pending no due date", StatusPending, nil, false},
		{"submitted past due", StatusSubmitted, past, false},
		{"completed past due", StatusCompleted, past, false},
		{"cancelled past due", StatusCancelled, past, false},
		{"already overdue", StatusOverdue, past, false},
		{"due exactly now", StatusPending, timePtr(now), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverdueEligible(tt.status, tt.dueDate, now); got != tt.want {
				t.Errorf("OverdueEligible(%q, %v) = %v, want %v", tt.status, tt.dueDate, got, tt.want)
			}
		})
	}
}

func TestOverdueEligibleIdempotent(t *testing.T) {
	// Relabeling is a one-way edge: once overdue, a second read must not
	// qualify the task again.
	now := time.Now()
	due := timePtr(now.Add(-24 * time.Hour))
	if !OverdueEligible(StatusPending, due, now) {
		t.Fatal("expected pending past-due task to qualify")
	}
	if OverdueEligible(StatusOverdue, due, now) {
		t.Error("an overdue task must not qualify again")
	}
}

func TestCheckStatusChange(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		next     string
		role     string
		wantKind apperror.Kind
		wantOK   bool
	}{
		{"participant starts work", StatusPending, StatusInProgress, "participant", "", true},
		{"professional starts work", StatusPending, StatusInProgress, "professional", "", true},
		{"participant pauses work", StatusInProgress, StatusPending, "participant", "", true},
		{"resume overdue task", StatusOverdue, StatusInProgress, "participant", "", true},
		{"professional cancels pending", StatusPending, StatusCancelled, "professional", "", true},
		{"professional cancels submitted", StatusSubmitted, StatusCancelled, "professional", "", true},
		{"professional cancels overdue", StatusOverdue, StatusCancelled, "professional", "", true},
		{"participant cancels", StatusPending, StatusCancelled, "participant", apperror.KindAuthorization, false},
		{"direct submit", StatusPending, StatusSubmitted, "participant", apperror.KindValidation, false},
		{"direct complete", StatusSubmitted, StatusCompleted, "professional", apperror.KindValidation, false},
		{"direct overdue", StatusPending, StatusOverdue, "professional", apperror.KindValidation, false},
		{"submitted to in_progress directly", StatusSubmitted, StatusInProgress, "professional", apperror.KindValidation, false},
		{"overdue back to pending", StatusOverdue, StatusPending, "participant", apperror.KindValidation, false},
		{"same status", StatusPending, StatusPending, "participant", apperror.KindValidation, false},
		{"unknown status", StatusPending, "archived", "professional", apperror.KindValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStatusChange(tt.current, tt.next, tt.role)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected change to be allowed, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected change to be rejected")
			}
			if kind, _ := apperror.KindOf(err); kind != tt.wantKind {
				t.Errorf("error kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[string]bool{
		StatusPending: false, StatusInProgress: false, StatusSubmitted: false,
		StatusOverdue: false, StatusCompleted: true, StatusCancelled: true,
	}
	for status, want := range terminal {
		if got := IsTerminal(status); got != want {
			t.Errorf("IsTerminal(%q) = %v, want %v", status, got, want)
		}
	}
}
