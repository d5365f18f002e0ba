package relationship

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"active to completed", StatusActive, StatusCompleted, true},
		{"active to cancelled", StatusActive, StatusCancelled, true},
		{"completed to active", StatusCompleted, StatusActive, false},
		{"completed to cancelled", StatusCompleted, StatusCancelled, false},
		{"cancelled to active", StatusCancelled, StatusActive, false},
		{"cancelled to completed", StatusCancelled, StatusCompleted, false},
		{"active to active", StatusActive, StatusActive, false},
		{"active to garbage", StatusActive, "archived", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(StatusActive) {
		t.Error("active must not be terminal")
	}
	if !IsTerminal(StatusCompleted) || !IsTerminal(StatusCancelled) {
		t.Error("completed and cancelled must be terminal")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusActive, StatusCompleted, StatusCancelled} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "paused", "ACTIVE"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestScopeColumn(t *testing.T) {
	own, counterpart, err := scopeColumn("professional")
	if err != nil || own != "professional_id" || counterpart != "participant_id" {
		t.Errorf("professional scope = (%q, %q, %v)", own, counterpart, err)
	}

	own, counterpart, err = scopeColumn("participant")
	if err != nil || own != "participant_id" || counterpart != "professional_id" {
		t.Errorf("participant scope = (%q, %q, %v)", own, counterpart, err)
	}

	if _, _, err := scopeColumn("admin"); err == nil {
		t.Error("expected error for unknown role")
	}
}
