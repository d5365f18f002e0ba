package invitation

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateToken_PrefixAndLength(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if !strings.HasPrefix(token, "cwinv_") {
		t.Errorf("token should start with 'cwinv_', got %q", token)
	}

	random := strings.TrimPrefix(token, "cwinv_")
	if len(random) != 32 {
		t.Errorf("random portion should be 32 chars, got %d (%q)", len(random), random)
	}
}

func TestGenerateToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestGenerateToken_URLSafe(t *testing.T) {
	for i := 0; i < 20; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		if strings.ContainsAny(token, "+/=?&#%") {
			t.Errorf("token contains characters unsafe in a URL query: %q", token)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	inv := &Invitation{ExpiresAt: now.Add(time.Hour)}
	if inv.Expired(now) {
		t.Error("invitation with a future deadline should not be expired")
	}
	if !inv.Expired(now.Add(2 * time.Hour)) {
		t.Error("invitation past its deadline should be expired")
	}
	if inv.Expired(inv.ExpiresAt) {
		t.Error("invitation exactly at its deadline should not yet be expired")
	}
}
