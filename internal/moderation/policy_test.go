package moderation

import (
	"testing"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

// TestDefaultPolicyThresholds verifies the production escalation table
func TestDefaultPolicyThresholds(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		count    int
		action   models.Action
		duration time.Duration
	}{
		{3, models.ActionMute, 1 * time.Hour},
		{4, models.ActionMute, 12 * time.Hour},
		{5, models.ActionMute, 24 * time.Hour},
		{6, models.ActionMute, 168 * time.Hour},
		{7, models.ActionMute, 672 * time.Hour},
	}

	for _, tc := range cases {
		penalty, ok := policy.Lookup(tc.count)
		if !ok {
			t.Fatalf("Lookup(%d) no encontró penalización", tc.count)
		}
		if penalty.Action != tc.action {
			t.Errorf("Lookup(%d).Action = %v, want %v", tc.count, penalty.Action, tc.action)
		}
		if penalty.Duration != tc.duration {
			t.Errorf("Lookup(%d).Duration = %v, want %v", tc.count, penalty.Duration, tc.duration)
		}
		if penalty.Permanent {
			t.Errorf("Lookup(%d) no debería ser permanente", tc.count)
		}
	}
}

// TestDefaultPolicyBan verifies the permanent ban at eight warnings
func TestDefaultPolicyBan(t *testing.T) {
	policy := DefaultPolicy()

	penalty, ok := policy.Lookup(8)
	if !ok {
		t.Fatal("Lookup(8) no encontró penalización")
	}
	if penalty.Action != models.ActionBan {
		t.Errorf("Action = %v, want %v", penalty.Action, models.ActionBan)
	}
	if !penalty.Permanent {
		t.Error("el ban de 8 advertencias debe ser permanente")
	}
}

// TestPolicyExactMatchOnly verifies that counts off the table trigger nothing
func TestPolicyExactMatchOnly(t *testing.T) {
	policy := DefaultPolicy()

	for _, count := range []int{0, 1, 2, 9, 10, 100} {
		if _, ok := policy.Lookup(count); ok {
			t.Errorf("Lookup(%d) devolvió penalización, se esperaba ninguna", count)
		}
	}
}

// TestPolicyMinThreshold verifies the lowest escalation threshold
func TestPolicyMinThreshold(t *testing.T) {
	if got := DefaultPolicy().MinThreshold(); got != 3 {
		t.Errorf("MinThreshold() = %d, want 3", got)
	}

	if got := (Policy{}).MinThreshold(); got != 0 {
		t.Errorf("MinThreshold() en tabla vacía = %d, want 0", got)
	}
}
