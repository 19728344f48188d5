package httpadapter

import (
	"encoding/json"
	"testing"
	"time"

	"xiuxian/internal/app/guard"
	"xiuxian/internal/app/history"
	"xiuxian/internal/app/progression"
	"xiuxian/internal/app/status"
	"xiuxian/internal/domain/cultivation"
)

func TestResponseJSONUsesSnakeCase(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := cultivation.Character{
		CharacterID: "c1",
		Name:        "Han Li",
		Realm:       cultivation.RealmGoldenCore,
		Stage:       cultivation.StageLate,
		Age:         150,
		Lifespan:    600,
		Progress: cultivation.Progress{
			CultivationExp: 3000,
			ExpCap:         cultivation.ExpCap(cultivation.RealmGoldenCore, cultivation.StageLate),
			Condition:      cultivation.ConditionBottlenecked,
		},
		Version:   3,
		UpdatedAt: now,
	}
	event := cultivation.DomainEvent{
		Type:       "cultivation_completed",
		OccurredAt: now,
		Payload:    map[string]any{"ok": true},
	}

	cases := []struct {
		name    string
		payload any
		want    []string
		notWant []string
	}{
		{
			name: "cultivate",
			payload: progression.CultivateResponse{
				Success:   true,
				Character: progression.SnapshotOf(c),
				Quota:     guard.QuotaResult{Allowed: true, Remaining: 90, Consumed: 10, Day: "2023-11-14"},
			},
			want:    []string{"success", "character", "summary", "quota", "record_id"},
			notWant: []string{"Character", "Summary", "RecordID"},
		},
		{
			name:    "breakthrough",
			payload: progression.BreakthroughResponse{Character: progression.SnapshotOf(c), Odds: cultivation.ComposeBreakthroughOdds(c, 0)},
			want:    []string{"success", "character", "summary", "odds"},
			notWant: []string{"Odds", "Narrative"},
		},
		{
			name:    "status",
			payload: status.Response{Character: progression.SnapshotOf(c), RemainingLifespan: 450},
			want:    []string{"character", "remaining_lifespan", "can_breakthrough", "epiphany_active"},
			notWant: []string{"Character", "RemainingLifespan"},
		},
		{
			name:    "history",
			payload: history.Response{Events: []cultivation.DomainEvent{event}},
			want:    []string{"retreats", "breakthroughs", "events", "stats"},
			notWant: []string{"Events", "Stats"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.payload)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			for _, key := range tc.want {
				if _, ok := got[key]; !ok {
					t.Fatalf("expected key %q in %s", key, string(b))
				}
			}
			for _, key := range tc.notWant {
				if _, ok := got[key]; ok {
					t.Fatalf("unexpected key %q in %s", key, string(b))
				}
			}
			if character := asMap(got["character"]); character != nil {
				if character["realm"] != "golden_core" || character["stage"] != "late" {
					t.Fatalf("expected tier names in %s", string(b))
				}
				if character["condition"] != "bottlenecked" {
					t.Fatalf("expected condition name in %s", string(b))
				}
				if _, ok := character["CharacterID"]; ok {
					t.Fatalf("unexpected nested key character.CharacterID in %s", string(b))
				}
			}
		})
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
