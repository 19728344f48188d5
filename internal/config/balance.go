package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"xiuxian/internal/domain/cultivation"

	"gopkg.in/yaml.v3"
)

const (
	defaultLockTTL           = 30 * time.Second
	defaultDailyRetreatYears = 100
)

// Balance holds the operator-tunable limits and the starter roster.
type Balance struct {
	Version    int               `yaml:"version"`
	Guard      GuardBalance      `yaml:"guard"`
	Characters []StarterCharacter `yaml:"characters"`
}

type GuardBalance struct {
	LockTTL           time.Duration `yaml:"lock_ttl"`
	DailyRetreatYears int64         `yaml:"daily_retreat_years"`
}

type StarterCharacter struct {
	ID             string                      `yaml:"id"`
	Name           string                      `yaml:"name"`
	Realm          string                      `yaml:"realm"`
	Stage          string                      `yaml:"stage"`
	Age            int                         `yaml:"age"`
	Lifespan       int                         `yaml:"lifespan"`
	SpiritStones   int64                       `yaml:"spirit_stones"`
	Attributes     cultivation.Attributes      `yaml:"attributes"`
	SpiritualRoots []cultivation.SpiritualRoot `yaml:"spiritual_roots"`
}

// DefaultBalance is used when no balance file is configured.
func DefaultBalance() Balance {
	return Balance{
		Version: 1,
		Guard: GuardBalance{
			LockTTL:           defaultLockTTL,
			DailyRetreatYears: defaultDailyRetreatYears,
		},
	}
}

func LoadBalance(path string) (Balance, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBalance(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("loading balance: %w", err)
	}

	cfg := DefaultBalance()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Balance{}, fmt.Errorf("loading balance: %w", err)
	}
	if err := validateBalance(&cfg); err != nil {
		return Balance{}, fmt.Errorf("loading balance: %w", err)
	}
	return cfg, nil
}

func validateBalance(cfg *Balance) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Guard.LockTTL <= 0 {
		return fmt.Errorf("guard.lock_ttl must be positive")
	}
	if cfg.Guard.DailyRetreatYears <= 0 {
		return fmt.Errorf("guard.daily_retreat_years must be positive")
	}

	seen := make(map[string]struct{})
	for i, sc := range cfg.Characters {
		if strings.TrimSpace(sc.ID) == "" {
			return fmt.Errorf("character %d id is required", i)
		}
		if _, exists := seen[sc.ID]; exists {
			return fmt.Errorf("duplicate character id: %s", sc.ID)
		}
		seen[sc.ID] = struct{}{}
		if _, err := sc.Character(time.Time{}); err != nil {
			return fmt.Errorf("character %s: %w", sc.ID, err)
		}
	}
	return nil
}

// Character builds the initial snapshot for sc. Unset realm and stage start
// at qi_refining/early.
func (sc StarterCharacter) Character(now time.Time) (cultivation.Character, error) {
	realm := cultivation.RealmQiRefining
	if sc.Realm != "" {
		r, err := cultivation.ParseRealm(sc.Realm)
		if err != nil {
			return cultivation.Character{}, err
		}
		realm = r
	}
	stage := cultivation.StageEarly
	if sc.Stage != "" {
		s, err := cultivation.ParseStage(sc.Stage)
		if err != nil {
			return cultivation.Character{}, err
		}
		stage = s
	}
	if sc.Lifespan <= 0 {
		return cultivation.Character{}, fmt.Errorf("lifespan must be positive")
	}
	if sc.Age < 0 || sc.Age >= sc.Lifespan {
		return cultivation.Character{}, fmt.Errorf("age must be within [0, lifespan)")
	}
	if sc.SpiritStones < 0 {
		return cultivation.Character{}, fmt.Errorf("spirit_stones must not be negative")
	}
	for _, root := range sc.SpiritualRoots {
		if root.Strength < 0 || root.Strength > 100 {
			return cultivation.Character{}, fmt.Errorf("spiritual root %s strength out of range", root.Element)
		}
	}
	return cultivation.Character{
		CharacterID:    sc.ID,
		Name:           sc.Name,
		Attributes:     sc.Attributes,
		SpiritualRoots: append([]cultivation.SpiritualRoot(nil), sc.SpiritualRoots...),
		Realm:          realm,
		Stage:          stage,
		Age:            sc.Age,
		Lifespan:       sc.Lifespan,
		SpiritStones:   sc.SpiritStones,
		Progress: cultivation.Progress{
			ExpCap: cultivation.ExpCap(realm, stage),
		},
		Version:   1,
		UpdatedAt: now,
	}, nil
}
