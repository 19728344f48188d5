package history

import "xiuxian/internal/domain/cultivation"

type Request struct {
	CharacterID  string
	Limit        int
	OccurredFrom int64
	OccurredTo   int64
}

// Stats is folded from the event stream.
type Stats struct {
	RetreatYears          int `json:"retreat_years"`
	Epiphanies            int `json:"epiphanies"`
	BreakthroughSuccesses int `json:"breakthrough_successes"`
	BreakthroughFailures  int `json:"breakthrough_failures"`
	InnerDemonEpisodes    int `json:"inner_demon_episodes"`
}

type Response struct {
	Retreats      []cultivation.RetreatRecord      `json:"retreats"`
	Breakthroughs []cultivation.BreakthroughRecord `json:"breakthroughs"`
	Events        []cultivation.DomainEvent        `json:"events"`
	Stats         Stats                            `json:"stats"`
}
