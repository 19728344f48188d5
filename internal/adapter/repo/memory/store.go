package memory

import (
	"context"
	"sync"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

type Store struct {
	mu            sync.Mutex
	characters    map[string]cultivation.Character
	retreats      map[string][]cultivation.RetreatRecord
	breakthroughs map[string][]cultivation.BreakthroughRecord
	events        map[string][]cultivation.DomainEvent
	lifecycles    map[string]ports.LifecycleRecord
}

func NewStore() *Store {
	return &Store{
		characters:    make(map[string]cultivation.Character),
		retreats:      make(map[string][]cultivation.RetreatRecord),
		breakthroughs: make(map[string][]cultivation.BreakthroughRecord),
		events:        make(map[string][]cultivation.DomainEvent),
		lifecycles:    make(map[string]ports.LifecycleRecord),
	}
}

func (s *Store) SeedCharacter(c cultivation.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[c.CharacterID] = c.Clone()
}

type txMarker struct{}

// do runs fn under the store lock unless ctx already belongs to one of this
// store's transactions, which hold the lock for their whole scope.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if owner, _ := ctx.Value(txMarker{}).(*Store); owner == s {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	characters    map[string]cultivation.Character
	retreats      map[string][]cultivation.RetreatRecord
	breakthroughs map[string][]cultivation.BreakthroughRecord
	events        map[string][]cultivation.DomainEvent
	lifecycles    map[string]ports.LifecycleRecord
}

func (s *Store) snapshot() snapshot {
	out := snapshot{
		characters:    make(map[string]cultivation.Character, len(s.characters)),
		retreats:      make(map[string][]cultivation.RetreatRecord, len(s.retreats)),
		breakthroughs: make(map[string][]cultivation.BreakthroughRecord, len(s.breakthroughs)),
		events:        make(map[string][]cultivation.DomainEvent, len(s.events)),
		lifecycles:    make(map[string]ports.LifecycleRecord, len(s.lifecycles)),
	}
	for k, v := range s.characters {
		out.characters[k] = v.Clone()
	}
	for k, v := range s.retreats {
		out.retreats[k] = append([]cultivation.RetreatRecord(nil), v...)
	}
	for k, v := range s.breakthroughs {
		out.breakthroughs[k] = append([]cultivation.BreakthroughRecord(nil), v...)
	}
	for k, v := range s.events {
		out.events[k] = append([]cultivation.DomainEvent(nil), v...)
	}
	for k, v := range s.lifecycles {
		out.lifecycles[k] = v
	}
	return out
}

func (s *Store) restore(snap snapshot) {
	s.characters = snap.characters
	s.retreats = snap.retreats
	s.breakthroughs = snap.breakthroughs
	s.events = snap.events
	s.lifecycles = snap.lifecycles
}
