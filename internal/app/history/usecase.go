package history

import (
	"context"
	"errors"
	"strings"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

var ErrInvalidRequest = errors.New("invalid history request")

type UseCase struct {
	History ports.HistoryRepository
	Events  ports.EventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.CharacterID) == "" || req.Limit < 0 {
		return Response{}, ErrInvalidRequest
	}
	retreats, err := u.History.ListRetreats(ctx, req.CharacterID, req.Limit)
	if err != nil {
		return Response{}, err
	}
	breakthroughs, err := u.History.ListBreakthroughs(ctx, req.CharacterID, req.Limit)
	if err != nil {
		return Response{}, err
	}
	events, err := u.Events.ListByCharacterID(ctx, req.CharacterID, req.Limit)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return Response{}, err
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	return Response{
		Retreats:      retreats,
		Breakthroughs: breakthroughs,
		Events:        events,
		Stats:         fold(events),
	}, nil
}

func filterByTimeWindow(events []cultivation.DomainEvent, from, to int64) []cultivation.DomainEvent {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]cultivation.DomainEvent, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func fold(events []cultivation.DomainEvent) Stats {
	var s Stats
	for _, evt := range events {
		switch evt.Type {
		case "cultivation_completed":
			s.RetreatYears += int(num(evt.Payload["years"]))
		case "epiphany_triggered":
			s.Epiphanies++
		case "breakthrough_succeeded":
			s.BreakthroughSuccesses++
		case "breakthrough_failed":
			s.BreakthroughFailures++
		case "inner_demon_triggered":
			s.InnerDemonEpisodes++
		}
	}
	return s
}

// num accepts both in-process payloads and ones decoded from JSON.
func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
