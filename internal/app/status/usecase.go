package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/app/progression"
	"xiuxian/internal/domain/cultivation"
)

var ErrInvalidRequest = errors.New("invalid status request")

type UseCase struct {
	Chars ports.CharacterRepository
	Now   func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.CharacterID) == "" {
		return Response{}, ErrInvalidRequest
	}
	c, err := u.Chars.GetByCharacterID(ctx, req.CharacterID)
	if err != nil {
		return Response{}, err
	}
	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	c.Progress.ExpCap = cultivation.ExpCap(c.Realm, c.Stage)
	resp := Response{
		Character:         progression.SnapshotOf(c),
		SpiritualRoots:    c.SpiritualRoots,
		SpiritStones:      c.SpiritStones,
		Inventory:         c.Inventory,
		RemainingLifespan: c.RemainingLifespan(),
		EpiphanyActive:    c.Progress.EpiphanyActive(nowFn()),
	}
	if next, ok := c.Tier().Next(); ok && !c.Deceased {
		resp.NextTier = &next
		if kind, ok := cultivation.BreakthroughTypeFor(c.Progress); ok {
			resp.CanBreakthrough = true
			resp.BreakthroughType = kind
		}
	}
	if resp.Inventory == nil {
		resp.Inventory = []cultivation.InventoryItem{}
	}
	return resp, nil
}
