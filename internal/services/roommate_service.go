package services

import (
	"context"
	"fmt"
	"log/slog"

	"roommates/internal/cache"
	"roommates/internal/core"
	"roommates/internal/log"
	"roommates/internal/metrics"
)

// IdentitySource generates a name and email for a new roommate.
type IdentitySource interface {
	Fetch(ctx context.Context) (core.Identity, error)
}

type RoommateService struct {
	cache      *cache.Cache
	identities IdentitySource
}

func NewRoommateService(c *cache.Cache, identities IdentitySource) *RoommateService {
	return &RoommateService{cache: c, identities: identities}
}

// List returns every roommate with current balances.
func (s *RoommateService) List() []core.Roommate {
	return s.cache.Roommates()
}

// Create registers a roommate. A nil identity is fetched from the identity
// source; the fetch runs before the cache lock is taken.
func (s *RoommateService) Create(ctx context.Context, id *core.Identity) (core.Roommate, error) {
	var identity core.Identity
	if id != nil {
		identity = *id
	} else {
		fetched, err := s.identities.Fetch(ctx)
		if err != nil {
			return core.Roommate{}, fmt.Errorf("fetch identity: %w", err)
		}
		identity = fetched
	}

	rm, err := s.cache.AddRoommate(ctx, identity)
	if err != nil {
		return core.Roommate{}, fmt.Errorf("add roommate: %w", err)
	}

	roommates := s.cache.Roommates()
	metrics.SetState(len(roommates), core.Total(s.cache.Expenses()))
	slog.InfoContext(ctx, "Roommate added",
		log.FieldComponent, log.ComponentRoommate,
		log.FieldRoommateID, rm.ID,
		log.FieldRoommate, rm.Nombre,
		"count", len(roommates))
	return rm, nil
}
