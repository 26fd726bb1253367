package services

import (
	"context"
	"fmt"
	"time"

	"innpilot/reservation-sync/internal/common"
	"innpilot/reservation-sync/internal/constants"
)

// UnitTypeIndexer loads a tenant's (PMS room-type id -> unit id) map
type UnitTypeIndexer interface {
	TypeIndex(ctx context.Context, tenantID string) (map[int]string, error)
}

// AccommodationResolver maps PMS room types to internal units. Misses are
// not errors: the caller stores a nil reference and the linking job fills
// it in later.
type AccommodationResolver struct {
	units UnitTypeIndexer
	cache common.CacheInterface
	ttl   time.Duration
}

func NewAccommodationResolver(units UnitTypeIndexer, cache common.CacheInterface, ttl time.Duration) *AccommodationResolver {
	return &AccommodationResolver{
		units: units,
		cache: cache,
		ttl:   ttl,
	}
}

// Resolve returns the unit id for the room type, or nil if none is linked
func (r *AccommodationResolver) Resolve(ctx context.Context, tenantID string, externalTypeID int) (*string, error) {
	index, err := r.index(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	unitID, ok := index[externalTypeID]
	if !ok {
		return nil, nil
	}
	return &unitID, nil
}

// Invalidate drops the cached index so the next Resolve reloads it
func (r *AccommodationResolver) Invalidate(tenantID string) {
	r.cache.Delete(cacheKey(tenantID))
}

func (r *AccommodationResolver) index(ctx context.Context, tenantID string) (map[int]string, error) {
	val, err := r.cache.GetOrSet(cacheKey(tenantID), r.ttl, func() (any, error) {
		return r.units.TypeIndex(ctx, tenantID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load accommodation index: %w", err)
	}

	index, ok := val.(map[int]string)
	if !ok {
		return nil, fmt.Errorf("unexpected cached accommodation index type %T", val)
	}
	return index, nil
}

func cacheKey(tenantID string) string {
	return string(constants.CachePrefixUnitTypeIndex) + tenantID
}
