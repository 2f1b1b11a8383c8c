package rides

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/collection"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
	"github.com/dmitrijs2005/ridekeeper/internal/common"
)

type StoreRepository struct {
	rides collection.Typed[models.Ride]
}

func NewStoreRepository(store docstore.Store) *StoreRepository {
	return &StoreRepository{
		rides: collection.New(store, common.CollectionRides, func(r *models.Ride, id string) { r.ID = id }),
	}
}

func (s *StoreRepository) Create(ctx context.Context, r *models.Ride) result.Result[*models.Ride] {
	if err := r.Validate(); err != nil {
		return result.Fail[*models.Ride](err)
	}
	if _, err := s.rides.Create(ctx, r.ID, r); err != nil {
		return result.Fail[*models.Ride](err)
	}
	return result.Ok(r)
}

func (s *StoreRepository) GetByID(ctx context.Context, id string) result.Result[*models.Ride] {
	return result.From(s.rides.Get(ctx, id))
}

func (s *StoreRepository) Update(ctx context.Context, r *models.Ride) result.Result[result.Void] {
	if err := r.Validate(); err != nil {
		return result.Fail[result.Void](err)
	}
	return result.Check(s.rides.Replace(ctx, r.ID, r))
}

func (s *StoreRepository) UpdateStatus(ctx context.Context, id string, next models.RideStatus) result.Result[*models.Ride] {
	r, err := s.rides.Get(ctx, id)
	if err != nil {
		return result.Fail[*models.Ride](err)
	}
	if err := r.Transition(next); err != nil {
		return result.Fail[*models.Ride](fmt.Errorf("%s -> %s: %w", r.Status, next, err))
	}
	if err := s.rides.Replace(ctx, id, r); err != nil {
		return result.Fail[*models.Ride](err)
	}
	return result.Ok(r)
}

func (s *StoreRepository) Delete(ctx context.Context, id string) result.Result[result.Void] {
	return result.Check(s.rides.Delete(ctx, id))
}

func (s *StoreRepository) list(ctx context.Context, filters ...docstore.Filter) result.Result[[]*models.Ride] {
	rides, err := s.rides.List(ctx, filters...)
	if err != nil {
		return result.Fail[[]*models.Ride](err)
	}
	// newest first
	slices.SortStableFunc(rides, func(a, b *models.Ride) int {
		return b.RequestedAt.Compare(a.RequestedAt)
	})
	return result.Ok(rides)
}

func (s *StoreRepository) ListByPassenger(ctx context.Context, passengerID string) result.Result[[]*models.Ride] {
	return s.list(ctx, docstore.Eq("passenger_id", passengerID))
}

func (s *StoreRepository) ListByDriver(ctx context.Context, driverID string) result.Result[[]*models.Ride] {
	return s.list(ctx, docstore.Eq("driver_id", driverID))
}

func (s *StoreRepository) ListByStatus(ctx context.Context, status models.RideStatus) result.Result[[]*models.Ride] {
	return s.list(ctx, docstore.Eq("status", string(status)))
}
