package drivers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/collection"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
	"github.com/dmitrijs2005/ridekeeper/internal/common"
)

type StoreRepository struct {
	drivers collection.Typed[models.Driver]
}

func NewStoreRepository(store docstore.Store) *StoreRepository {
	return &StoreRepository{
		drivers: collection.New(store, common.CollectionDrivers, func(d *models.Driver, id string) { d.ID = id }),
	}
}

func stamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func (r *StoreRepository) Create(ctx context.Context, d *models.Driver) result.Result[*models.Driver] {
	if err := d.Validate(); err != nil {
		return result.Fail[*models.Driver](err)
	}
	d.UpdatedAt = time.Now().UTC()
	if _, err := r.drivers.Create(ctx, d.UserID, d); err != nil {
		return result.Fail[*models.Driver](err)
	}
	return result.Ok(d)
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) result.Result[*models.Driver] {
	return result.From(r.drivers.Get(ctx, id))
}

func (r *StoreRepository) Update(ctx context.Context, d *models.Driver) result.Result[result.Void] {
	if err := d.Validate(); err != nil {
		return result.Fail[result.Void](err)
	}
	d.UpdatedAt = time.Now().UTC()
	return result.Check(r.drivers.Replace(ctx, d.ID, d))
}

func (r *StoreRepository) UpdateStatus(ctx context.Context, id string, status models.DriverStatus) result.Result[result.Void] {
	if !status.Valid() {
		return result.Fail[result.Void](models.ErrInvalidDriverStatus)
	}
	return result.Check(r.drivers.Patch(ctx, id, map[string]any{
		"status":     string(status),
		"updated_at": stamp(),
	}))
}

func (r *StoreRepository) UpdateLocation(ctx context.Context, id string, c models.Coordinate) result.Result[result.Void] {
	if err := c.Validate(); err != nil {
		return result.Fail[result.Void](err)
	}
	return result.Check(r.drivers.Patch(ctx, id, map[string]any{
		"location":   map[string]any{"lat": c.Latitude, "lng": c.Longitude},
		"updated_at": stamp(),
	}))
}

func (r *StoreRepository) Delete(ctx context.Context, id string) result.Result[result.Void] {
	return result.Check(r.drivers.Delete(ctx, id))
}

func (r *StoreRepository) ListByStatus(ctx context.Context, status models.DriverStatus) result.Result[[]*models.Driver] {
	return result.From(r.drivers.List(ctx, docstore.Eq("status", string(status))))
}

func (r *StoreRepository) ListAvailable(ctx context.Context, vt models.VehicleType) result.Result[[]*models.Driver] {
	return result.From(r.drivers.List(ctx,
		docstore.Eq("status", string(models.DriverStatusAvailable)),
		docstore.Eq("vehicle_type", string(vt)),
		docstore.Eq("verified", true),
	))
}
