// Package drivers is the repository for the "drivers" collection. Driver
// documents share their id with the driver's user document.
package drivers

import (
	"context"

	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
)

type Repository interface {
	Create(ctx context.Context, d *models.Driver) result.Result[*models.Driver]
	GetByID(ctx context.Context, id string) result.Result[*models.Driver]
	Update(ctx context.Context, d *models.Driver) result.Result[result.Void]
	UpdateStatus(ctx context.Context, id string, status models.DriverStatus) result.Result[result.Void]
	UpdateLocation(ctx context.Context, id string, c models.Coordinate) result.Result[result.Void]
	Delete(ctx context.Context, id string) result.Result[result.Void]
	ListByStatus(ctx context.Context, status models.DriverStatus) result.Result[[]*models.Driver]
	// ListAvailable returns verified, available drivers of the vehicle type.
	ListAvailable(ctx context.Context, vt models.VehicleType) result.Result[[]*models.Driver]
}
