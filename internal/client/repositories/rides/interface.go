// Package rides is the repository for the "rides" collection.
package rides

import (
	"context"

	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
)

type Repository interface {
	Create(ctx context.Context, r *models.Ride) result.Result[*models.Ride]
	GetByID(ctx context.Context, id string) result.Result[*models.Ride]
	Update(ctx context.Context, r *models.Ride) result.Result[result.Void]
	// UpdateStatus moves the ride to next if the lifecycle allows it.
	UpdateStatus(ctx context.Context, id string, next models.RideStatus) result.Result[*models.Ride]
	Delete(ctx context.Context, id string) result.Result[result.Void]
	ListByPassenger(ctx context.Context, passengerID string) result.Result[[]*models.Ride]
	ListByDriver(ctx context.Context, driverID string) result.Result[[]*models.Ride]
	ListByStatus(ctx context.Context, status models.RideStatus) result.Result[[]*models.Ride]
}
