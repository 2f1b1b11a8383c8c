// Package users is the repository for the "users" collection.
package users

import (
	"context"

	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
)

type Repository interface {
	// Create stores u under u.ID, or under a generated id when it is empty.
	Create(ctx context.Context, u *models.User) result.Result[*models.User]
	GetByID(ctx context.Context, id string) result.Result[*models.User]
	Update(ctx context.Context, u *models.User) result.Result[result.Void]
	// SetActive writes the remote active flag. Local overrides are handled
	// by services.UserStatus, not here.
	SetActive(ctx context.Context, id string, active bool) result.Result[result.Void]
	SetPhotoURL(ctx context.Context, id, url string) result.Result[result.Void]
	Delete(ctx context.Context, id string) result.Result[result.Void]
	ListByRole(ctx context.Context, role models.Role) result.Result[[]*models.User]
	ListActive(ctx context.Context) result.Result[[]*models.User]
	// Watch streams the user document; nil means it does not exist.
	Watch(ctx context.Context, id string) result.Result[<-chan *models.User]
}
