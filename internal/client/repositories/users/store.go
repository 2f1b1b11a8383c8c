package users

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
	users collection.Typed[models.User]
}

func NewStoreRepository(store docstore.Store) *StoreRepository {
	return &StoreRepository{
		users: collection.New(store, common.CollectionUsers, func(u *models.User, id string) { u.ID = id }),
	}
}

var now = func() time.Time { return time.Now().UTC() }

func (r *StoreRepository) Create(ctx context.Context, u *models.User) result.Result[*models.User] {
	if err := u.Validate(); err != nil {
		return result.Fail[*models.User](err)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	u.UpdatedAt = now()
	if _, err := r.users.Create(ctx, u.ID, u); err != nil {
		return result.Fail[*models.User](err)
	}
	return result.Ok(u)
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) result.Result[*models.User] {
	return result.From(r.users.Get(ctx, id))
}

func (r *StoreRepository) Update(ctx context.Context, u *models.User) result.Result[result.Void] {
	if err := u.Validate(); err != nil {
		return result.Fail[result.Void](err)
	}
	u.UpdatedAt = now()
	return result.Check(r.users.Replace(ctx, u.ID, u))
}

func (r *StoreRepository) SetActive(ctx context.Context, id string, active bool) result.Result[result.Void] {
	return result.Check(r.users.Patch(ctx, id, map[string]any{
		"active":     active,
		"updated_at": now().Format(time.RFC3339Nano),
	}))
}

func (r *StoreRepository) SetPhotoURL(ctx context.Context, id, url string) result.Result[result.Void] {
	return result.Check(r.users.Patch(ctx, id, map[string]any{
		"photo_url":  url,
		"updated_at": now().Format(time.RFC3339Nano),
	}))
}

func (r *StoreRepository) Delete(ctx context.Context, id string) result.Result[result.Void] {
	return result.Check(r.users.Delete(ctx, id))
}

func (r *StoreRepository) ListByRole(ctx context.Context, role models.Role) result.Result[[]*models.User] {
	return result.From(r.users.List(ctx, docstore.Eq("role", string(role))))
}

func (r *StoreRepository) ListActive(ctx context.Context) result.Result[[]*models.User] {
	return result.From(r.users.List(ctx, docstore.Eq("active", true)))
}

func (r *StoreRepository) Watch(ctx context.Context, id string) result.Result[<-chan *models.User] {
	return result.From(r.users.Watch(ctx, id))
}
