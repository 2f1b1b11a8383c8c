package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/common"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
	return at
}

func seed(t *testing.T, r *StoreRepository, name, email string, role models.Role) *models.User {
	t.Helper()
	u, err := models.NewUser(name, email, role)
	require.NoError(t, err)
	res := r.Create(context.Background(), u)
	require.True(t, res.IsSuccess(), "create: %v", res.Err())
	return res.Value()
}

func TestCreateAndGet(t *testing.T) {
	at := fixedNow(t)
	r := NewStoreRepository(docstore.NewMemory())
	ctx := context.Background()

	u := seed(t, r, "Ann", "ann@example.com", models.RolePassenger)
	require.NotEmpty(t, u.ID)

	got := r.GetByID(ctx, u.ID)
	require.True(t, got.IsSuccess())
	assert.Equal(t, "Ann", got.Value().Name)
	assert.Equal(t, u.ID, got.Value().ID)
	assert.True(t, got.Value().Active)
	assert.True(t, at.Equal(got.Value().UpdatedAt))
}

func TestCreateWithExplicitID(t *testing.T) {
	r := NewStoreRepository(docstore.NewMemory())
	u := &models.User{ID: "u-42", Name: "Bo", Email: "bo@example.com", Role: models.RoleDriver}

	res := r.Create(context.Background(), u)
	require.True(t, res.IsSuccess())
	assert.Equal(t, "u-42", res.Value().ID)
	assert.True(t, r.GetByID(context.Background(), "u-42").IsSuccess())
}

func TestCreateRejectsInvalid(t *testing.T) {
	r := NewStoreRepository(docstore.NewMemory())
	res := r.Create(context.Background(), &models.User{Name: "x", Email: "nope", Role: models.RoleAdmin})
	assert.ErrorIs(t, res.Err(), models.ErrInvalidEmail)
}

func TestGetMissing(t *testing.T) {
	r := NewStoreRepository(docstore.NewMemory())
	res := r.GetByID(context.Background(), "ghost")
	assert.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Err(), common.ErrorNotFound)
	assert.Nil(t, res.Value())
}

func TestUpdateSetActiveAndPhoto(t *testing.T) {
	fixedNow(t)
	r := NewStoreRepository(docstore.NewMemory())
	ctx := context.Background()
	u := seed(t, r, "Ann", "ann@example.com", models.RolePassenger)

	u.Phone = "+7 700 000 0000"
	require.True(t, r.Update(ctx, u).IsSuccess())

	require.True(t, r.SetActive(ctx, u.ID, false).IsSuccess())
	require.True(t, r.SetPhotoURL(ctx, u.ID, "https://cdn/x.jpg").IsSuccess())

	got := r.GetByID(ctx, u.ID).Value()
	assert.Equal(t, "+7 700 000 0000", got.Phone)
	assert.False(t, got.Active)
	assert.Equal(t, "https://cdn/x.jpg", got.PhotoURL)

	assert.ErrorIs(t, r.SetActive(ctx, "ghost", true).Err(), common.ErrorNotFound)
}

func TestListByRoleAndActive(t *testing.T) {
	r := NewStoreRepository(docstore.NewMemory())
	ctx := context.Background()
	a := seed(t, r, "Ann", "ann@example.com", models.RolePassenger)
	seed(t, r, "Bo", "bo@example.com", models.RoleDriver)
	seed(t, r, "Cy", "cy@example.com", models.RoleDriver)
	require.True(t, r.SetActive(ctx, a.ID, false).IsSuccess())

	drivers := r.ListByRole(ctx, models.RoleDriver)
	require.True(t, drivers.IsSuccess())
	assert.Len(t, drivers.Value(), 2)

	active := r.ListActive(ctx)
	require.True(t, active.IsSuccess())
	assert.Len(t, active.Value(), 2)
	for _, u := range active.Value() {
		assert.NotEqual(t, a.ID, u.ID)
	}
}

func TestDeleteAndWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewStoreRepository(docstore.NewMemory())
	u := seed(t, r, "Ann", "ann@example.com", models.RolePassenger)

	w := r.Watch(ctx, u.ID)
	require.True(t, w.IsSuccess())
	ch := w.Value()
	first := <-ch
	require.NotNil(t, first)
	assert.True(t, first.Active)

	require.True(t, r.Delete(ctx, u.ID).IsSuccess())
	assert.Nil(t, <-ch)
}
