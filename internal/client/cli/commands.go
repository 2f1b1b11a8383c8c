package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
)

var (
	errUsage          = errors.New("wrong arguments")
	errPhotosDisabled = errors.New("photo storage is not configured")
)

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) report(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrUnavailable):
		a.setMode(ModeOffline)
		printlnFn("Server unavailable:", err)
	case errors.Is(err, docstore.ErrUnauthorized):
		printlnFn("Not authorized, try 'login'")
	default:
		printlnFn("Error:", err)
	}
	return err
}

// Login authenticates with the configured client id, prompting for the
// secret if none was configured.
func (a *App) Login(ctx context.Context, _ []string) error {
	if a.config.ClientSecret == "" && a.secrets != nil {
		secret, err := getPassword(a.out)
		if err != nil {
			return a.report(err)
		}
		a.secrets.SetSecret(string(secret))
		clear(secret)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.session.Login(ctx); err != nil {
		return a.report(err)
	}

	a.mu.Lock()
	a.loggedIn = true
	a.mu.Unlock()
	a.setMode(ModeOnline)
	printlnFn("Login successful")
	return nil
}

func (a *App) ShowUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: user <id>")
		return errUsage
	}
	id := args[0]

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res := a.repos.Users.GetByID(ctx, id)
	if !res.IsSuccess() {
		return a.report(res.Err())
	}
	u := res.Value()

	active := a.status.Reconcile(ctx, id, u.Active)
	state := "inactive"
	if active {
		state = "active"
	}
	if _, ok := a.cache.GetOverride(id); ok {
		state += " (local)"
	}

	printlnFn(fmt.Sprintf("%s  %s <%s>  %s  %s  rating %.1f", u.ID, u.Name, u.Email, u.Role, state, u.Rating))
	if u.PhotoURL != "" {
		printlnFn("photo:", u.PhotoURL)
	}
	return nil
}

func (a *App) SetActive(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printlnFn("Usage: active <id> on|off")
		return errUsage
	}

	var active bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "1":
		active = true
	case "off", "false", "0":
	default:
		printlnFn("Usage: active <id> on|off")
		return errUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.report(a.status.SetActive(ctx, args[0], active).Err()); err != nil {
		return err
	}
	printlnFn("Updated", args[0])
	return nil
}

// Overrides lists local overrides; "overrides clear" drops all of them.
func (a *App) Overrides(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		a.cache.ClearAllOverrides(ctx)
		printlnFn("Overrides cleared")
		return nil
	}

	snap := a.cache.Snapshot()
	ids := make([]string, 0)
	for id := range snap.Overrides() {
		ids = append(ids, id)
	}
	for id := range snap.Pending() {
		if _, ok := snap.Override(id); !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	if len(ids) == 0 {
		printlnFn("No overrides")
		return nil
	}
	for _, id := range ids {
		line := id
		if v, ok := snap.Override(id); ok {
			line = fmt.Sprintf("%s=%t", id, v)
		}
		if snap.IsPending(id) {
			line += " (pending)"
		}
		printlnFn(line)
	}
	return nil
}

func (a *App) ListRides(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: rides <passengerID>")
		return errUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res := a.repos.Rides.ListByPassenger(ctx, args[0])
	if !res.IsSuccess() {
		return a.report(res.Err())
	}
	if len(res.Value()) == 0 {
		printlnFn("No rides")
	}
	for _, r := range res.Value() {
		fare := r.EstimatedFare
		if r.FinalFare > 0 {
			fare = r.FinalFare
		}
		printlnFn(fmt.Sprintf("%s  %s  %s  %s -> %s  %.2f",
			r.ID, r.RequestedAt.Format("2006-01-02 15:04"), r.Status, r.Pickup.Address, r.Destination.Address, fare))
	}
	return nil
}

func (a *App) ListDrivers(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: drivers <status>")
		return errUsage
	}
	status, err := models.ParseDriverStatus(args[0])
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res := a.repos.Drivers.ListByStatus(ctx, status)
	if !res.IsSuccess() {
		return a.report(res.Err())
	}
	if len(res.Value()) == 0 {
		printlnFn("No drivers")
	}
	for _, d := range res.Value() {
		printlnFn(fmt.Sprintf("%s  %s  %s %s  verified=%t  rating %.1f",
			d.ID, d.VehicleType, d.Vehicle.Plate, d.Vehicle.Model, d.Verified, d.Rating))
	}
	return nil
}

func (a *App) UploadPhoto(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printlnFn("Usage: photo <userID> <path>")
		return errUsage
	}
	if a.photos == nil {
		return a.report(errPhotosDisabled)
	}

	res := a.photos.Upload(ctx, args[0], args[1])
	if !res.IsSuccess() {
		return a.report(res.Err())
	}
	printlnFn("Uploaded:", res.Value())
	return nil
}
