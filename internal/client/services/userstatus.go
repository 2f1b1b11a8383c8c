package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
	"github.com/dmitrijs2005/ridekeeper/internal/client/overrides"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

// UserStatus shows a user's active flag optimistically: a local change is
// visible immediately and stays visible until the remote document agrees.
type UserStatus struct {
	users  users.Repository
	cache  *overrides.Cache
	logger logging.Logger

	mu       sync.Mutex
	inflight map[string]int
}

func NewUserStatus(repo users.Repository, cache *overrides.Cache, logger logging.Logger) *UserStatus {
	return &UserStatus{
		users:    repo,
		cache:    cache,
		logger:   logger.With("module", "user_status"),
		inflight: make(map[string]int),
	}
}

func (s *UserStatus) begin(id string) {
	s.mu.Lock()
	s.inflight[id]++
	s.mu.Unlock()
}

// end reports whether this was the last outstanding write for id.
func (s *UserStatus) end(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id]--
	if s.inflight[id] > 0 {
		return false
	}
	delete(s.inflight, id)
	return true
}

// SetActive shows active for id right away and writes it remotely. Once
// the last outstanding write for id succeeds, the remote document is read
// back and the override is cleared; if the remote value disagrees (an
// earlier write landed after a later one) the remote value is shown. On
// failure the override is dropped so the remote value shows again.
func (s *UserStatus) SetActive(ctx context.Context, id string, active bool) result.Result[result.Void] {
	s.begin(id)
	s.cache.SetOverride(ctx, id, active)
	s.cache.AddPendingOperation(ctx, id)

	res := s.users.SetActive(ctx, id, active)
	last := s.end(id)

	if !res.IsSuccess() {
		s.logger.Warn(ctx, "remote status write failed", "user", id, "active", active, "error", res.Err())
		if last {
			s.cache.ClearOverride(ctx, id)
		}
		return res
	}

	if last {
		s.cache.RemovePendingOperation(ctx, id)
		if u := s.users.GetByID(ctx, id); u.IsSuccess() {
			s.settle(ctx, id, u.Value().Active)
		}
	}
	return res
}

// settle runs after the last outstanding write for id has finished. Writes
// can land remotely in another order than they were issued, so the remote
// value read back is final and the override goes whether or not it agrees.
func (s *UserStatus) settle(ctx context.Context, id string, remote bool) {
	s.mu.Lock()
	busy := s.inflight[id] > 0
	s.mu.Unlock()
	if busy || s.cache.IsPending(id) {
		return
	}

	if v, ok := s.cache.GetOverride(id); ok && v != remote {
		s.logger.Info(ctx, "remote disagrees with override after last write, showing remote", "user", id, "override", v, "remote", remote)
	}
	s.cache.ClearOverride(ctx, id)
}

// Effective returns the value to display given the remote one.
func (s *UserStatus) Effective(id string, remote bool) bool {
	if v, ok := s.cache.GetOverride(id); ok {
		return v
	}
	return remote
}

// IsActive returns the override if there is one, otherwise the remote flag.
func (s *UserStatus) IsActive(ctx context.Context, id string) result.Result[bool] {
	if v, ok := s.cache.GetOverride(id); ok {
		return result.Ok(v)
	}
	return result.Map(s.users.GetByID(ctx, id), func(u *models.User) bool { return u.Active })
}

// Reconcile is called with every observed remote value. The override is
// cleared once no write is pending and the remote value has caught up. It
// returns the value to display.
func (s *UserStatus) Reconcile(ctx context.Context, id string, remote bool) bool {
	v, ok := s.cache.GetOverride(id)
	if !ok {
		return remote
	}
	if s.cache.IsPending(id) {
		return v
	}
	if v == remote {
		s.cache.ClearOverride(ctx, id)
		s.logger.Debug(ctx, "override reconciled", "user", id, "active", remote)
	}
	return v
}

// Follow watches the user's document, reconciles every notification and
// emits the value to display. The channel closes when ctx is done.
func (s *UserStatus) Follow(ctx context.Context, id string) result.Result[<-chan bool] {
	w := s.users.Watch(ctx, id)
	if !w.IsSuccess() {
		return result.Fail[<-chan bool](w.Err())
	}

	out := make(chan bool, 1)
	go func() {
		defer close(out)
		for u := range w.Value() {
			if u == nil {
				s.logger.Debug(ctx, "followed user is gone", "user", id)
				continue
			}
			shown := s.Reconcile(ctx, id, u.Active)
			select {
			case out <- shown:
			case <-ctx.Done():
				return
			}
		}
	}()
	return result.Ok[<-chan bool](out)
}
