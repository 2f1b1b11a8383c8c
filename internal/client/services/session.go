package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

// Remote is the part of docstore.GRPCStore a session needs.
type Remote interface {
	Login(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Session tracks whether the document server is reachable.
type Session struct {
	remote Remote
	logger logging.Logger
	online atomic.Bool
}

func NewSession(remote Remote, logger logging.Logger) *Session {
	return &Session{remote: remote, logger: logger.With("module", "session")}
}

func (s *Session) Login(ctx context.Context) error {
	err := s.remote.Login(ctx)
	s.observe(err)
	return err
}

func (s *Session) Ping(ctx context.Context) error {
	err := s.remote.Ping(ctx)
	s.observe(err)
	return err
}

func (s *Session) observe(err error) {
	switch {
	case err == nil:
		s.online.Store(true)
	case errors.Is(err, docstore.ErrUnavailable):
		s.online.Store(false)
	}
}

func (s *Session) Online() bool { return s.online.Load() }

// Watch pings every interval and calls onChange whenever connectivity
// flips. It returns when ctx is done.
func (s *Session) Watch(ctx context.Context, interval time.Duration, onChange func(online bool)) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			was := s.Online()
			pctx, cancel := context.WithTimeout(ctx, interval)
			err := s.Ping(pctx)
			cancel()
			if err != nil && !errors.Is(err, docstore.ErrUnavailable) {
				s.logger.Warn(ctx, "ping failed", "error", err)
			}
			if now := s.Online(); now != was && onChange != nil {
				onChange(now)
			}
		}
	}
}

func (s *Session) Close() error {
	return s.remote.Close()
}
