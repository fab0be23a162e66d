// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"stayease/internal/common/logger"
	"stayease/internal/kvstore"
	"stayease/internal/task"
)

// Mode is the tab shown on the auth screen. Both modes sign in identically.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

var ErrInvalidMode = errors.New("invalid auth mode")

// Session holds the persisted signed-in flag.
type Session struct {
	store kvstore.Store
	delay time.Duration
	log   logger.Logger

	mu            sync.Mutex
	authenticated bool
	mode          Mode
	pending       *task.Task[bool]
}

func New(store kvstore.Store, delay time.Duration, log logger.Logger) *Session {
	return &Session{
		store: store,
		delay: delay,
		log:   log.WithFields(map[string]interface{}{"component": "session"}),
		mode:  ModeLogin,
	}
}

// Load reads the persisted flag. Anything other than "true" reads as
// signed out.
func (s *Session) Load(ctx context.Context) error {
	raw, found, err := s.store.Get(ctx, kvstore.KeyAuth)
	if err != nil {
		return &kvstore.OpError{Op: kvstore.OpGet, Key: kvstore.KeyAuth, Err: err}
	}
	authed := false
	if found {
		authed, _ = strconv.ParseBool(raw)
	}

	s.mu.Lock()
	s.authenticated = authed
	s.mu.Unlock()

	s.log.Debug("auth flag loaded", map[string]interface{}{"authenticated": authed, "found": found})
	return nil
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// SigningIn reports whether a sign-in is in flight.
func (s *Session) SigningIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) SetMode(m Mode) error {
	if m != ModeLogin && m != ModeSignup {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	return nil
}

// SignIn starts a simulated sign-in on g. The flag flips to true and is
// persisted once the delay elapses. A second call while one is in flight
// returns the same task.
func (s *Session) SignIn(g *task.Group) *task.Task[bool] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return s.pending
	}

	s.log.Info("sign-in started", map[string]interface{}{"mode": s.mode})
	t := task.Go(g, s.delay, func(ctx context.Context) (bool, error) {
		err := s.set(ctx, true)

		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()

		if err != nil {
			return false, err
		}
		return true, nil
	})
	s.pending = t

	// a cancelled task never runs its body, so clear pending on exit too
	go func() {
		<-t.Done()
		s.mu.Lock()
		if s.pending == t {
			s.pending = nil
		}
		s.mu.Unlock()
	}()
	return t
}

// SignOut persists false immediately.
func (s *Session) SignOut(ctx context.Context) error {
	return s.set(ctx, false)
}

func (s *Session) set(ctx context.Context, authed bool) error {
	if err := s.store.Set(ctx, kvstore.KeyAuth, strconv.FormatBool(authed)); err != nil {
		s.log.Error("failed to persist auth flag", map[string]interface{}{"error": err.Error()})
		return &kvstore.OpError{Op: kvstore.OpSet, Key: kvstore.KeyAuth, Err: err}
	}

	s.mu.Lock()
	s.authenticated = authed
	s.mu.Unlock()

	s.log.Info("auth flag updated", map[string]interface{}{"authenticated": authed})
	return nil
}
