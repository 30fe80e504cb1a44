// Package session holds the client's view of who is signed in.
//
// The Store is the only writer of session state. Every transition (bootstrap,
// login, logout) takes a generation number when it starts; its outcome is
// applied only if no newer transition has started since and its context is
// still live. Readers take snapshots or subscribe to transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/core/domain"
)

type Status string

const (
	Checking        Status = "checking"
	Authenticated   Status = "authenticated"
	Unauthenticated Status = "unauthenticated"
)

// State is an immutable snapshot. User and Token are set only when Status is
// Authenticated.
type State struct {
	Status Status
	User   *domain.User
	Token  string
}

// ErrSuperseded is returned when a newer transition started before this one
// finished; its result was discarded.
var ErrSuperseded = errors.New("session: superseded by a newer transition")

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Remote is the subset of the API the session needs.
type Remote interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (*domain.User, error)
}

type Store struct {
	tokens TokenStore
	remote Remote
	log    zerolog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	nextID int
	subs   map[int]func(State)
}

// New returns a store in the Checking state. Call Bootstrap to resolve it.
func New(tokens TokenStore, remote Remote, log zerolog.Logger) *Store {
	return &Store{
		tokens: tokens,
		remote: remote,
		log:    log,
		state:  State{Status: Checking},
		subs:   make(map[int]func(State)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every state published after this call.
// fn runs on the goroutine that made the transition and must not call back
// into the Store's transition methods. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Bootstrap resolves the initial state. Without a stored token it settles on
// Unauthenticated without touching the network. A stored token the server no
// longer accepts is deleted and the store settles on Unauthenticated; that is
// not reported as an error.
func (s *Store) Bootstrap(ctx context.Context) error {
	gen := s.begin()
	if err := s.publish(ctx, gen, State{Status: Checking}, nil); err != nil {
		return err
	}

	token, err := s.tokens.Load(ctx)
	if err != nil {
		_ = s.publish(ctx, gen, State{Status: Unauthenticated}, nil)
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return s.publish(ctx, gen, State{Status: Unauthenticated}, nil)
	}

	user, err := s.remote.Me(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Debug().Err(err).Msg("stored token rejected, signing out")
		return s.publish(ctx, gen, State{Status: Unauthenticated}, func() error {
			return s.tokens.Clear(ctx)
		})
	}
	return s.publish(ctx, gen, State{Status: Authenticated, User: user, Token: token}, nil)
}

// Login authenticates, persists the token and loads the profile. Rejected
// credentials leave an authenticated or unauthenticated state as it was. A
// store still Checking (a bootstrap this login superseded) settles on
// Unauthenticated instead.
func (s *Store) Login(ctx context.Context, email, password string) (err error) {
	gen := s.begin()
	defer func() {
		if err != nil {
			s.settle(gen)
		}
	}()

	token, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.guard(ctx, gen, func() error { return s.tokens.Save(ctx, token) }); err != nil {
		return err
	}

	user, err := s.remote.Me(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = s.publish(ctx, gen, State{Status: Unauthenticated}, func() error {
			return s.tokens.Clear(ctx)
		})
		return fmt.Errorf("load profile: %w", err)
	}
	return s.publish(ctx, gen, State{Status: Authenticated, User: user, Token: token}, nil)
}

// Logout forgets the token locally. The server is not contacted; tokens are
// stateless and simply expire.
func (s *Store) Logout(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	gen := s.begin()
	return s.publish(ctx, gen, State{Status: Unauthenticated}, func() error {
		return s.tokens.Clear(ctx)
	})
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// guard runs effect while holding the lock, provided gen is still current
// and ctx is live.
func (s *Store) guard(ctx context.Context, gen uint64, effect func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(ctx, gen); err != nil {
		return err
	}
	return effect()
}

// publish runs effect (if any), installs next and notifies subscribers, all
// only if gen is still current and ctx is live. next is installed even when
// effect fails; the effect error is returned.
func (s *Store) publish(ctx context.Context, gen uint64, next State, effect func() error) error {
	s.mu.Lock()
	if err := s.checkLocked(ctx, gen); err != nil {
		s.mu.Unlock()
		return err
	}
	var effectErr error
	if effect != nil {
		effectErr = effect()
	}
	subs := s.installLocked(next)
	s.mu.Unlock()

	notify(subs, next)
	return effectErr
}

// settle moves a store left in Checking to Unauthenticated when gen is still
// the newest transition. It ignores ctx: the transition that superseded the
// bootstrap owns the resolution even if its caller has gone.
func (s *Store) settle(gen uint64) {
	next := State{Status: Unauthenticated}
	s.mu.Lock()
	if gen != s.gen || s.state.Status != Checking {
		s.mu.Unlock()
		return
	}
	subs := s.installLocked(next)
	s.mu.Unlock()

	notify(subs, next)
}

func (s *Store) installLocked(next State) []func(State) {
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}

func (s *Store) checkLocked(ctx context.Context, gen uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if gen != s.gen {
		return ErrSuperseded
	}
	return nil
}
