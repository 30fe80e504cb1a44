package guard

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/tracker/internal/client/session"
	"github.com/taskboard/tracker/internal/core/domain"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		state session.State
		want  Decision
	}{
		{session.State{Status: session.Checking}, Decision{Action: Loading}},
		{session.State{Status: session.Unauthenticated}, Decision{Action: Redirect, Target: PublicRoute}},
		{session.State{Status: session.Authenticated, User: &domain.User{ID: "u1"}, Token: "t"}, Decision{Action: Render}},
		{session.State{}, Decision{Action: Loading}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Decide(tc.state), "status %q", tc.state.Status)
	}
}

type tokens struct{ token string }

func (t *tokens) Load(context.Context) (string, error) { return t.token, nil }
func (t *tokens) Save(_ context.Context, token string) error { t.token = token; return nil }
func (t *tokens) Clear(context.Context) error { t.token = ""; return nil }

type remote struct{}

func (remote) Login(_ context.Context, email, _ string) (string, error) { return "tok", nil }
func (remote) Me(context.Context, string) (*domain.User, error) {
	return &domain.User{ID: "u1", Role: domain.RoleUser}, nil
}

func TestWatcher_FollowsStore(t *testing.T) {
	store := session.New(&tokens{}, remote{}, zerolog.Nop())
	ctx := context.Background()

	var mu sync.Mutex
	var actions []Action
	w := Watch(store, func(d Decision) {
		mu.Lock()
		actions = append(actions, d.Action)
		mu.Unlock()
	})

	require.NoError(t, store.Bootstrap(ctx))
	require.NoError(t, store.Login(ctx, "a@example.com", "pw"))
	require.NoError(t, store.Logout(ctx))
	w.Stop()
	w.Stop()
	require.NoError(t, store.Login(ctx, "a@example.com", "pw"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Action{Loading, Loading, Redirect, Render, Redirect}, actions)
}
