// Package guard decides what a screen or command may do given the session
// state. Decisions are recomputed from the current state every time; nothing
// is cached.
package guard

import (
	"sync"

	"github.com/taskboard/tracker/internal/client/session"
)

type Action int

const (
	// Loading means the session is still resolving; do nothing yet.
	Loading Action = iota
	// Redirect sends the user to Decision.Target.
	Redirect
	// Render lets the protected content through.
	Render
)

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	}
	return "unknown"
}

// PublicRoute is where unauthenticated users are sent.
const PublicRoute = "login"

type Decision struct {
	Action Action
	Target string
}

// Decide maps a session state to a Decision.
func Decide(st session.State) Decision {
	switch st.Status {
	case session.Authenticated:
		return Decision{Action: Render}
	case session.Unauthenticated:
		return Decision{Action: Redirect, Target: PublicRoute}
	default:
		return Decision{Action: Loading}
	}
}

// Source is what a Watcher observes; *session.Store satisfies it.
type Source interface {
	Snapshot() session.State
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// Watcher re-evaluates Decide on every published transition.
type Watcher struct {
	once        sync.Once
	unsubscribe func()
}

// Watch calls fn with the current decision, then again after every
// transition until Stop. Each call reads a fresh snapshot so a late
// notification never replays an older state.
func Watch(src Source, fn func(Decision)) *Watcher {
	w := &Watcher{}
	w.unsubscribe = src.Subscribe(func(session.State) {
		fn(Decide(src.Snapshot()))
	})
	fn(Decide(src.Snapshot()))
	return w
}

func (w *Watcher) Stop() {
	w.once.Do(w.unsubscribe)
}
