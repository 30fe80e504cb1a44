package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI accepts one account (alice@example.com / "correct horse") and
// counts /auth/me calls.
type fakeAPI struct {
	meCalls atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/auth/register":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "alice@example.com" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"email already in use"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"user":{"id":"u2","email":"` + body["email"] + `","role":"user"}}`))
	case "/api/auth/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "alice@example.com" || body["password"] != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-alice","user":{"id":"u1"}}`))
	case "/api/auth/me":
		f.meCalls.Add(1)
		if !f.authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"alice@example.com","role":"user"}}`))
	case "/api/projects":
		if !f.authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Garden","status":"In Progress","scheduled_completion":"2026-05-01T00:00:00Z","task_count":3}]`))
	case "/api/tasks":
		if !f.authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`[{"id":"t1","title":"Dig","progress":40,"project_id":"p1","project_name":"Garden"}]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer tok-alice" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authentication required"}`))
		return false
	}
	return true
}

type harness struct {
	api   *fakeAPI
	env   envconfig.Lookuper
	stdin string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := &fakeAPI{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	return &harness{
		api: fake,
		env: envconfig.MapLookuper(map[string]string{
			"TRACKER_API_URL":  srv.URL + "/api",
			"TRACKER_STATE_DB": filepath.Join(t.TempDir(), "state.db"),
		}),
	}
}

func (h *harness) run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, h.env, stdio{
		in:  strings.NewReader(h.stdin),
		out: &out,
		err: &errOut,
	})
	return code, out.String(), errOut.String()
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run()
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage: tracker")

	code, _, stderr = h.run("frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestWhoami_WithoutSessionMakesNoCall(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("whoami")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "not signed in")
	assert.Zero(t, h.api.meCalls.Load())
}

func TestLoginThenListThenLogout(t *testing.T) {
	h := newHarness(t)

	h.stdin = "correct horse\n"
	code, stdout, stderr := h.run("login", "-email", "alice@example.com")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "signed in as alice@example.com")

	code, stdout, stderr = h.run("whoami")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "alice@example.com role=user")

	code, stdout, _ = h.run("projects")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Garden")
	assert.Contains(t, stdout, "2026-05-01")

	code, stdout, _ = h.run("tasks")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "40%")

	code, stdout, _ = h.run("logout")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "signed out")

	calls := h.api.meCalls.Load()
	code, _, _ = h.run("projects")
	assert.Equal(t, exitError, code)
	assert.Equal(t, calls, h.api.meCalls.Load(), "no token left, so no /auth/me call")
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.stdin = "nope\n"

	code, _, stderr := h.run("login", "-email", "alice@example.com")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "invalid email or password")
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	h.stdin = "correct horse\n"

	code, stdout, stderr := h.run("register", "-email", "bob@example.com")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "registered bob@example.com")

	code, _, stderr = h.run("register", "-email", "alice@example.com")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "already registered")

	code, _, stderr = h.run("register")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "-email is required")
}

func TestLogin_HonoursConfiguredTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	h := newHarness(t)
	h.env = envconfig.MultiLookuper(
		envconfig.MapLookuper(map[string]string{
			"TRACKER_API_URL": slow.URL + "/api",
			"TRACKER_TIMEOUT": "100ms",
		}),
		h.env,
	)
	h.stdin = "correct horse\n"

	start := time.Now()
	code, _, _ := h.run("login", "-email", "alice@example.com")
	assert.Equal(t, exitError, code)
	assert.Less(t, time.Since(start), 3*time.Second)
}
