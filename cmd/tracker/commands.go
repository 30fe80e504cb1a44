package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/taskboard/tracker/internal/client/api"
	"github.com/taskboard/tracker/internal/client/config"
	"github.com/taskboard/tracker/internal/client/guard"
	"github.com/taskboard/tracker/internal/client/session"
	"github.com/taskboard/tracker/internal/client/tokenstore"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `usage: tracker <command> [flags]

commands:
  register   create an account
  login      sign in and remember the session
  logout     forget the stored session
  whoami     show the signed-in user
  projects   list your projects
  tasks      list your tasks
`

var errNotSignedIn = errors.New("not signed in; run 'tracker login'")

type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type app struct {
	io      stdio
	in      *bufio.Reader
	client  *api.Client
	session *session.Store
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"register": cmdRegister,
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"projects": cmdProjects,
	"tasks":    cmdTasks,
}

func run(ctx context.Context, args []string, env envconfig.Lookuper, std stdio) int {
	if len(args) == 0 {
		fmt.Fprint(std.err, usage)
		return exitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(std.err, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	cfg, err := config.LoadWith(ctx, env)
	if err != nil {
		fmt.Fprintln(std.err, err)
		return exitError
	}
	log := newLogger(cfg.LogLevel, std.err)

	if err := os.MkdirAll(filepath.Dir(cfg.StateDB), 0o700); err != nil {
		fmt.Fprintf(std.err, "state dir: %v\n", err)
		return exitError
	}
	tokens, err := tokenstore.Open(ctx, cfg.StateDB)
	if err != nil {
		fmt.Fprintln(std.err, err)
		return exitError
	}
	defer tokens.Close()

	client := api.New(cfg.APIURL, api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	a := &app{
		io:      std,
		in:      bufio.NewReader(std.in),
		client:  client,
		session: session.New(tokens, client, log),
	}

	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		fmt.Fprintln(std.err, "error:", err)
		return exitError
	}
	return exitOK
}

func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}

func newFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

// requireSession bootstraps the session and lets the guard decide whether
// the command may proceed.
func (a *app) requireSession(ctx context.Context) (session.State, error) {
	if err := a.session.Bootstrap(ctx); err != nil {
		return session.State{}, err
	}
	st := a.session.Snapshot()
	switch d := guard.Decide(st); d.Action {
	case guard.Render:
		return st, nil
	case guard.Redirect:
		return st, errNotSignedIn
	default:
		return st, fmt.Errorf("session still %s", st.Status)
	}
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register", a.io.err)
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "optional display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := promptPassword(a.in, a.io.err)
	if err != nil {
		return err
	}
	user, err := a.client.Register(ctx, *email, password, *username)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return errors.New("that email is already registered")
		}
		return err
	}
	fmt.Fprintf(a.io.out, "registered %s; run 'tracker login -email %s'\n", user.Email, user.Email)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login", a.io.err)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := promptPassword(a.in, a.io.err)
	if err != nil {
		return err
	}
	if err := a.session.Login(ctx, *email, password); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("invalid email or password")
		}
		return err
	}
	st := a.session.Snapshot()
	fmt.Fprintf(a.io.out, "signed in as %s\n", st.User.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.io.out, "signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	st, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	u := st.User
	if u.Username != "" {
		fmt.Fprintf(a.io.out, "%s (%s) role=%s\n", u.Email, u.Username, u.Role)
		return nil
	}
	fmt.Fprintf(a.io.out, "%s role=%s\n", u.Email, u.Role)
	return nil
}

func cmdProjects(ctx context.Context, a *app, _ []string) error {
	st, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	projects, err := a.client.Projects(ctx, st.Token)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.io.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tDUE\tTASKS")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Status, dateOrDash(p.ScheduledCompletion), p.TaskCount)
	}
	return tw.Flush()
}

func cmdTasks(ctx context.Context, a *app, _ []string) error {
	st, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	tasks, err := a.client.Tasks(ctx, st.Token)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.io.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPROGRESS\tDUE\tPROJECT")
	for _, t := range tasks {
		project := "-"
		if t.ProjectName != nil {
			project = *t.ProjectName
		}
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n", t.ID, t.Title, t.Progress, dateOrDash(t.DueDate), project)
	}
	return tw.Flush()
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
