// Command tracker is a terminal client for the tracker API.
//
//	tracker register -email a@example.com [-username alice]
//	tracker login -email a@example.com
//	tracker whoami | projects | tasks
//	tracker logout
//
// The session token is kept in a local SQLite file (TRACKER_STATE_DB).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sethvargo/go-envconfig"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], envconfig.OsLookuper(), stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr})
	stop()
	os.Exit(code)
}
