// Command tagproxy fronts a site with a reverse proxy that injects the
// analytics loader selected by the tag-type cookie.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tagloader "github.com/goliatone/go-tagloader"
)

func main() {
	if err := tagloader.LoadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "tagproxy: load .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tagproxy: %v\n", err)
		os.Exit(1)
	}
}
