// Command wikibox harvests infobox templates from a MediaWiki site.
//
// Usage:
//
//	wikibox harvest --category Coronation_Street_characters --recursive
//	wikibox categories --category Weatherfield
//	wikibox pages --namespace 0
//	wikibox namespaces
//	wikibox page "Amy Barlow"
//	wikibox parse page.wikitext
//	wikibox migrate
//	wikibox export --run <uuid>
//
// Configuration comes from a YAML file (--config or CONFIG_PATH), the
// environment and an optional .env file.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cli{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "wikibox:", err)
		stop()
		os.Exit(1)
	}
}
