// marketmap: command-line access to the dashboard core (regions, inspect, simulate, export).
package main

import (
	"context"
	"os"
	"os/signal"

	"market-map/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
