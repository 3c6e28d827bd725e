// Command riskreport generates and inspects district accident risk reports
// from the command line.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/couchcryptid/accident-risk-service/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args, os.Stdout, os.Stderr); err != nil {
		slog.Error("riskreport failed", "error", err)
		os.Exit(1)
	}
}
