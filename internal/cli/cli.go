// Package cli implements the riskreport command: one-shot report generation
// and inspection against a dataset file or the accidents API, plus model
// training and data maintenance through the API.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/couchcryptid/accident-risk-service/internal/observability"
)

// Run runs the riskreport CLI. Command output goes to out, logs to stderr.
func Run(ctx context.Context, args []string, out io.Writer, logOut io.Writer) error {
	var (
		logLevel  string
		logFormat string
	)

	app := &cli.Command{
		Name:   "riskreport",
		Usage:  "Generate district accident risk reports",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Category:    "Logging",
				Value:       "info",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format (console, json, text, auto)",
				Category:    "Logging",
				Value:       observability.FormatAuto,
				Sources:     cli.EnvVars("LOG_FORMAT"),
				Destination: &logFormat,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			switch logFormat {
			case observability.FormatConsole, observability.FormatJSON, observability.FormatText, observability.FormatAuto:
			default:
				return nil, goerr.New("invalid log format", goerr.V("format", logFormat))
			}
			logger := observability.NewLogger(logLevel, logFormat, logOut)
			slog.SetDefault(logger)
			return ctxlog.With(ctx, logger), nil
		},
		Commands: []*cli.Command{
			cmdGenerate(),
			cmdSections(),
			cmdDashboard(),
			cmdModelInfo(),
			cmdPredict(),
			cmdTrain(),
			cmdExportCSV(),
			cmdDeleteData(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		return goerr.Wrap(err, "riskreport failed")
	}
	return nil
}
