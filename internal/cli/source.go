package cli

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/couchcryptid/accident-risk-service/internal/adapter/accidents"
	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/report"
)

// apiConfig holds the accidents API connection flags.
type apiConfig struct {
	URL     string
	Timeout time.Duration
}

func (a *apiConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "Accidents API base URL",
			Category:    "Accidents API",
			Value:       "http://localhost:8000/api",
			Sources:     cli.EnvVars("ACCIDENTS_API_URL"),
			Destination: &a.URL,
		},
		&cli.DurationFlag{
			Name:        "api-timeout",
			Usage:       "Accidents API request timeout",
			Category:    "Accidents API",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("ACCIDENTS_API_TIMEOUT"),
			Destination: &a.Timeout,
		},
	}
}

func (a *apiConfig) Client(ctx context.Context) *accidents.Client {
	return accidents.NewClient(a.URL, a.Timeout, nil, ctxlog.From(ctx))
}

// reportConfig selects the dataset and shapes the report.
type reportConfig struct {
	api    apiConfig
	Input  string
	Tiers  string
	Locale string
}

func (r *reportConfig) Flags() []cli.Flag {
	return append(r.api.Flags(),
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Read accidents from a JSON file instead of the API",
			Category:    "Report",
			Destination: &r.Input,
		},
		&cli.StringFlag{
			Name:        "tiers",
			Usage:       "Comma separated tiers to list (high, medium, low); all when empty",
			Category:    "Report",
			Sources:     cli.EnvVars("REPORT_INCLUDE_TIERS"),
			Destination: &r.Tiers,
		},
		&cli.StringFlag{
			Name:        "locale",
			Usage:       "Locale for numbers and dates (en, es)",
			Category:    "Report",
			Value:       "en",
			Sources:     cli.EnvVars("REPORT_LOCALE"),
			Destination: &r.Locale,
		},
	)
}

func (r *reportConfig) Source(ctx context.Context) domain.AccidentSource {
	if r.Input != "" {
		ctxlog.From(ctx).Debug("reading accidents from file", "path", r.Input)
		return report.FileSource{Path: r.Input}
	}
	return r.api.Client(ctx)
}

func (r *reportConfig) Request() domain.ReportRequest {
	req := domain.ReportRequest{ID: "cli", Locale: r.Locale}
	if r.Tiers != "" {
		req.IncludeTiers = strings.Split(r.Tiers, ",")
	}
	return req
}

// noData turns the empty dataset error into a user-facing message.
func noData(err error, src string) error {
	return goerr.Wrap(err, "no accident data to report on", goerr.V("source", src))
}

func (r *reportConfig) sourceName() string {
	if r.Input != "" {
		return r.Input
	}
	return r.api.URL
}
