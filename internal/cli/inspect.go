package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/report"
)

func cmdSections() *cli.Command {
	var cfg reportConfig

	return &cli.Command{
		Name:  "sections",
		Usage: "Print the report sections as JSON without rendering",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			gen := report.NewGenerator(cfg.Source(ctx), nil, "", ctxlog.From(ctx))
			rep, err := gen.Build(ctx, cfg.Request())
			if errors.Is(err, domain.ErrEmptyDataset) {
				return noData(err, cfg.sourceName())
			}
			if err != nil {
				return goerr.Wrap(err, "build report", goerr.V("source", cfg.sourceName()))
			}
			return printJSON(c.Root().Writer, rep)
		},
	}
}

func cmdDashboard() *cli.Command {
	var cfg reportConfig

	return &cli.Command{
		Name:  "dashboard",
		Usage: "Print the dashboard chart series as JSON",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			ds, err := cfg.Source(ctx).FetchAccidents(ctx)
			if err != nil {
				return goerr.Wrap(err, "fetch accidents", goerr.V("source", cfg.sourceName()))
			}
			if len(ds.Records) == 0 {
				return noData(domain.ErrEmptyDataset, cfg.sourceName())
			}
			return printJSON(c.Root().Writer, domain.BuildDashboard(ds))
		},
	}
}

func cmdModelInfo() *cli.Command {
	var api apiConfig

	return &cli.Command{
		Name:  "model-info",
		Usage: "Print the prediction model's metadata and metrics",
		Flags: api.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			info, err := api.Client(ctx).ModelInfo(ctx)
			if err != nil {
				return goerr.Wrap(err, "get model info", goerr.V("url", api.URL))
			}
			if !info.Exists {
				ctxlog.From(ctx).Warn("model has not been trained yet")
			}
			return printJSON(c.Root().Writer, info)
		},
	}
}

func cmdPredict() *cli.Command {
	var (
		api       apiConfig
		csvPath   string
		threshold float64
	)

	flags := append(api.Flags(),
		&cli.StringFlag{
			Name:        "csv",
			Usage:       "CSV file of accident features to score",
			Required:    true,
			Destination: &csvPath,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Usage:       "Probability at or above which an accident is flagged likely",
			Value:       domain.DefaultPredictionThreshold,
			Destination: &threshold,
		},
	)

	return &cli.Command{
		Name:  "predict",
		Usage: "Score a CSV file of accident features with the prediction model",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if threshold < 0 || threshold > 1 {
				return goerr.New("threshold must be between 0 and 1", goerr.V("threshold", threshold))
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return goerr.Wrap(err, "open csv", goerr.V("path", csvPath))
			}
			defer f.Close()

			result, err := api.Client(ctx).BatchPredict(ctx, filepath.Base(csvPath), f, threshold)
			if err != nil {
				return goerr.Wrap(err, "batch predict", goerr.V("path", csvPath))
			}
			ctxlog.From(ctx).Info("predictions scored",
				"total", result.Summary.TotalPredictions,
				"likely", result.Summary.AccidentsPredicted,
				"high_risk", result.Summary.HighRisk,
			)
			return printJSON(c.Root().Writer, result)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "write output")
	}
	return nil
}
