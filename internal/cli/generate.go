package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/couchcryptid/accident-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/render"
	"github.com/couchcryptid/accident-risk-service/internal/report"
)

const reportFooter = "Accident Risk Service"

func cmdGenerate() *cli.Command {
	var (
		cfg    reportConfig
		outDir string
		dbPath string
	)

	flags := append(cfg.Flags(),
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Directory the PDF is written to",
			Category:    "Output",
			Value:       "reports",
			Sources:     cli.EnvVars("REPORT_OUTPUT_DIR"),
			Destination: &outDir,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Record the report in this history database",
			Category:    "Output",
			Destination: &dbPath,
		},
	)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate the district risk report as a PDF",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			var opts []report.Option
			if dbPath != "" {
				store, err := sqlite.Open(dbPath)
				if err != nil {
					return goerr.Wrap(err, "open report history", goerr.V("path", dbPath))
				}
				defer store.Close()
				opts = append(opts, report.WithHistory(store))
			}

			gen := report.NewGenerator(cfg.Source(ctx), render.NewPDFRenderer(reportFooter), outDir, logger, opts...)
			ready, err := gen.Generate(ctx, cfg.Request())
			if errors.Is(err, domain.ErrEmptyDataset) {
				return noData(err, cfg.sourceName())
			}
			if err != nil {
				return goerr.Wrap(err, "generate report", goerr.V("source", cfg.sourceName()))
			}

			_, err = fmt.Fprintln(c.Root().Writer, ready.Path)
			return err
		},
	}
}
