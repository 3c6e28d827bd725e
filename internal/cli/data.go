package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

func cmdTrain() *cli.Command {
	var (
		api     apiConfig
		csvPath string
	)

	flags := append(api.Flags(),
		&cli.StringFlag{
			Name:        "csv",
			Usage:       "Import this CSV of accident records before retraining",
			Destination: &csvPath,
		},
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Retrain the prediction model, optionally after importing a CSV",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			client := api.Client(ctx)

			var (
				result domain.TrainingResult
				err    error
			)
			if csvPath == "" {
				result, err = client.Train(ctx)
			} else {
				f, openErr := os.Open(csvPath)
				if openErr != nil {
					return goerr.Wrap(openErr, "open csv", goerr.V("path", csvPath))
				}
				defer f.Close()
				result, err = client.UploadAndTrain(ctx, filepath.Base(csvPath), f)
			}
			if err != nil {
				return goerr.Wrap(err, "train model", goerr.V("url", api.URL), goerr.V("csv", csvPath))
			}

			ctxlog.From(ctx).Info("model trained",
				"records", result.TotalRecords,
				"accuracy", result.Accuracy,
				"roc_auc", result.ROCAUC,
			)
			return printJSON(c.Root().Writer, result)
		},
	}
}

func cmdExportCSV() *cli.Command {
	var (
		api     apiConfig
		outPath string
	)

	flags := append(api.Flags(),
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Write the CSV to this file instead of stdout",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:  "export-csv",
		Usage: "Download every stored accident record as CSV",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			client := api.Client(ctx)
			if outPath == "" {
				if err := client.ExportCSV(ctx, c.Root().Writer); err != nil {
					return exportErr(err, api.URL)
				}
				return nil
			}

			f, err := os.CreateTemp(filepath.Dir(outPath), ".export-*.csv")
			if err != nil {
				return goerr.Wrap(err, "create output", goerr.V("path", outPath))
			}
			defer os.Remove(f.Name())

			if err := client.ExportCSV(ctx, f); err != nil {
				_ = f.Close()
				return exportErr(err, api.URL)
			}
			if err := f.Close(); err != nil {
				return goerr.Wrap(err, "close output", goerr.V("path", outPath))
			}
			if err := os.Rename(f.Name(), outPath); err != nil {
				return goerr.Wrap(err, "write output", goerr.V("path", outPath))
			}
			ctxlog.From(ctx).Info("accidents exported", "path", outPath)
			return nil
		},
	}
}

func exportErr(err error, url string) error {
	if errors.Is(err, domain.ErrEmptyDataset) {
		return noData(err, url)
	}
	return goerr.Wrap(err, "export csv", goerr.V("url", url))
}

func cmdDeleteData() *cli.Command {
	var (
		api     apiConfig
		confirm bool
	)

	flags := append(api.Flags(),
		&cli.BoolFlag{
			Name:        "yes",
			Usage:       "Confirm deleting every stored accident record",
			Destination: &confirm,
		},
	)

	return &cli.Command{
		Name:  "delete-data",
		Usage: "Delete every accident record held by the API",
		Flags: flags,
		Action: func(ctx context.Context, _ *cli.Command) error {
			if !confirm {
				return goerr.New("refusing to delete without --yes", goerr.V("url", api.URL))
			}
			if err := api.Client(ctx).DeleteAll(ctx); err != nil {
				return goerr.Wrap(err, "delete accidents", goerr.V("url", api.URL))
			}
			ctxlog.From(ctx).Warn("all accident records deleted", "url", api.URL)
			return nil
		},
	}
}
