// Package report generates district risk reports: it fetches the accident
// dataset, builds the report sections, renders them to PDF and records the
// result.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/observability"
)

// Renderer turns a built report into a document.
type Renderer interface {
	Render(w io.Writer, rep domain.Report) error
}

// History stores generated report metadata.
type History interface {
	Save(ctx context.Context, r domain.ReportReady) error
}

// Generator produces reports from an accident source.
type Generator struct {
	source   domain.AccidentSource
	renderer Renderer
	history  History
	outDir   string
	defaults domain.ReportOptions
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithHistory records every generated report in h.
func WithHistory(h History) Option {
	return func(g *Generator) { g.history = h }
}

// WithDefaults sets the report options requests start from.
func WithDefaults(opts domain.ReportOptions) Option {
	return func(g *Generator) { g.defaults = opts }
}

// WithMetrics enables generation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a Generator writing PDFs into outDir.
func NewGenerator(source domain.AccidentSource, renderer Renderer, outDir string, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		source:   source,
		renderer: renderer,
		outDir:   outDir,
		defaults: domain.ReportOptions{Kind: domain.DefaultReportKind},
		logger:   logger,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Build fetches the dataset and builds the report without rendering it.
// domain.ErrEmptyDataset is returned unchanged when there are no records.
func (g *Generator) Build(ctx context.Context, req domain.ReportRequest) (domain.Report, error) {
	opts, err := req.Options(g.defaults)
	if err != nil {
		return domain.Report{}, err
	}

	ds, err := g.source.FetchAccidents(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("fetch accidents: %w", err)
	}

	opts.TotalAccidents = ds.Count
	opts.GeneratedAt = domain.Now()
	rep, err := domain.BuildReport(ds.Records, opts)
	if err != nil {
		return domain.Report{}, err
	}

	if rep.PeriodErr != nil {
		g.logger.Warn("report period unavailable", "error", rep.PeriodErr)
	}
	return rep, nil
}

// Generate builds the report, writes the PDF to the output directory and
// records it in the history store.
func (g *Generator) Generate(ctx context.Context, req domain.ReportRequest) (domain.ReportReady, error) {
	start := time.Now()
	ready, err := g.generate(ctx, req)

	if g.metrics != nil {
		g.metrics.ReportGenerationDuration.Observe(time.Since(start).Seconds())
		g.metrics.ReportsGenerated.WithLabelValues(outcome(err)).Inc()
	}
	return ready, err
}

func (g *Generator) generate(ctx context.Context, req domain.ReportRequest) (domain.ReportReady, error) {
	rep, err := g.Build(ctx, req)
	if err != nil {
		return domain.ReportReady{}, err
	}

	// Reports generated within the same second share a file name, so each
	// one gets its own directory.
	id := uuid.NewString()
	fileName := rep.FileName(".pdf")
	path := filepath.Join(g.outDir, id, fileName)
	if err := g.writeFile(path, rep); err != nil {
		return domain.ReportReady{}, err
	}

	c := rep.Classification
	ready := domain.ReportReady{
		ReportID:        id,
		RequestID:       req.ID,
		Kind:            rep.Kind,
		FileName:        fileName,
		Path:            path,
		TotalAccidents:  c.TotalAccidents,
		ZoneCount:       c.ZoneCount,
		HighRiskZones:   len(c.High),
		MediumRiskZones: len(c.Medium),
		LowRiskZones:    len(c.Low),
		HighestRiskZone: c.HighestRisk.Name,
		Concentration:   c.Concentration,
		GeneratedAt:     rep.GeneratedAt,
	}

	if g.history != nil {
		if err := g.history.Save(ctx, ready); err != nil {
			return domain.ReportReady{}, err
		}
	}

	g.logger.Info("report generated",
		"report_id", ready.ReportID,
		"request_id", ready.RequestID,
		"file", ready.FileName,
		"zones", ready.ZoneCount,
		"concentration", ready.Concentration,
	)
	return ready, nil
}

// writeFile renders into a temp file in the target directory and renames it
// into place, so readers never see a partial PDF. The report directory is
// removed again when rendering fails.
func (g *Generator) writeFile(path string, rep domain.Report) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.pdf")
	if err != nil {
		os.Remove(dir)
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
			os.Remove(dir)
		}
	}()

	if err := g.renderer.Render(tmp, rep); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move report into place: %w", err)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrEmptyDataset):
		return "empty"
	default:
		return "error"
	}
}
