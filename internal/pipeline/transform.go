package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// ReportGenerator produces one report for a request.
type ReportGenerator interface {
	Generate(ctx context.Context, req domain.ReportRequest) (domain.ReportReady, error)
}

// ReportTransformer implements Transformer: it turns a report request message
// into a report-ready event by generating the report.
type ReportTransformer struct {
	generator ReportGenerator
	logger    *slog.Logger
}

// NewTransformer creates a ReportTransformer.
func NewTransformer(generator ReportGenerator, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		generator: generator,
		logger:    logger,
	}
}

func (t *ReportTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseReportRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("%w: %w", ErrSkip, err)
	}

	ready, err := t.generator.Generate(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyDataset):
			t.logger.Info("no accident data, report skipped", "request_id", req.ID)
			return domain.OutputEvent{}, fmt.Errorf("%w: request %s: %w", ErrSkip, req.ID, err)
		case errors.Is(err, domain.ErrInvalidRequest):
			return domain.OutputEvent{}, fmt.Errorf("%w: %w", ErrSkip, err)
		}
		return domain.OutputEvent{}, fmt.Errorf("generate report for request %s: %w", req.ID, err)
	}

	return domain.SerializeReportReady(ready)
}
