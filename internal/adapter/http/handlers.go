package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/couchcryptid/accident-risk-service/internal/adapter/accidents"
	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxPredictBody      = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type predictBody struct {
	Data      []domain.FeatureVector `json:"data"`
	Threshold float64                `json:"threshold"`
}

// reportRequest reads the optional tiers and locale query parameters.
func reportRequest(r *http.Request) domain.ReportRequest {
	q := r.URL.Query()
	req := domain.ReportRequest{
		ID:     middleware.GetReqID(r.Context()),
		Locale: q.Get("locale"),
	}
	if tiers := q.Get("tiers"); tiers != "" {
		req.IncludeTiers = strings.Split(tiers, ",")
	}
	return req
}

func (s *Server) handleRiskReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Reports.Build(r.Context(), reportRequest(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleRiskReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Reports.Build(r.Context(), reportRequest(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Renderer.Render(&buf, rep); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName(".pdf")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write pdf response failed", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reports, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []domain.ReportReady{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds, err := s.deps.Accidents.FetchAccidents(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(ds.Records) == 0 {
		s.writeError(w, r, domain.ErrEmptyDataset)
		return
	}
	writeJSON(w, http.StatusOK, domain.BuildDashboard(ds))
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.Model.ModelInfo(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body predictBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(body.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "data must contain at least one record"})
		return
	}
	if body.Threshold < 0 || body.Threshold > 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "threshold must be between 0 and 1"})
		return
	}

	result, err := s.deps.Predictor.Predict(r.Context(), body.Data, body.Threshold)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyDataset):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no data"})
	case errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, accidents.ErrAPI):
		s.logger.Warn("accidents api error", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "accidents api unavailable"})
	default:
		s.logger.Error("request failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
