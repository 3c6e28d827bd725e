package accidents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/observability"
)

var (
	// ErrAPI is returned when the accidents API answers with a failure.
	ErrAPI = errors.New("accidents API error")
	// ErrInvalidUpload is returned before sending a file the API would reject.
	ErrInvalidUpload = errors.New("invalid upload")
)

// statusError is a non-success HTTP answer from the API. It wraps ErrAPI.
type statusError struct {
	endpoint string
	code     int
	message  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %s: status %d: %s", ErrAPI, e.endpoint, e.code, e.message)
}

func (e *statusError) Unwrap() error { return ErrAPI }

// Endpoint labels used in metrics and logs.
const (
	endpointAccidents    = "accidents"
	endpointModelInfo    = "model_info"
	endpointPredict      = "predict"
	endpointBatchPredict = "batch_predict"
	endpointTrain        = "train"
	endpointUploadTrain  = "upload_and_train"
	endpointDeleteAll    = "delete_all"
	endpointExportCSV    = "export_csv"
)

// Client implements domain.AccidentSource and domain.Predictor over the
// accidents REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an accidents API client rooted at baseURL
// (e.g. "http://localhost:8000/api"). metrics may be nil.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchAccidents loads every accident record.
func (c *Client) FetchAccidents(ctx context.Context) (domain.Dataset, error) {
	var resp accidentsResponse
	if err := c.doJSON(ctx, endpointAccidents, http.MethodGet, "/siniestros/accidentes/", nil, &resp); err != nil {
		return domain.Dataset{}, err
	}
	if resp.Status != "" && resp.Status != "success" {
		return domain.Dataset{}, fmt.Errorf("%w: fetch accidents: status %q: %s", ErrAPI, resp.Status, resp.Message)
	}

	c.logger.Debug("accidents fetched", "records", len(resp.Data), "count", resp.Count)
	return domain.Dataset{Records: resp.Data, Count: resp.Count}, nil
}

// ModelInfo returns the trained model's metadata and evaluation metrics.
func (c *Client) ModelInfo(ctx context.Context) (domain.ModelInfo, error) {
	var resp modelInfoResponse
	// An untrained model answers 404 with the field lists only.
	if err := c.doJSON(ctx, endpointModelInfo, http.MethodGet, "/model-info/", nil, &resp, http.StatusNotFound); err != nil {
		return domain.ModelInfo{}, err
	}
	return resp.toDomain(), nil
}

// Predict scores feature vectors. A zero threshold uses the API default.
func (c *Client) Predict(ctx context.Context, features []domain.FeatureVector, threshold float64) (domain.PredictionResult, error) {
	if threshold == 0 {
		threshold = domain.DefaultPredictionThreshold
	}
	body, err := json.Marshal(predictRequest{Data: features, Threshold: threshold})
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("encode predict request: %w", err)
	}

	var resp predictResponse
	if err := c.doJSON(ctx, endpointPredict, http.MethodPost, "/predict/", bytes.NewReader(body), &resp); err != nil {
		return domain.PredictionResult{}, err
	}
	return resp.toDomain(endpointPredict, threshold)
}

// BatchPredict uploads a CSV of feature rows. The file is forwarded untouched;
// column validation happens server-side.
func (c *Client) BatchPredict(ctx context.Context, filename string, csv io.Reader, threshold float64) (domain.PredictionResult, error) {
	if threshold == 0 {
		threshold = domain.DefaultPredictionThreshold
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, csv); err != nil {
		return domain.PredictionResult{}, fmt.Errorf("copy csv: %w", err)
	}
	if err := mw.WriteField("threshold", strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return domain.PredictionResult{}, fmt.Errorf("write threshold: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.PredictionResult{}, fmt.Errorf("close multipart: %w", err)
	}

	var resp predictResponse
	if err := c.do(ctx, endpointBatchPredict, http.MethodPost, "/batch-predict/", &buf, mw.FormDataContentType(), &resp); err != nil {
		return domain.PredictionResult{}, err
	}
	return resp.toDomain(endpointBatchPredict, threshold)
}

// Train retrains the prediction model on the records currently stored by the
// API.
func (c *Client) Train(ctx context.Context) (domain.TrainingResult, error) {
	var resp trainResponse
	if err := c.doJSON(ctx, endpointTrain, http.MethodPost, "/train-model/", strings.NewReader("{}"), &resp); err != nil {
		return domain.TrainingResult{}, err
	}
	return resp.toDomain(endpointTrain)
}

// UploadAndTrain imports a CSV of accident records and retrains the model on
// the result. Only ".csv" file names are accepted.
func (c *Client) UploadAndTrain(ctx context.Context, filename string, csv io.Reader) (domain.TrainingResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return domain.TrainingResult{}, fmt.Errorf("%w: upload %q: file must be a CSV", ErrInvalidUpload, filename)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return domain.TrainingResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, csv); err != nil {
		return domain.TrainingResult{}, fmt.Errorf("copy csv: %w", err)
	}
	if err := mw.WriteField("auto_retrain", "true"); err != nil {
		return domain.TrainingResult{}, fmt.Errorf("write auto_retrain: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.TrainingResult{}, fmt.Errorf("close multipart: %w", err)
	}

	var resp trainResponse
	if err := c.do(ctx, endpointUploadTrain, http.MethodPost, "/upload-and-train/", &buf, mw.FormDataContentType(), &resp); err != nil {
		return domain.TrainingResult{}, err
	}
	return resp.toDomain(endpointUploadTrain)
}

// DeleteAll removes every accident record held by the API.
func (c *Client) DeleteAll(ctx context.Context) error {
	return c.doJSON(ctx, endpointDeleteAll, http.MethodDelete, "/siniestros/delete_all/", nil, nil, http.StatusNoContent)
}

// ExportCSV streams the API's accident records as CSV into w. An empty
// database is reported as domain.ErrEmptyDataset.
func (c *Client) ExportCSV(ctx context.Context, w io.Writer) error {
	err := c.doJSON(ctx, endpointExportCSV, http.MethodGet, "/download-csv/", nil, w)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrEmptyDataset, err)
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body io.Reader, out any, alsoOK ...int) error {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, endpoint, method, path, body, contentType, out, alsoOK...)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string, out any, alsoOK ...int) error {
	start := time.Now()
	err := c.roundTrip(ctx, endpoint, method, path, body, contentType, out, alsoOK)

	if c.metrics != nil {
		c.metrics.APIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	}
	if err != nil {
		c.logger.Warn("accidents API request failed", "endpoint", endpoint, "error", err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string, out any, alsoOK []int) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	accept := "application/json"
	if _, ok := out.(io.Writer); ok {
		accept = "text/csv"
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && !slices.Contains(alsoOK, resp.StatusCode) {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{endpoint: endpoint, code: resp.StatusCode, message: errorMessage(data)}
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case io.Writer:
		if _, err := io.Copy(dst, resp.Body); err != nil {
			return fmt.Errorf("read %s response: %w", endpoint, err)
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// errorMessage extracts the API's message/error fields, falling back to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Message != "" && e.Error != "":
			return e.Message + ": " + e.Error
		case e.Message != "":
			return e.Message
		case e.Error != "":
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}
