package accidents

import (
	"fmt"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// Accidents API request and response types.

type accidentsResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Count   int                     `json:"count"`
	Data    []domain.AccidentRecord `json:"data"`
}

type predictRequest struct {
	Data      []domain.FeatureVector `json:"data"`
	Threshold float64                `json:"threshold"`
}

type predictResponse struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	Error         string       `json:"error"`
	Predictions   []prediction `json:"predictions"`
	ThresholdUsed float64      `json:"threshold_used"`
}

// prediction carries "index" for JSON predictions and "row_index" for
// batch (CSV) predictions.
type prediction struct {
	Index          *int    `json:"index"`
	RowIndex       *int    `json:"row_index"`
	Prediction     int     `json:"prediction"`
	Probability    float64 `json:"probability"`
	RiskLevel      string  `json:"risk_level"`
	AccidentLikely bool    `json:"accident_likely"`
}

func (r predictResponse) toDomain(endpoint string, requested float64) (domain.PredictionResult, error) {
	if !r.Success {
		msg := r.Message
		if r.Error != "" {
			msg += ": " + r.Error
		}
		return domain.PredictionResult{}, fmt.Errorf("%w: %s: %s", ErrAPI, endpoint, msg)
	}

	preds := make([]domain.Prediction, 0, len(r.Predictions))
	for i, p := range r.Predictions {
		idx := i
		switch {
		case p.Index != nil:
			idx = *p.Index
		case p.RowIndex != nil:
			idx = *p.RowIndex
		}
		preds = append(preds, domain.Prediction{
			Index:          idx,
			Prediction:     p.Prediction,
			Probability:    p.Probability,
			RiskLevel:      p.RiskLevel,
			AccidentLikely: p.AccidentLikely,
		})
	}

	threshold := r.ThresholdUsed
	if threshold == 0 {
		threshold = requested
	}
	return domain.PredictionResult{
		Predictions: preds,
		Summary:     domain.SummarizePredictions(preds),
		Threshold:   threshold,
	}, nil
}

type modelInfoResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ModelInfo struct {
		ModelExists           bool     `json:"model_exists"`
		TrainingFields        []string `json:"training_fields"`
		RequiredForPrediction []string `json:"required_fields_for_prediction"`
		TargetField           string   `json:"target_field"`
	} `json:"model_info"`
	Metrics *struct {
		TrainingDate string                     `json:"training_date"`
		Threshold    float64                    `json:"threshold"`
		Accuracy     float64                    `json:"accuracy"`
		Precision    float64                    `json:"precision"`
		Recall       float64                    `json:"recall"`
		F1Score      float64                    `json:"f1_score"`
		ROCAUC       float64                    `json:"roc_auc"`
		TopFeatures  []domain.FeatureImportance `json:"top_features"`
	} `json:"metrics"`
}

// toDomain flattens the response. An untrained model answers with
// success=false and only the field lists; that is reported as Exists=false.
func (r modelInfoResponse) toDomain() domain.ModelInfo {
	info := domain.ModelInfo{
		Exists:         r.ModelInfo.ModelExists,
		TrainingFields: r.ModelInfo.TrainingFields,
		TargetField:    r.ModelInfo.TargetField,
	}
	if len(info.TrainingFields) == 0 {
		info.TrainingFields = r.ModelInfo.RequiredForPrediction
	}
	if m := r.Metrics; m != nil {
		info.TrainedAt = m.TrainingDate
		info.Threshold = m.Threshold
		info.Accuracy = m.Accuracy
		info.Precision = m.Precision
		info.Recall = m.Recall
		info.F1Score = m.F1Score
		info.ROCAUC = m.ROCAUC
		info.TopFeatures = m.TopFeatures
	}
	return info
}

// trainResponse covers both /train-model/ and /upload-and-train/. The former
// nests the sample count under training_info; the latter reports it inside
// metrics.
type trainResponse struct {
	Success      *bool  `json:"success"`
	Message      string `json:"message"`
	Error        string `json:"error"`
	TrainingInfo struct {
		TotalRecords any `json:"total_records"`
	} `json:"training_info"`
	Metrics struct {
		TotalSamples int     `json:"total_samples"`
		TrainingDate string  `json:"training_date"`
		Accuracy     float64 `json:"accuracy"`
		Precision    float64 `json:"precision"`
		Recall       float64 `json:"recall"`
		F1Score      float64 `json:"f1_score"`
		ROCAUC       float64 `json:"roc_auc"`
	} `json:"metrics"`
}

func (r trainResponse) toDomain(endpoint string) (domain.TrainingResult, error) {
	if r.Success != nil && !*r.Success {
		msg := r.Message
		if r.Error != "" {
			msg += ": " + r.Error
		}
		return domain.TrainingResult{}, fmt.Errorf("%w: %s: %s", ErrAPI, endpoint, msg)
	}

	total := r.Metrics.TotalSamples
	// The API sends "N/A" when the count is unknown.
	if n, ok := r.TrainingInfo.TotalRecords.(float64); ok {
		total = int(n)
	}
	return domain.TrainingResult{
		Message:      r.Message,
		TotalRecords: total,
		TrainedAt:    r.Metrics.TrainingDate,
		Accuracy:     r.Metrics.Accuracy,
		Precision:    r.Metrics.Precision,
		Recall:       r.Metrics.Recall,
		F1Score:      r.Metrics.F1Score,
		ROCAUC:       r.Metrics.ROCAUC,
	}, nil
}
