package domain

import "context"

// DefaultPredictionThreshold is the probability at or above which the
// prediction API flags an accident as likely.
const DefaultPredictionThreshold = 0.5

// Probability cut-offs the prediction API uses for its risk_level field.
const (
	highProbability   = 0.7
	mediumProbability = 0.3
)

// FeatureVector is the model input accepted by the prediction API.
type FeatureVector struct {
	Hour            int `json:"HORA_SINIESTRO"`
	Class           int `json:"CLASE_SINIESTRO"`
	VehiclesDamaged int `json:"CANTIDAD_DE_VEHICULOS_DANADOS"`
	District        int `json:"DISTRITO"`
	Zone            int `json:"ZONA"`
	RoadType        int `json:"TIPO_DE_VIA"`
	RoadNetwork     int `json:"RED_VIAL"`
	BikeLane        int `json:"EXISTE_CICLOVIA"`
	Weather         int `json:"CONDICION_CLIMATICA"`
	Zoning          int `json:"ZONIFICACION"`
	RoadFeatures    int `json:"CARACTERISTICAS_DE_VIA"`
	GradeProfile    int `json:"PERFIL_LONGITUDINAL_VIA"`
	Surface         int `json:"SUPERFICIE_DE_CALZADA"`
	Signage         int `json:"SENALIZACION"`
	DayOfWeek       int `json:"DIA_DE_LA_SEMANA"`
	Month           int `json:"MES"`
	DayPeriod       int `json:"PERIODO_DEL_DIA"`
	Holiday         int `json:"FERIADO"`
}

// Features extracts the model input from a recorded accident.
func (r AccidentRecord) Features() FeatureVector {
	return FeatureVector{
		Hour:            r.Hour,
		Class:           r.Class,
		VehiclesDamaged: r.VehiclesDamaged,
		District:        r.District,
		Zone:            r.Zone,
		RoadType:        r.RoadType,
		RoadNetwork:     r.RoadNetwork,
		BikeLane:        r.BikeLane,
		Weather:         r.Weather,
		Zoning:          r.Zoning,
		RoadFeatures:    r.RoadFeatures,
		GradeProfile:    r.GradeProfile,
		Surface:         r.Surface,
		Signage:         r.Signage,
		DayOfWeek:       r.DayOfWeek,
		Month:           r.Month,
		DayPeriod:       r.DayPeriod,
		Holiday:         r.Holiday,
	}
}

// Prediction is the model's verdict for one feature vector.
type Prediction struct {
	Index          int      `json:"index"`
	Prediction     int      `json:"prediction"`
	Probability    float64  `json:"probability"`
	RiskLevel      string   `json:"risk_level"` // as sent by the API ("Alto", "Medio", "Bajo")
	Tier           RiskTier `json:"tier"`
	AccidentLikely bool     `json:"accident_likely"`
}

// PredictionSummary aggregates a set of predictions.
type PredictionSummary struct {
	TotalPredictions   int `json:"total_predictions"`
	AccidentsPredicted int `json:"accidents_predicted"`
	HighRisk           int `json:"high_risk"`
	MediumRisk         int `json:"medium_risk"`
	LowRisk            int `json:"low_risk"`
}

// PredictionResult is the response to one prediction request.
type PredictionResult struct {
	Predictions []Prediction      `json:"predictions"`
	Summary     PredictionSummary `json:"summary"`
	Threshold   float64           `json:"threshold"`
}

// Predictor scores feature vectors against the remote model.
type Predictor interface {
	Predict(ctx context.Context, features []FeatureVector, threshold float64) (PredictionResult, error)
}

// PredictionTier maps a model probability to a tier using the API's cut-offs:
// High above 0.7, Medium above 0.3, Low otherwise.
func PredictionTier(probability float64) RiskTier {
	switch {
	case probability > highProbability:
		return TierHigh
	case probability > mediumProbability:
		return TierMedium
	default:
		return TierLow
	}
}

// SummarizePredictions recomputes the summary counts from the predictions
// themselves, filling in each prediction's Tier.
func SummarizePredictions(preds []Prediction) PredictionSummary {
	s := PredictionSummary{TotalPredictions: len(preds)}
	for i := range preds {
		preds[i].Tier = PredictionTier(preds[i].Probability)
		if preds[i].AccidentLikely {
			s.AccidentsPredicted++
		}
		switch preds[i].Tier {
		case TierHigh:
			s.HighRisk++
		case TierMedium:
			s.MediumRisk++
		default:
			s.LowRisk++
		}
	}
	return s
}

// FeatureImportance is one entry of the model's top-features list.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelInfo describes the trained model behind the prediction API.
// Metric fields are zero when the model has not been trained yet.
type ModelInfo struct {
	Exists         bool                `json:"model_exists"`
	TrainingFields []string            `json:"training_fields"`
	TargetField    string              `json:"target_field"`
	TrainedAt      string              `json:"training_date,omitempty"`
	Threshold      float64             `json:"threshold,omitempty"`
	Accuracy       float64             `json:"accuracy"`
	Precision      float64             `json:"precision"`
	Recall         float64             `json:"recall"`
	F1Score        float64             `json:"f1_score"`
	ROCAUC         float64             `json:"roc_auc"`
	TopFeatures    []FeatureImportance `json:"top_features,omitempty"`
}

// TrainingResult reports a model (re)training run.
type TrainingResult struct {
	Message      string  `json:"message"`
	TotalRecords int     `json:"total_records"`
	TrainedAt    string  `json:"training_date,omitempty"`
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1Score      float64 `json:"f1_score"`
	ROCAUC       float64 `json:"roc_auc"`
}
