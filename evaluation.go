package automodeler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// MetricsKind identifies the variant of a Metrics value.
type MetricsKind string

// Metrics kinds.
const (
	MetricsRegression     MetricsKind = "regression"
	MetricsClassification MetricsKind = "classification"
	MetricsClustering     MetricsKind = "clustering"
)

// Metrics is the evaluation of a trained model. It is one of
// *RegressionMetrics, *ClassificationMetrics or *ClusteringMetrics.
type Metrics interface {
	Kind() MetricsKind
}

// RegressionMetrics are the scores of a regression model.
type RegressionMetrics struct {
	Score float64 `json:"score"`
	MSE   float64 `json:"mse"`
	MAE   float64 `json:"mae"`
}

// Kind implements Metrics.
func (*RegressionMetrics) Kind() MetricsKind { return MetricsRegression }

// ClassificationMetrics are the weighted scores of a classifier.
type ClassificationMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Kind implements Metrics.
func (*ClassificationMetrics) Kind() MetricsKind { return MetricsClassification }

// ClusteringMetrics are the internal validity indices of a clustering.
// A nil index could not be computed for this clustering.
type ClusteringMetrics struct {
	Silhouette       *float64
	CalinskiHarabasz *float64
	DaviesBouldin    *float64
	NClusters        int
}

// Kind implements Metrics.
func (*ClusteringMetrics) Kind() MetricsKind { return MetricsClustering }

// MarshalJSON writes nil indices as null.
func (m *ClusteringMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"silhouette":        m.Silhouette,
		"calinski_harabasz": m.CalinskiHarabasz,
		"davies_bouldin":    m.DaviesBouldin,
		"n_clusters":        m.NClusters,
	})
}

// UnmarshalJSON accepts numbers, null or a placeholder string for each index.
func (m *ClusteringMetrics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Silhouette = optionalMetric(raw["silhouette"])
	m.CalinskiHarabasz = optionalMetric(raw["calinski_harabasz"])
	m.DaviesBouldin = optionalMetric(raw["davies_bouldin"])
	if n, ok := raw["n_clusters"]; ok {
		if err := json.Unmarshal(n, &m.NClusters); err != nil {
			return fmt.Errorf("n_clusters: %w", err)
		}
	}
	return nil
}

// optionalMetric returns nil for a missing, null or non-numeric value.
// The backend writes "Non calculable" when an index is undefined.
func optionalMetric(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return &f
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return &v
		}
	}
	return nil
}

// DecodeMetrics picks the variant from the keys present in data.
func DecodeMetrics(data []byte) (Metrics, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("automodeler: failed to decode metrics: %w", err)
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := keys[n]; ok {
				return true
			}
		}
		return false
	}

	var m Metrics
	switch {
	case has("accuracy", "f1_score"):
		m = &ClassificationMetrics{}
	case has("mse", "mae"):
		m = &RegressionMetrics{}
	case has("silhouette", "calinski_harabasz", "davies_bouldin", "n_clusters"):
		m = &ClusteringMetrics{}
	default:
		return nil, fmt.Errorf("automodeler: unrecognized metrics %s", data)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("automodeler: failed to decode %s metrics: %w", m.Kind(), err)
	}
	return m, nil
}

// EvaluationClient fetches model evaluations.
type EvaluationClient struct {
	http pkghttp.Doer
}

// Evaluation is the evaluation of the current run's model.
type Evaluation struct {
	ProjectName  string
	Algo         string
	ModelType    ModelCategory
	LearningType LearningType
	Metrics      Metrics
}

// Evaluate evaluates the model trained in the current run.
func (c *EvaluationClient) Evaluate(ctx context.Context) (*Evaluation, error) {
	var result struct {
		ProjectName  string          `json:"project_name"`
		Algo         string          `json:"algo"`
		ModelType    ModelCategory   `json:"model_type"`
		LearningType LearningType    `json:"learning_type"`
		Metrics      json.RawMessage `json:"metrics"`
	}
	if err := c.http.Get(ctx, "/api/evaluate", nil, &result); err != nil {
		return nil, err
	}
	if len(result.Metrics) == 0 {
		return nil, fmt.Errorf("automodeler: evaluation has no metrics")
	}
	m, err := DecodeMetrics(result.Metrics)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		ProjectName:  result.ProjectName,
		Algo:         result.Algo,
		ModelType:    result.ModelType,
		LearningType: result.LearningType,
		Metrics:      m,
	}, nil
}
