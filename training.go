package automodeler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// TrainingClient triggers training of the current run.
type TrainingClient struct {
	http pkghttp.Doer
}

// Pair is one (first, second) value of a training result: (predicted,
// actual) for supervised runs, (input, cluster label) for clustering runs.
type Pair [2]float64

// PairLabels names the two values of a Pair.
func PairLabels(clustering bool) [2]string {
	if clustering {
		return [2]string{"input", "cluster"}
	}
	return [2]string{"predicted", "actual"}
}

// PairParseError reports a malformed pair in a training result.
type PairParseError struct {
	Index int
	Raw   string
}

// Error implements the error interface.
func (e *PairParseError) Error() string {
	return fmt.Sprintf("automodeler: malformed pair %d: %q", e.Index, e.Raw)
}

// ParsePair parses "(a,b)". Whitespace around the numbers is allowed;
// anything else is rejected.
func ParsePair(s string) (Pair, error) {
	t := strings.TrimSpace(s)
	if len(t) < 2 || t[0] != '(' || t[len(t)-1] != ')' {
		return Pair{}, fmt.Errorf("pair %q is not parenthesized", s)
	}
	parts := strings.Split(t[1:len(t)-1], ",")
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("pair %q has %d values, want 2", s, len(parts))
	}
	var p Pair
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Pair{}, fmt.Errorf("pair %q: value %d is not a number", s, i)
		}
		p[i] = v
	}
	return p, nil
}

// PredictionPairs decodes the backend's predictions_values, a list of
// "(a,b)" strings or of two-element arrays.
type PredictionPairs []Pair

// UnmarshalJSON implements json.Unmarshaler.
func (pp *PredictionPairs) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("automodeler: predictions_values: %w", err)
	}
	out := make(PredictionPairs, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return &PairParseError{Index: i, Raw: string(item)}
			}
			p, err := ParsePair(s)
			if err != nil {
				return &PairParseError{Index: i, Raw: s}
			}
			out[i] = p
			continue
		}
		var arr []float64
		if err := json.Unmarshal(item, &arr); err != nil || len(arr) != 2 {
			return &PairParseError{Index: i, Raw: string(item)}
		}
		out[i] = Pair{arr[0], arr[1]}
	}
	*pp = out
	return nil
}

// TrainingResult describes a trained model and a sample of its output.
type TrainingResult struct {
	ProjectName          string          `json:"project_name"`
	Filename             string          `json:"filename"`
	ModelType            ModelCategory   `json:"model_type"`
	Algo                 string          `json:"algo"`
	LearningType         LearningType    `json:"learning_type"`
	Features             []string        `json:"features"`
	PredictionsValues    PredictionPairs `json:"predictions_values"`
	ParamsDict           map[string]any  `json:"params_dict"`
	PreprocessingOptions []string        `json:"preprocessing_options"`
}

// ModelInfo returns the run identity of the result.
func (r *TrainingResult) ModelInfo() ModelInfo {
	return ModelInfo{
		ProjectName:  r.ProjectName,
		Filename:     r.Filename,
		Algo:         r.Algo,
		ModelType:    r.ModelType,
		LearningType: r.LearningType,
		Features:     r.Features,
	}
}

// Train trains the model configured by the previous steps. The result may
// come wrapped as {success, model_info} or as a flat object.
func (c *TrainingClient) Train(ctx context.Context) (*TrainingResult, error) {
	var raw json.RawMessage
	if err := c.http.Get(ctx, "/train_model", nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("automodeler: empty training result")
	}
	var wrapped struct {
		ModelInfo *TrainingResult `json:"model_info"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("automodeler: failed to decode training result: %w", err)
	}
	if wrapped.ModelInfo != nil {
		return wrapped.ModelInfo, nil
	}
	var flat TrainingResult
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("automodeler: failed to decode training result: %w", err)
	}
	return &flat, nil
}
