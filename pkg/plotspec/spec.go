// Package plotspec decodes the plot specifications produced by the
// AutoModeler backend and renders them with gonum/plot.
package plotspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Type identifies how a plot must be drawn.
type Type string

// Plot types.
const (
	TypeRegression     Type = "regression"
	TypeClassification Type = "classification"
	TypeClustering     Type = "clustering"
)

// ErrInvalidSpec is returned for specs whose series cannot be drawn.
var ErrInvalidSpec = errors.New("plotspec: invalid plot specification")

// Spec is a backend plot specification.
//
// Regression specs carry YTest and Predictions, indexed by position.
// Classification and clustering specs carry a 2-D projection (X0, X1) and
// one label per point.
type Spec struct {
	Type   Type   `json:"type"`
	Title  string `json:"title"`
	XLabel string `json:"xlabel"`
	YLabel string `json:"ylabel"`

	YTest       []float64 `json:"y_test,omitempty"`
	Predictions []float64 `json:"predictions,omitempty"`

	X0     []float64 `json:"x_pca_0,omitempty"`
	X1     []float64 `json:"x_pca_1,omitempty"`
	Labels []int     `json:"labels,omitempty"`
}

// Decode parses plot data that is either a JSON object or a JSON string
// holding the encoded object. The backend sends both forms.
func Decode(raw json.RawMessage) (*Spec, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: empty plot data", ErrInvalidSpec)
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("plotspec: failed to decode plot string: %w", err)
		}
		raw = []byte(inner)
	}

	var s Spec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("plotspec: failed to decode plot data: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the series required by the plot type are present and
// parallel-indexed.
func (s *Spec) Validate() error {
	switch s.Type {
	case TypeRegression:
		if len(s.YTest) == 0 {
			return fmt.Errorf("%w: regression plot has no y_test values", ErrInvalidSpec)
		}
		if len(s.YTest) != len(s.Predictions) {
			return fmt.Errorf("%w: y_test has %d values, predictions has %d",
				ErrInvalidSpec, len(s.YTest), len(s.Predictions))
		}
	case TypeClassification, TypeClustering:
		if len(s.X0) == 0 {
			return fmt.Errorf("%w: %s plot has no points", ErrInvalidSpec, s.Type)
		}
		if len(s.X0) != len(s.X1) || len(s.X0) != len(s.Labels) {
			return fmt.Errorf("%w: x_pca_0=%d x_pca_1=%d labels=%d are not parallel",
				ErrInvalidSpec, len(s.X0), len(s.X1), len(s.Labels))
		}
	default:
		return fmt.Errorf("%w: unknown plot type %q", ErrInvalidSpec, s.Type)
	}
	return nil
}

// Len returns the number of points in the spec.
func (s *Spec) Len() int {
	if s.Type == TypeRegression {
		return len(s.YTest)
	}
	return len(s.X0)
}
