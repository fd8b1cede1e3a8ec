package automodeler

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// PredictionsClient runs saved models on user input.
type PredictionsClient struct {
	http pkghttp.Doer
}

func validateModelInfo(m *ModelInfo) error {
	if m == nil {
		return ErrNilRequest
	}
	switch {
	case m.ProjectName == "":
		return NewValidationError("project_name", "project name is required")
	case m.Filename == "":
		return NewValidationError("filename", "filename is required")
	case m.Algo == "":
		return NewValidationError("algo", "algorithm is required")
	case m.ModelType == "":
		return NewValidationError("model_type", "model type is required")
	}
	return nil
}

func (m *ModelInfo) values() url.Values {
	v := url.Values{
		"project_name": {m.ProjectName},
		"filename":     {m.Filename},
		"algo":         {m.Algo},
		"model_type":   {string(m.ModelType)},
	}
	if m.LearningType != "" {
		v.Set("learning_type", string(m.LearningType))
	}
	return v
}

// Features returns the input features a saved model expects.
func (c *PredictionsClient) Features(ctx context.Context, model *ModelInfo) ([]string, error) {
	if err := validateModelInfo(model); err != nil {
		return nil, err
	}
	var result struct {
		Features []string `json:"features"`
	}
	if err := c.http.Get(ctx, "/predict_page", model.values(), &result); err != nil {
		return nil, err
	}
	return result.Features, nil
}

// PredictRequest is one prediction input for a saved model.
type PredictRequest struct {
	Model  ModelInfo
	Inputs map[string]string
}

// Form returns the url-encoded payload. Each input travels as
// feature_<name>.
func (r *PredictRequest) Form() url.Values {
	form := r.Model.values()
	for _, name := range sortedKeys(r.Inputs) {
		form.Set("feature_"+name, r.Inputs[name])
	}
	return form
}

// Prediction is the model output for one input. Value is a number, a class
// label, a cluster id or a message for noise points.
type Prediction struct {
	Value json.RawMessage `json:"prediction"`
}

// String returns the prediction as display text.
func (p *Prediction) String() string {
	s, err := cellString(p.Value)
	if err != nil {
		return string(p.Value)
	}
	return s
}

// Float returns the prediction as a number when it is one.
func (p *Prediction) Float() (float64, bool) {
	v, err := strconv.ParseFloat(p.String(), 64)
	return v, err == nil
}

// Predict runs the model on one input.
func (c *PredictionsClient) Predict(ctx context.Context, req *PredictRequest) (*Prediction, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if err := validateModelInfo(&req.Model); err != nil {
		return nil, err
	}
	if len(req.Inputs) == 0 {
		return nil, NewValidationError("features", "at least one feature value is required")
	}
	var result Prediction
	if err := c.http.PostForm(ctx, "/predict", req.Form(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
