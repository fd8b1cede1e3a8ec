package automodeler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
	"github.com/jdziat/automodeler-go/pkg/params"
)

// AlgorithmsClient fetches algorithm documentation and records the chosen
// algorithm for the current run.
type AlgorithmsClient struct {
	http pkghttp.Doer
}

// AlgorithmDoc is the documentation and parameter schema of an algorithm.
type AlgorithmDoc struct {
	ShortDescription string        `json:"short_description"`
	Doc              string        `json:"doc"`
	Parameters       params.Schema `json:"parameters"`
}

// Doc returns the documentation of algorithm.
func (c *AlgorithmsClient) Doc(ctx context.Context, algorithm string) (*AlgorithmDoc, error) {
	if algorithm == "" {
		return nil, NewValidationError("algorithm", "algorithm name is required")
	}
	var result AlgorithmDoc
	if err := c.http.Get(ctx, "/get_algorithm_doc", url.Values{"algorithm": {algorithm}}, &result); err != nil {
		return nil, err
	}
	if result.Parameters == nil {
		result.Parameters = params.Schema{}
	}
	return &result, nil
}

// SelectTypeRequest records the model category, algorithm and parameter
// overrides for the current run.
type SelectTypeRequest struct {
	Category   ModelCategory
	Algorithm  string
	Parameters map[string]any
}

// Form returns the url-encoded payload. Parameter overrides travel as a JSON
// document under algorithm_parameters.
func (r *SelectTypeRequest) Form() (url.Values, error) {
	p := r.Parameters
	if p == nil {
		p = map[string]any{}
	}
	doc, err := json.Marshal(map[string]any{"parameters": p})
	if err != nil {
		return nil, fmt.Errorf("automodeler: failed to encode algorithm parameters: %w", err)
	}
	return url.Values{
		"model_type":           {string(r.Category)},
		"algo":                 {r.Algorithm},
		"algorithm_parameters": {string(doc)},
	}, nil
}

// SelectType submits the algorithm choice.
func (c *AlgorithmsClient) SelectType(ctx context.Context, req *SelectTypeRequest) error {
	if req == nil {
		return ErrNilRequest
	}
	if req.Category == "" {
		return NewValidationError("model_type", "choose a model type")
	}
	if req.Algorithm == "" {
		return NewValidationError("algo", "choose an algorithm")
	}
	form, err := req.Form()
	if err != nil {
		return err
	}
	return c.http.PostForm(ctx, "/select_type", form, nil)
}
