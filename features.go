package automodeler

import (
	"context"
	"net/url"
	"strings"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// FeaturesClient loads the dataset's features and records the selection.
type FeaturesClient struct {
	http pkghttp.Doer
}

// FeatureStats are the descriptive statistics of a numeric column.
type FeatureStats struct {
	Count  float64 `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"25%"`
	Median float64 `json:"50%"`
	Q3     float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// FeaturesPage is what the backend returns for the feature selection step.
type FeaturesPage struct {
	ProjectName  string                  `json:"project_name"`
	Filename     string                  `json:"filename"`
	ModelType    ModelCategory           `json:"model_type"`
	Algo         string                  `json:"algo"`
	LearningType LearningType            `json:"learning_type"`
	Features     []string                `json:"features"`
	Stats        map[string]FeatureStats `json:"stats"`
	ParamsDict   map[string]any          `json:"params_dict"`
}

// Load returns the features of the current run's dataset.
func (c *FeaturesClient) Load(ctx context.Context) (*FeaturesPage, error) {
	var result FeaturesPage
	if err := c.http.Get(ctx, "/select_features", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FeatureSubmission is the selected features and, for supervised runs,
// the target.
type FeatureSubmission struct {
	Selected []string
	Target   string
}

// Form returns the url-encoded payload. The target is omitted when empty.
func (s *FeatureSubmission) Form() url.Values {
	form := url.Values{"selected_features": {strings.Join(s.Selected, ",")}}
	if s.Target != "" {
		form.Set("target_feature", s.Target)
	}
	return form
}

// Submit records the feature selection.
func (c *FeaturesClient) Submit(ctx context.Context, sub *FeatureSubmission) error {
	if sub == nil {
		return ErrNilRequest
	}
	if len(sub.Selected) == 0 {
		return NewValidationError("selected_features", "select at least one feature")
	}
	return c.http.PostForm(ctx, "/select_features", sub.Form(), nil)
}
