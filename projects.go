package automodeler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// ProjectsClient creates, lists and deletes projects.
type ProjectsClient struct {
	http pkghttp.Doer
}

// CreateProjectRequest is the payload of project creation.
type CreateProjectRequest struct {
	ProjectName  string
	LearningType LearningType
	Source       DatasetSource

	// Custom source.
	Filename string
	File     io.Reader

	// Predefined source.
	PredefinedDataset string

	// Generated source.
	Generator       string
	GeneratorParams map[string]float64

	Preprocessing        bool
	PreprocessingOptions []string
}

// Validate checks the request before it is sent.
func (r *CreateProjectRequest) Validate() error {
	if r == nil {
		return ErrNilRequest
	}
	if strings.TrimSpace(r.ProjectName) == "" {
		return NewValidationError("project_name", "please enter a project name")
	}
	if !r.LearningType.Valid() {
		return NewValidationError("learning_type", "unknown learning type "+strconv.Quote(string(r.LearningType)))
	}
	switch r.Source {
	case SourceCustom:
		if err := ValidateDatasetFilename(r.Filename); err != nil {
			return err
		}
		if r.File == nil {
			return NewValidationError("dataset", "a file is required")
		}
	case SourcePredefined:
		if r.PredefinedDataset == "" {
			return NewValidationError("predefined_dataset", "choose a dataset")
		}
	case SourceGenerated:
		if r.Generator == "" {
			return NewValidationError("create_algorithm", "choose a generator")
		}
	default:
		return NewValidationError("dataset_type", "unknown dataset source "+strconv.Quote(string(r.Source)))
	}
	return nil
}

func (r *CreateProjectRequest) multipart() *pkghttp.Multipart {
	m := pkghttp.NewMultipart()
	m.Set("project_name", r.ProjectName)
	m.Set("learning_type", string(r.LearningType))
	m.Set("dataset_type", string(r.Source))
	if r.Preprocessing {
		m.Set("preprocessing", "true")
		for _, opt := range r.PreprocessingOptions {
			m.Add("preprocessing_options[]", opt)
		}
	} else {
		m.Set("preprocessing", "false")
	}

	switch r.Source {
	case SourceCustom:
		m.AddFile("dataset", filepath.Base(r.Filename), r.File)
	case SourcePredefined:
		m.Set("predefined_dataset", r.PredefinedDataset)
	case SourceGenerated:
		m.Set("create_algorithm", r.Generator)
		for _, name := range sortedKeys(r.GeneratorParams) {
			m.Set("param_"+name, strconv.FormatFloat(r.GeneratorParams[name], 'g', -1, 64))
		}
	}
	return m
}

// CreateProjectResponse is returned by a successful project creation.
type CreateProjectResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Filename string   `json:"filename"`
	Redirect string   `json:"redirect"`
	Preview  *Preview `json:"preview,omitempty"`
}

// Create creates a project and uploads or selects its dataset.
func (c *ProjectsClient) Create(ctx context.Context, req *CreateProjectRequest) (*CreateProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var result CreateProjectResponse
	if err := c.http.PostMultipart(ctx, "/project", req.multipart(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Project summarizes a project on the dashboard. The image fields are URLs
// of the most recent visualization the backend kept for the project.
type Project struct {
	Name             string         `json:"name"`
	Dataset          string         `json:"dataset,omitempty"`
	Model            string         `json:"model,omitempty"`
	Type             string         `json:"type,omitempty"`
	Params           map[string]any `json:"params,omitempty"`
	ErrorCurve       string         `json:"error_curve,omitempty"`
	Clusters         string         `json:"clusters,omitempty"`
	Classification   string         `json:"classification,omitempty"`
	PreprocessingViz string         `json:"preprocessing_viz,omitempty"`
}

// List returns the current user's projects.
func (c *ProjectsClient) List(ctx context.Context) ([]Project, error) {
	var result struct {
		Projects []Project `json:"projects"`
	}
	if err := c.http.Get(ctx, "/dashboard", nil, &result); err != nil {
		return nil, err
	}
	return result.Projects, nil
}

// Get returns one project.
func (c *ProjectsClient) Get(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		return nil, NewValidationError("project_name", "project name is required")
	}
	var result struct {
		Project *Project `json:"project"`
	}
	if err := c.http.Get(ctx, "/project/"+url.PathEscape(name), nil, &result); err != nil {
		return nil, err
	}
	if result.Project == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "project not found", Path: "/project/" + name}
	}
	return result.Project, nil
}

// Delete removes a project and everything stored for it.
func (c *ProjectsClient) Delete(ctx context.Context, name string) error {
	if name == "" {
		return NewValidationError("project_name", "project name is required")
	}
	return c.http.PostForm(ctx, "/delete", url.Values{"project_name": {name}}, nil)
}

// SaveResult describes a saved model.
type SaveResult struct {
	Message     string         `json:"save"`
	ProjectName string         `json:"project_name"`
	Algo        string         `json:"algo"`
	ModelType   ModelCategory  `json:"model_type"`
	ModelPath   string         `json:"model_path"`
	ModelParams map[string]any `json:"model_params"`
}

// SaveModel persists the model trained in the current run.
func (c *ProjectsClient) SaveModel(ctx context.Context) (*SaveResult, error) {
	var result SaveResult
	if err := c.http.PostForm(ctx, "/save", url.Values{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
