package automodeler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// FormMethodsKey is the form field listing the enabled preprocessing methods.
const FormMethodsKey = "preprocessing_methods"

// PreprocessingClient applies preprocessing plans to a project's dataset.
type PreprocessingClient struct {
	http pkghttp.Doer
}

// ColumnTypes is the ordered list of dataset columns with their kind.
type ColumnTypes []ColumnType

// UnmarshalJSON accepts both a list of {name, type} objects and the
// backend's page form: a "columns" order plus a name to type map.
func (ct *ColumnTypes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []ColumnType
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*ct = list
		return nil
	}
	var byName map[string]string
	if err := json.Unmarshal(data, &byName); err != nil {
		return fmt.Errorf("column types: %w", err)
	}
	out := make([]ColumnType, 0, len(byName))
	for _, name := range sortedKeys(byName) {
		out = append(out, ColumnType{Name: name, Type: byName[name]})
	}
	*ct = out
	return nil
}

// Names returns the column names in order.
func (ct ColumnTypes) Names() []string {
	names := make([]string, len(ct))
	for i, c := range ct {
		names[i] = c.Name
	}
	return names
}

// ColumnTypes returns the columns of the current project's dataset.
func (c *PreprocessingClient) ColumnTypes(ctx context.Context) (ColumnTypes, error) {
	var result struct {
		Columns     []string    `json:"columns"`
		ColumnTypes ColumnTypes `json:"column_types"`
	}
	if err := c.http.Get(ctx, "/preprocessing/methods", nil, &result); err != nil {
		return nil, err
	}
	return orderColumns(result.ColumnTypes, result.Columns), nil
}

// orderColumns reorders types by the explicit column order when the backend
// sent one.
func orderColumns(types ColumnTypes, order []string) ColumnTypes {
	if len(order) == 0 {
		return types
	}
	byName := make(map[string]ColumnType, len(types))
	for _, t := range types {
		byName[t.Name] = t
	}
	out := make(ColumnTypes, 0, len(types))
	for _, name := range order {
		if t, ok := byName[name]; ok {
			out = append(out, t)
			delete(byName, name)
		}
	}
	for _, t := range types {
		if _, left := byName[t.Name]; left {
			out = append(out, t)
		}
	}
	return out
}

// Apply submits a flattened preprocessing form. The form must list at least
// one method under FormMethodsKey.
func (c *PreprocessingClient) Apply(ctx context.Context, form url.Values) error {
	if len(form[FormMethodsKey]) == 0 {
		return NewValidationError(FormMethodsKey, "select at least one preprocessing method")
	}
	return c.http.PostForm(ctx, "/preprocessing/apply", form, nil)
}

// PreprocessingStats summarizes the preprocessed dataset.
type PreprocessingStats struct {
	Rows          int    `json:"rows"`
	Columns       int    `json:"columns"`
	MissingValues int    `json:"missing_values"`
	MemoryUsage   string `json:"memory_usage"`
}

// AppliedMethod describes one method the backend applied, with display
// parameters.
type AppliedMethod struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
}

// Visualization is a chart the backend rendered for a preprocessing step.
type Visualization struct {
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
}

// PreprocessingResult is the outcome of an applied plan.
type PreprocessingResult struct {
	Success        *bool              `json:"success,omitempty"`
	ProjectName    string             `json:"project_name,omitempty"`
	Filename       string             `json:"filename"`
	Columns        []string           `json:"columns"`
	Stats          PreprocessingStats `json:"stats"`
	AppliedMethods []AppliedMethod    `json:"applied_methods"`
	Visualizations []Visualization    `json:"visualizations"`
	PreviewData    json.RawMessage    `json:"preview_data,omitempty"`
}

// Preview returns the preprocessed preview rows with the result's columns.
func (r *PreprocessingResult) Preview() (*Preview, error) {
	if len(r.PreviewData) == 0 {
		return &Preview{Columns: r.Columns}, nil
	}
	cols, err := json.Marshal(r.Columns)
	if err != nil {
		return nil, err
	}
	doc := append(append(append([]byte(`{"columns":`), cols...), `,"data":`...), r.PreviewData...)
	doc = append(doc, '}')
	var p Preview
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("automodeler: preprocessing preview: %w", err)
	}
	return &p, nil
}

// Results returns the outcome of the last applied plan.
func (c *PreprocessingClient) Results(ctx context.Context) (*PreprocessingResult, error) {
	var result PreprocessingResult
	if err := c.http.Get(ctx, "/preprocessing/results", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveReport asks the backend to store the preprocessed dataset and returns
// the report page it produces.
func (c *PreprocessingClient) SaveReport(ctx context.Context, projectName, filename string) ([]byte, error) {
	if projectName == "" {
		return nil, NewValidationError("project_name", "project name is required")
	}
	if filename == "" {
		return nil, NewValidationError("filename", "filename is required")
	}
	form := url.Values{"project_name": {projectName}, "filename": {filename}}
	return c.http.PostFormRaw(ctx, "/preprocessing/save", form)
}
