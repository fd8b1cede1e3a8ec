package automodeler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LearningType selects the kind of run a project is created for.
type LearningType string

// Learning type constants.
const (
	LearningSupervised    LearningType = "supervised"
	LearningUnsupervised  LearningType = "unsupervised"
	LearningPreprocessing LearningType = "preprocessing"
)

// Valid reports whether l is a known learning type.
func (l LearningType) Valid() bool {
	switch l {
	case LearningSupervised, LearningUnsupervised, LearningPreprocessing:
		return true
	}
	return false
}

// DatasetSource selects where a project's dataset comes from.
type DatasetSource string

// Dataset source constants. The backend calls the generated source "create".
const (
	SourceCustom     DatasetSource = "custom"
	SourcePredefined DatasetSource = "predefined"
	SourceGenerated  DatasetSource = "create"
)

// Valid reports whether s is a known dataset source.
func (s DatasetSource) Valid() bool {
	switch s {
	case SourceCustom, SourcePredefined, SourceGenerated:
		return true
	}
	return false
}

// ModelCategory is the "model_type" sent to the backend: a supervised task
// or a clustering family.
type ModelCategory string

// Model category constants.
const (
	CategoryClassification ModelCategory = "classification"
	CategoryRegression     ModelCategory = "regression"
	CategoryPartition      ModelCategory = "partition"
	CategoryDensity        ModelCategory = "density"
	CategoryHierarchical   ModelCategory = "hierarchical"
	CategoryModelBased     ModelCategory = "model"
	CategorySpectral       ModelCategory = "spectral"
)

// IsSupervised reports whether c is classification or regression.
func (c ModelCategory) IsSupervised() bool {
	return c == CategoryClassification || c == CategoryRegression
}

// IsClustering reports whether c is one of the clustering families.
func (c ModelCategory) IsClustering() bool {
	switch c {
	case CategoryPartition, CategoryDensity, CategoryHierarchical, CategoryModelBased, CategorySpectral:
		return true
	}
	return false
}

// Preview is a sample of a dataset: column names and rows of cells.
// Cells arrive as JSON numbers, strings, booleans or null and are normalized
// to strings; null becomes "".
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"data"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Preview) UnmarshalJSON(data []byte) error {
	var raw struct {
		Columns []json.RawMessage   `json:"columns"`
		Data    [][]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Columns = make([]string, len(raw.Columns))
	for i, c := range raw.Columns {
		s, err := cellString(c)
		if err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		p.Columns[i] = s
	}

	p.Rows = make([][]string, len(raw.Data))
	for i, row := range raw.Data {
		cells := make([]string, len(row))
		for j, c := range row {
			s, err := cellString(c)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = s
		}
		p.Rows[i] = cells
	}
	return nil
}

// Empty reports whether the preview has no columns.
func (p *Preview) Empty() bool {
	return p == nil || len(p.Columns) == 0
}

// Head returns a copy of the preview limited to n rows.
func (p *Preview) Head(n int) *Preview {
	if p == nil {
		return nil
	}
	if n < 0 || n > len(p.Rows) {
		n = len(p.Rows)
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = append([]string(nil), p.Rows[i]...)
	}
	return &Preview{Columns: append([]string(nil), p.Columns...), Rows: rows}
}

// cellString renders a scalar JSON value as text, keeping the number text
// the backend sent.
func cellString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case '{', '[':
		return "", fmt.Errorf("unexpected composite cell %s", raw)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

// ColumnType describes one dataset column as the backend classifies it.
type ColumnType struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Column type values.
const (
	ColumnNumeric     = "numeric"
	ColumnCategorical = "categorical"
)

// IsNumeric reports whether the column holds numbers.
func (c ColumnType) IsNumeric() bool {
	return c.Type == ColumnNumeric
}

// ModelInfo echoes the configuration of the current run.
type ModelInfo struct {
	ProjectName  string        `json:"project_name,omitempty"`
	Filename     string        `json:"filename,omitempty"`
	Algo         string        `json:"algo,omitempty"`
	ModelType    ModelCategory `json:"model_type,omitempty"`
	LearningType LearningType  `json:"learning_type,omitempty"`
	Features     []string      `json:"features,omitempty"`
}

// StatusResponse is the envelope of backend actions that only report an
// outcome.
type StatusResponse struct {
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	Success  *bool  `json:"success,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}
