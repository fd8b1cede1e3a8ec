package automodeler

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// PredefinedDatasets lists the bundled datasets the backend can load.
var PredefinedDatasets = []string{
	"load_iris",
	"load_digits",
	"load_diabetes",
	"load_breast_cancer",
}

// Generator describes a synthetic dataset generator and its numeric
// parameters with default values.
type Generator struct {
	Name   string
	Params map[string]float64
}

// Generators lists the synthetic dataset generators the backend supports.
var Generators = []Generator{
	{Name: "make_blobs", Params: map[string]float64{"n_samples": 100, "n_features": 2, "centers": 3}},
	{Name: "make_moons", Params: map[string]float64{"n_samples": 100, "noise": 0.1}},
	{Name: "make_circles", Params: map[string]float64{"n_samples": 100, "noise": 0.05, "factor": 0.5}},
	{Name: "make_classification", Params: map[string]float64{"n_samples": 100, "n_features": 4, "n_classes": 2}},
	{Name: "make_regression", Params: map[string]float64{"n_samples": 100, "n_features": 2, "noise": 0.1}},
}

// LookupGenerator returns the generator with the given name.
func LookupGenerator(name string) (Generator, bool) {
	for _, g := range Generators {
		if g.Name == name {
			return g, true
		}
	}
	return Generator{}, false
}

// IsPredefinedDataset reports whether name is a known predefined dataset.
func IsPredefinedDataset(name string) bool {
	for _, d := range PredefinedDatasets {
		if d == name {
			return true
		}
	}
	return false
}

// AllowedExtensions are the file extensions the backend accepts for uploads.
var AllowedExtensions = []string{".csv", ".xlsx", ".json"}

// ValidateDatasetFilename checks that an upload has a supported extension.
func ValidateDatasetFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("dataset", "a file is required")
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedExtensions {
		if ext == a {
			return nil
		}
	}
	return NewValidationError("dataset", "only CSV, Excel (.xlsx) and JSON files are supported")
}

// DatasetsClient fetches dataset previews. Previews of predefined datasets
// are deterministic and are cached when the client has a preview cache.
type DatasetsClient struct {
	http  pkghttp.Doer
	cache *lru.Cache[string, *Preview]
}

// PreviewCustom uploads a file and returns a preview of its first rows.
func (c *DatasetsClient) PreviewCustom(ctx context.Context, filename string, content io.Reader) (*Preview, error) {
	if err := ValidateDatasetFilename(filename); err != nil {
		return nil, err
	}
	if content == nil {
		return nil, NewValidationError("dataset", "file content is required")
	}

	body := pkghttp.NewMultipart()
	body.AddFile("dataset", filepath.Base(filename), content)

	var result struct {
		Preview *Preview `json:"preview"`
	}
	if err := c.http.PostMultipart(ctx, "/preview_custom", body, &result); err != nil {
		return nil, err
	}
	if result.Preview == nil {
		return &Preview{}, nil
	}
	return result.Preview, nil
}

// PreviewPredefined returns a preview of a predefined dataset.
func (c *DatasetsClient) PreviewPredefined(ctx context.Context, name string) (*Preview, error) {
	if name == "" {
		return nil, NewValidationError("predefined_dataset", "choose a dataset")
	}
	if c.cache != nil {
		if p, ok := c.cache.Get(name); ok {
			return p.Head(-1), nil
		}
	}

	var result Preview
	if err := c.http.Get(ctx, "/api/dataset_preview", url.Values{"dataset": {name}}, &result); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(name, result.Head(-1))
	}
	return &result, nil
}

// GeneratePreviewRequest is the payload of a generated dataset preview.
type GeneratePreviewRequest struct {
	Algorithm string             `json:"algorithm"`
	Params    map[string]float64 `json:"params"`
}

// PreviewGenerated returns a preview of a synthetic dataset.
func (c *DatasetsClient) PreviewGenerated(ctx context.Context, algorithm string, params map[string]float64) (*Preview, error) {
	if algorithm == "" {
		return nil, NewValidationError("create_algorithm", "choose a generator")
	}
	if params == nil {
		params = map[string]float64{}
	}
	var result Preview
	err := c.http.PostJSON(ctx, "/api/generate_preview", &GeneratePreviewRequest{Algorithm: algorithm, Params: params}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
