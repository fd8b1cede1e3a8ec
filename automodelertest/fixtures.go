package automodelertest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// IrisPreview returns the first rows of the iris dataset in the backend's
// preview shape.
func IrisPreview() map[string]any {
	return map[string]any{
		"columns": []string{"sepal_length", "sepal_width", "petal_length", "petal_width", "species"},
		"data": [][]any{
			{5.1, 3.5, 1.4, 0.2, "setosa"},
			{4.9, 3.0, 1.4, 0.2, "setosa"},
			{4.7, 3.2, 1.3, 0.2, "setosa"},
			{4.6, 3.1, 1.5, 0.2, "setosa"},
			{5.0, 3.6, 1.4, 0.2, "setosa"},
		},
	}
}

// PredefinedPreview returns the preview of a predefined dataset.
func PredefinedPreview(name string) (map[string]any, bool) {
	switch name {
	case "load_iris":
		return IrisPreview(), true
	case "load_diabetes":
		return map[string]any{
			"columns": []string{"age", "sex", "bmi", "bp", "target"},
			"data": [][]any{
				{0.038, 0.05, 0.061, 0.021, 151},
				{-0.001, -0.044, -0.051, -0.026, 75},
				{0.085, 0.05, 0.044, -0.005, 141},
			},
		}, true
	case "load_breast_cancer":
		return map[string]any{
			"columns": []string{"mean radius", "mean texture", "target"},
			"data": [][]any{
				{17.99, 10.38, 0},
				{20.57, 17.77, 0},
				{13.08, 15.71, 1},
			},
		}, true
	case "load_digits":
		return map[string]any{
			"columns": []string{"pixel_0_0", "pixel_0_1", "pixel_0_2", "target"},
			"data": [][]any{
				{0, 0, 5, 0},
				{0, 0, 0, 1},
				{0, 0, 0, 2},
			},
		}, true
	}
	return nil, false
}

// GeneratedPreview returns a deterministic preview for a dataset generator.
func GeneratedPreview(algorithm string, params map[string]float64) (map[string]any, bool) {
	target := "target"
	switch algorithm {
	case "make_blobs", "make_moons", "make_circles", "make_classification":
		target = "label"
	case "make_regression":
	default:
		return nil, false
	}

	nFeatures := 2
	if v, ok := params["n_features"]; ok && v >= 1 {
		nFeatures = int(v)
	}
	rows := 5
	if v, ok := params["n_samples"]; ok && v >= 1 && v < 5 {
		rows = int(v)
	}

	columns := make([]string, 0, nFeatures+1)
	for i := 0; i < nFeatures; i++ {
		columns = append(columns, "feature_"+strconv.Itoa(i))
	}
	columns = append(columns, target)

	data := make([][]any, rows)
	for r := 0; r < rows; r++ {
		row := make([]any, 0, len(columns))
		for c := 0; c < nFeatures; c++ {
			row = append(row, float64(r)+float64(c)/10)
		}
		row = append(row, r%2)
		data[r] = row
	}
	return map[string]any{"columns": columns, "data": data}, true
}

func csvPreview(r *csv.Reader, rows int) (map[string]any, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	data := make([][]any, 0, rows)
	for len(data) < rows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				row[i] = f
			} else {
				row[i] = cell
			}
		}
		data = append(data, row)
	}
	return map[string]any{"columns": header, "data": data}, nil
}

// AlgorithmDocs are the documentation entries the mock backend serves.
// Algorithms missing here get a generic entry with no parameters.
var AlgorithmDocs = map[string]map[string]any{
	"Random Forest Classifier": {
		"short_description": "A random forest classifier.",
		"doc":               "A random forest is a meta estimator that fits a number of decision tree classifiers.",
		"parameters": map[string]any{
			"n_estimators": map[string]any{"type": "number", "default": 100, "min": 1, "max": 1000, "step": 1},
			"criterion":    map[string]any{"type": "select", "default": "gini", "options": []string{"gini", "entropy", "log_loss"}},
			"max_depth":    map[string]any{"type": "number", "default": nil, "min": 1},
			"bootstrap":    map[string]any{"type": "boolean", "default": true},
		},
	},
	"Linear Regression": {
		"short_description": "Ordinary least squares Linear Regression.",
		"doc":               "LinearRegression fits a linear model with coefficients w = (w1, ..., wp).",
		"parameters": map[string]any{
			"fit_intercept": map[string]any{"type": "boolean", "default": true},
			"positive":      map[string]any{"type": "boolean", "default": false},
		},
	},
	"K-Means": {
		"short_description": "K-Means clustering.",
		"doc":               "K-Means clustering.",
		"parameters": map[string]any{
			"n_clusters": map[string]any{"type": "number", "default": 8, "min": 1, "step": 1},
			"init":       map[string]any{"type": "select", "default": "k-means++", "options": []string{"k-means++", "random"}},
		},
	},
	"DBSCAN": {
		"short_description": "Density-Based Spatial Clustering of Applications with Noise.",
		"doc":               "Perform DBSCAN clustering from vector array or distance matrix.",
		"parameters": map[string]any{
			"eps":         map[string]any{"type": "number", "default": 0.5, "min": 0},
			"min_samples": map[string]any{"type": "number", "default": 5, "min": 1, "step": 1},
		},
	},
}

func (ms *MockServer) algorithmDoc(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("algorithm")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Nom d'algorithme manquant"})
		return
	}
	if doc, ok := AlgorithmDocs[name]; ok {
		writeJSON(w, http.StatusOK, doc)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"short_description": name,
		"doc":               name,
		"parameters":        map[string]any{},
	})
}
