package automodeler

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{"(1.2,1.5)", Pair{1.2, 1.5}, false},
		{"(3.0, 2.9)", Pair{3.0, 2.9}, false},
		{" ( -1 , 0 ) ", Pair{-1, 0}, false},
		{"(1e3,2)", Pair{1000, 2}, false},
		{"1.2,1.5", Pair{}, true},
		{"(1.2,1.5", Pair{}, true},
		{"(1.2)", Pair{}, true},
		{"(1,2,3)", Pair{}, true},
		{"(a,b)", Pair{}, true},
		{"(np.float64(1.2), 1.5)", Pair{}, true},
		{"()", Pair{}, true},
		{"", Pair{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePair(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePair(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePair(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPredictionPairs_Strings(t *testing.T) {
	var pp PredictionPairs
	if err := json.Unmarshal([]byte(`["(1.2,1.5)", "(3.0,2.9)"]`), &pp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := PredictionPairs{{1.2, 1.5}, {3.0, 2.9}}
	if len(pp) != len(want) {
		t.Fatalf("len = %d, want %d", len(pp), len(want))
	}
	for i := range want {
		if pp[i] != want[i] {
			t.Errorf("pp[%d] = %v, want %v", i, pp[i], want[i])
		}
	}
}

func TestPredictionPairs_Arrays(t *testing.T) {
	var pp PredictionPairs
	if err := json.Unmarshal([]byte(`[[0, 1], [2.5, -1]]`), &pp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(pp) != 2 || pp[1] != (Pair{2.5, -1}) {
		t.Errorf("pp = %v", pp)
	}
}

func TestPredictionPairs_Malformed(t *testing.T) {
	tests := []string{
		`["(1.2,1.5)", "oops"]`,
		`[[1, 2, 3]]`,
		`[{"a": 1}]`,
	}
	for _, in := range tests {
		var pp PredictionPairs
		err := json.Unmarshal([]byte(in), &pp)
		var perr *PairParseError
		if !errors.As(err, &perr) {
			t.Errorf("Unmarshal(%s) error = %v, want *PairParseError", in, err)
		}
	}

	var pp PredictionPairs
	err := json.Unmarshal([]byte(`["(1,2)", "(x,2)"]`), &pp)
	var perr *PairParseError
	if errors.As(err, &perr) && perr.Index != 1 {
		t.Errorf("Index = %d, want 1", perr.Index)
	}
}

func TestTrainingResultModelInfo(t *testing.T) {
	r := &TrainingResult{
		ProjectName:  "p",
		Filename:     "f.csv",
		Algo:         "SVC",
		ModelType:    CategoryClassification,
		LearningType: LearningSupervised,
		Features:     []string{"a"},
	}
	info := r.ModelInfo()
	if info.ProjectName != "p" || info.Algo != "SVC" || info.ModelType != CategoryClassification {
		t.Errorf("ModelInfo() = %+v", info)
	}
}

func TestPairLabels(t *testing.T) {
	if got := PairLabels(false); got != [2]string{"predicted", "actual"} {
		t.Errorf("supervised labels = %v", got)
	}
	if got := PairLabels(true); got != [2]string{"input", "cluster"} {
		t.Errorf("clustering labels = %v", got)
	}
}
