package automodeler

import (
	"encoding/json"
	"testing"
)

func TestPreviewUnmarshal_NormalizesCells(t *testing.T) {
	data := []byte(`{
		"columns": ["a", "b", "c", "d", 4],
		"data": [
			[5.1, "setosa", null, true, 151],
			[1e-3, "", false, 0.30000000000000004, -2]
		]
	}`)

	var p Preview
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	wantCols := []string{"a", "b", "c", "d", "4"}
	for i, c := range wantCols {
		if p.Columns[i] != c {
			t.Errorf("Columns[%d] = %q, want %q", i, p.Columns[i], c)
		}
	}

	want := [][]string{
		{"5.1", "setosa", "", "true", "151"},
		{"1e-3", "", "false", "0.30000000000000004", "-2"},
	}
	if len(p.Rows) != len(want) {
		t.Fatalf("len(Rows) = %d, want %d", len(p.Rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if p.Rows[i][j] != want[i][j] {
				t.Errorf("Rows[%d][%d] = %q, want %q", i, j, p.Rows[i][j], want[i][j])
			}
		}
	}
}

func TestPreviewUnmarshal_RejectsCompositeCells(t *testing.T) {
	var p Preview
	if err := json.Unmarshal([]byte(`{"columns": ["a"], "data": [[[1, 2]]]}`), &p); err == nil {
		t.Fatal("Unmarshal() accepted a nested array cell")
	}
}

func TestPreviewHeadAndEmpty(t *testing.T) {
	var nilPreview *Preview
	if !nilPreview.Empty() {
		t.Error("nil preview should be empty")
	}
	if nilPreview.Head(2) != nil {
		t.Error("Head() of nil should be nil")
	}

	p := &Preview{Columns: []string{"x"}, Rows: [][]string{{"1"}, {"2"}, {"3"}}}
	if p.Empty() {
		t.Error("preview with columns reported empty")
	}
	h := p.Head(2)
	if len(h.Rows) != 2 {
		t.Errorf("Head(2) has %d rows", len(h.Rows))
	}
	if got := p.Head(-1); len(got.Rows) != 3 {
		t.Errorf("Head(-1) has %d rows, want all", len(got.Rows))
	}
	h.Columns[0] = "changed"
	if p.Columns[0] != "x" {
		t.Error("Head() shares the column slice")
	}
}

func TestEnums(t *testing.T) {
	for _, l := range []LearningType{LearningSupervised, LearningUnsupervised, LearningPreprocessing} {
		if !l.Valid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if LearningType("deep").Valid() {
		t.Error("unknown learning type reported valid")
	}
	if !SourceGenerated.Valid() || string(SourceGenerated) != "create" {
		t.Errorf("SourceGenerated = %q", SourceGenerated)
	}
	if DatasetSource("url").Valid() {
		t.Error("unknown source reported valid")
	}
	if !CategoryRegression.IsSupervised() || CategoryRegression.IsClustering() {
		t.Error("regression category misclassified")
	}
	if !CategoryDensity.IsClustering() || CategoryDensity.IsSupervised() {
		t.Error("density category misclassified")
	}
}

func TestColumnTypesUnmarshal(t *testing.T) {
	var list ColumnTypes
	if err := json.Unmarshal([]byte(`[{"name":"a","type":"numeric"},{"name":"b","type":"categorical"}]`), &list); err != nil {
		t.Fatalf("Unmarshal(list) error = %v", err)
	}
	if len(list) != 2 || !list[0].IsNumeric() || list[1].IsNumeric() {
		t.Errorf("list = %+v", list)
	}

	var byName ColumnTypes
	if err := json.Unmarshal([]byte(`{"z":"numeric","a":"categorical"}`), &byName); err != nil {
		t.Fatalf("Unmarshal(map) error = %v", err)
	}
	if got := byName.Names(); len(got) != 2 || got[0] != "a" || got[1] != "z" {
		t.Errorf("Names() = %v, want sorted [a z]", got)
	}

	ordered := orderColumns(byName, []string{"z", "a"})
	if ordered[0].Name != "z" || ordered[1].Name != "a" {
		t.Errorf("orderColumns() = %+v", ordered)
	}
}
