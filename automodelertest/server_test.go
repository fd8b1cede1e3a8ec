package automodelertest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	automodeler "github.com/jdziat/automodeler-go"
)

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestMockServer_RecordsRequests(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	resp, err := http.Post(ms.URL+"/api/generate_preview", "application/json",
		bytes.NewReader([]byte(`{"algorithm":"make_moons","params":{"n_samples":3}}`)))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	resp.Body.Close()

	if ms.RequestCount() != 1 {
		t.Errorf("RequestCount() = %d, want 1", ms.RequestCount())
	}
	req := ms.LastRequest()
	if req == nil {
		t.Fatal("LastRequest() returned nil")
	}
	if req.Method != http.MethodPost || req.Path != "/api/generate_preview" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	var body map[string]any
	if err := req.JSON(&body); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if body["algorithm"] != "make_moons" {
		t.Errorf("algorithm = %v, want make_moons", body["algorithm"])
	}
}

func TestMockServer_RecordsForms(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()
	ms.RequireAuth = false

	form := url.Values{"project_name": {"p"}, "filename": {"f.csv"}}
	resp, err := noRedirectClient().PostForm(ms.URL+"/preprocessing/save", form)
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	resp.Body.Close()

	req := ms.LastRequestWithPath("/preprocessing/save")
	if req == nil {
		t.Fatal("request not recorded")
	}
	if got := req.Form.Get("project_name"); got != "p" {
		t.Errorf("project_name = %q, want p", got)
	}
}

func TestMockServer_RedirectsWithoutSession(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	resp, err := noRedirectClient().Get(ms.URL + "/dashboard")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestMockServer_Reset(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	resp, err := http.Get(ms.URL + "/api/dataset_preview?dataset=load_iris")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	ms.Reset()
	if ms.RequestCount() != 0 {
		t.Errorf("RequestCount() = %d after reset, want 0", ms.RequestCount())
	}
	if ms.LastRequest() != nil {
		t.Error("LastRequest() should be nil after reset")
	}
}

func TestMockServer_Overrides(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.RespondWithError(http.MethodGet, "/api/dataset_preview", http.StatusInternalServerError, "boom")
	resp, err := http.Get(ms.URL + "/api/dataset_preview?dataset=load_iris")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	ms.ResetRoute(http.MethodGet, "/api/dataset_preview")
	resp, err = http.Get(ms.URL + "/api/dataset_preview?dataset=load_iris")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status after reset = %d, want 200", resp.StatusCode)
	}
}

func TestNewTestClient(t *testing.T) {
	client, server := NewTestClient(t)

	if !client.HasSession() {
		t.Fatal("client has no session after login")
	}
	if !server.HasRequestWithPath("/") {
		t.Error("login request not recorded")
	}

	projects, err := client.Projects().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("len(projects) = %d, want 0", len(projects))
	}
}

func TestNewAnonymousClient_NotAuthenticated(t *testing.T) {
	client, _ := NewAnonymousClient(t)

	_, err := client.Projects().List(context.Background())
	if !errors.Is(err, automodeler.ErrNotAuthenticated) {
		t.Fatalf("List error = %v, want ErrNotAuthenticated", err)
	}
}

func TestMockServer_FullSupervisedRun(t *testing.T) {
	client, server := NewTestClient(t)
	ctx := context.Background()

	created, err := client.Projects().Create(ctx, &automodeler.CreateProjectRequest{
		ProjectName:       "iris",
		LearningType:      automodeler.LearningSupervised,
		Source:            automodeler.SourcePredefined,
		PredefinedDataset: "load_iris",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Filename != "load_iris.csv" || created.Redirect != "/select_type" {
		t.Errorf("created = %+v", created)
	}

	err = client.Algorithms().SelectType(ctx, &automodeler.SelectTypeRequest{
		Category:   automodeler.CategoryClassification,
		Algorithm:  "Random Forest Classifier",
		Parameters: map[string]any{"n_estimators": 50},
	})
	if err != nil {
		t.Fatalf("SelectType: %v", err)
	}

	page, err := client.Features().Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(page.Features) != 5 {
		t.Fatalf("features = %v", page.Features)
	}

	err = client.Features().Submit(ctx, &automodeler.FeatureSubmission{
		Selected: []string{"sepal_length", "petal_length"},
		Target:   "species",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	res, err := client.Training().Train(ctx)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(res.PredictionsValues) != 3 || res.PredictionsValues[0] != (automodeler.Pair{1.2, 1.5}) {
		t.Errorf("predictions = %v", res.PredictionsValues)
	}

	ev, err := client.Evaluation().Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if _, ok := ev.Metrics.(*automodeler.ClassificationMetrics); !ok {
		t.Errorf("metrics = %T, want *ClassificationMetrics", ev.Metrics)
	}

	sel := server.LastRequestWithPath("/select_type")
	if !strings.Contains(sel.Form.Get("algorithm_parameters"), `"n_estimators":50`) {
		t.Errorf("algorithm_parameters = %q", sel.Form.Get("algorithm_parameters"))
	}
}
