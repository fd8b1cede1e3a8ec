package wizard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/automodelertest"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/wizard"
)

const irisCSV = "sepal_length,sepal_width,petal_length,petal_width,species\n" +
	"5.1,3.5,1.4,0.2,setosa\n" +
	"4.9,3.0,1.4,0.2,setosa\n"

func newSession(t *testing.T, opts ...automodeler.ConfigOption) (*wizard.Session, *automodelertest.MockServer) {
	t.Helper()
	client, server := automodelertest.NewTestClient(t, opts...)
	return wizard.NewSession(client, carrier.NewMemoryStore()), server
}

// startRun begins a run and creates its project from a bundled dataset.
func startRun(t *testing.T, session *wizard.Session, lt wizard.LearningType, dataset string, preprocessing ...string) *wizard.Wizard {
	t.Helper()
	w := wizard.New(session)
	if err := w.Begin(lt); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	intake, err := w.Intake(context.Background())
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	defer intake.Close()

	if err := intake.SelectSource(automodeler.SourcePredefined); err != nil {
		t.Fatalf("SelectSource() error = %v", err)
	}
	if err := intake.ChoosePredefined(dataset); err != nil {
		t.Fatalf("ChoosePredefined() error = %v", err)
	}
	_, err = intake.Submit(context.Background(), wizard.IntakeSubmission{
		ProjectName:          "run",
		LearningType:         lt,
		Preprocessing:        len(preprocessing) > 0,
		PreprocessingOptions: preprocessing,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return w
}

// chooseAlgorithm runs the algorithm step with no overrides.
func chooseAlgorithm(t *testing.T, w *wizard.Wizard, category automodeler.ModelCategory, algo string) {
	t.Helper()
	sel, err := w.Algorithms(context.Background())
	if err != nil {
		t.Fatalf("Algorithms() error = %v", err)
	}
	defer sel.Close()
	if err := sel.ChooseCategory(category); err != nil {
		t.Fatalf("ChooseCategory() error = %v", err)
	}
	if _, err := sel.ChooseAlgorithm(context.Background(), algo); err != nil {
		t.Fatalf("ChooseAlgorithm() error = %v", err)
	}
	if _, err := sel.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

// blockRoute makes a route wait until the returned release func is called
// or the request is cancelled. started is closed when the request arrives.
func blockRoute(t *testing.T, server *automodelertest.MockServer, method, path string, body any) (started <-chan struct{}, release func()) {
	t.Helper()
	arrived := make(chan struct{})
	unblock := make(chan struct{})
	var arriveOnce, releaseOnce sync.Once
	release = func() { releaseOnce.Do(func() { close(unblock) }) }
	t.Cleanup(release)

	server.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		arriveOnce.Do(func() { close(arrived) })
		select {
		case <-unblock:
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})
	return arrived, release
}
