package wizard_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/automodelertest"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/wizard"
)

func TestStep_String(t *testing.T) {
	if got := wizard.StepFeatures.String(); got != "features" {
		t.Errorf("String() = %q", got)
	}
	if got := wizard.Step(42).String(); got != "Step(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestWizard_Next(t *testing.T) {
	tests := []struct {
		name          string
		lt            wizard.LearningType
		preprocessing []string
		from          wizard.Step
		want          wizard.Step
	}{
		{"supervised skips preprocessing", wizard.LearningSupervised, nil, wizard.StepIntake, wizard.StepAlgorithm},
		{"supervised with preprocessing", wizard.LearningSupervised, []string{"encoding"}, wizard.StepIntake, wizard.StepPreprocessing},
		{"preprocessing then algorithm", wizard.LearningUnsupervised, []string{"encoding"}, wizard.StepPreprocessing, wizard.StepAlgorithm},
		{"preprocessing run", wizard.LearningPreprocessing, nil, wizard.StepIntake, wizard.StepPreprocessing},
		{"preprocessing run ends", wizard.LearningPreprocessing, nil, wizard.StepPreprocessing, wizard.StepDone},
		{"algorithm", wizard.LearningSupervised, nil, wizard.StepAlgorithm, wizard.StepFeatures},
		{"features", wizard.LearningSupervised, nil, wizard.StepFeatures, wizard.StepResults},
		{"results", wizard.LearningSupervised, nil, wizard.StepResults, wizard.StepDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, _ := newSession(t)
			w := startRun(t, session, tt.lt, "load_iris", tt.preprocessing...)
			got, err := w.Next(tt.from)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Next(%s) = %s, want %s", tt.from, got, tt.want)
			}
		})
	}
}

func TestWizard_Require(t *testing.T) {
	session, _ := newSession(t)
	w := wizard.New(session)
	if err := w.Begin(wizard.LearningSupervised); err != nil {
		t.Fatal(err)
	}

	err := w.Require(wizard.StepAlgorithm)
	var pe *wizard.PrerequisiteError
	if !errors.As(err, &pe) {
		t.Fatalf("Require() error = %v, want PrerequisiteError", err)
	}
	if pe.RedirectTo != wizard.StepIntake || !reflect.DeepEqual(pe.Missing, []string{"project_name", "filename"}) {
		t.Errorf("PrerequisiteError = %+v", pe)
	}
	if got := pe.Error(); got != "wizard: algorithm requires project_name, filename; go back to intake" {
		t.Errorf("Error() = %q", got)
	}
	if err := w.Require(wizard.StepIntake); err != nil {
		t.Errorf("Require(intake) error = %v", err)
	}
}

func TestWizard_RequirePreprocessingFirst(t *testing.T) {
	session, _ := newSession(t)
	w := startRun(t, session, wizard.LearningSupervised, "load_iris", "normalization")

	var pe *wizard.PrerequisiteError
	if err := w.Require(wizard.StepAlgorithm); !errors.As(err, &pe) || pe.RedirectTo != wizard.StepPreprocessing {
		t.Fatalf("Require(algorithm) error = %v, want redirect to preprocessing", err)
	}
	p, err := w.Preprocessing(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Skip(); err != nil {
		t.Fatal(err)
	}
	if err := w.Require(wizard.StepAlgorithm); err != nil {
		t.Errorf("Require(algorithm) after Skip error = %v", err)
	}

	if err := w.Require(wizard.StepFeatures); !errors.As(err, &pe) || pe.RedirectTo != wizard.StepAlgorithm {
		t.Errorf("Require(features) error = %v, want redirect to algorithm", err)
	}
	if _, err := w.Features(context.Background()); !errors.As(err, &pe) {
		t.Errorf("Features() error = %v, want PrerequisiteError", err)
	}
}

func TestWizard_RequireTargetForSupervisedResults(t *testing.T) {
	session, _ := newSession(t)
	w := startRun(t, session, wizard.LearningSupervised, "load_iris")
	chooseAlgorithm(t, w, automodeler.CategoryRegression, "Linear Regression")
	if err := carrier.Put(session.State(), wizard.KeySelectedFeatures, []string{"sepal_length"}); err != nil {
		t.Fatal(err)
	}

	var pe *wizard.PrerequisiteError
	err := w.Require(wizard.StepResults)
	if !errors.As(err, &pe) || !reflect.DeepEqual(pe.Missing, []string{"target_feature"}) || pe.RedirectTo != wizard.StepFeatures {
		t.Fatalf("Require(results) error = %v", err)
	}
}

func TestWizard_PreprocessingRunStops(t *testing.T) {
	session, _ := newSession(t)
	w := startRun(t, session, wizard.LearningPreprocessing, "load_iris")

	var pe *wizard.PrerequisiteError
	if _, err := w.Algorithms(context.Background()); !errors.As(err, &pe) {
		t.Fatalf("Algorithms() error = %v, want PrerequisiteError", err)
	}
	if pe.Missing[0] != "learning_type" {
		t.Errorf("Missing = %v", pe.Missing)
	}
}

func TestWizard_Resume(t *testing.T) {
	session, _ := newSession(t)
	w := wizard.New(session)
	if err := w.Begin(wizard.LearningUnsupervised); err != nil {
		t.Fatal(err)
	}
	check := func(want wizard.Step) {
		t.Helper()
		got, err := w.Resume()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Resume() = %s, want %s", got, want)
		}
	}

	check(wizard.StepIntake)
	intake, err := w.Intake(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer intake.Close()
	if err := intake.SelectSource(automodeler.SourceGenerated); err != nil {
		t.Fatal(err)
	}
	if err := intake.ChooseGenerator("make_blobs", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := intake.Submit(context.Background(), wizard.IntakeSubmission{ProjectName: "blobs", LearningType: wizard.LearningUnsupervised}); err != nil {
		t.Fatal(err)
	}

	check(wizard.StepAlgorithm)
	chooseAlgorithm(t, w, automodeler.CategoryPartition, "K-Means")
	check(wizard.StepFeatures)

	f, err := w.Features(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	check(wizard.StepResults)

	// A new run starts over.
	if err := w.Begin(wizard.LearningSupervised); err != nil {
		t.Fatal(err)
	}
	check(wizard.StepIntake)
}

func TestWizard_StepsRequireSession(t *testing.T) {
	client, _ := automodelertest.NewAnonymousClient(t)
	w := wizard.New(wizard.NewSession(client, carrier.NewMemoryStore()))
	if _, err := w.Intake(context.Background()); !errors.Is(err, automodeler.ErrNotAuthenticated) {
		t.Errorf("Intake() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := w.Results(context.Background()); !errors.Is(err, automodeler.ErrNotAuthenticated) {
		t.Errorf("Results() error = %v, want ErrNotAuthenticated", err)
	}
}
