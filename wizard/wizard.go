package wizard

import (
	"context"
	"fmt"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
)

// Step is a page of the wizard.
type Step int

// Wizard steps in order.
const (
	StepIntake Step = iota
	StepPreprocessing
	StepAlgorithm
	StepFeatures
	StepResults
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepIntake:
		return "intake"
	case StepPreprocessing:
		return "preprocessing"
	case StepAlgorithm:
		return "algorithm"
	case StepFeatures:
		return "features"
	case StepResults:
		return "results"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Wizard sequences the steps of a run over a Session.
type Wizard struct {
	session *Session
}

// New returns a wizard driving session.
func New(session *Session) *Wizard {
	return &Wizard{session: session}
}

// Session returns the wizard's session.
func (w *Wizard) Session() *Session {
	return w.session
}

// Begin starts a new run of learning type lt. State of any previous run is
// discarded.
func (w *Wizard) Begin(lt LearningType) error {
	return w.session.StartRun(lt)
}

// Next returns the step following step for the current run.
func (w *Wizard) Next(step Step) (Step, error) {
	state := w.session.State()
	switch step {
	case StepIntake:
		lt, _, err := w.session.LearningType()
		if err != nil {
			return 0, err
		}
		enabled, _, err := carrier.Lookup(state, KeyPreprocessingEnabled)
		if err != nil {
			return 0, err
		}
		if enabled || lt == LearningPreprocessing {
			return StepPreprocessing, nil
		}
		return StepAlgorithm, nil
	case StepPreprocessing:
		lt, _, err := w.session.LearningType()
		if err != nil {
			return 0, err
		}
		if lt == LearningPreprocessing {
			return StepDone, nil
		}
		return StepAlgorithm, nil
	case StepAlgorithm:
		return StepFeatures, nil
	case StepFeatures:
		return StepResults, nil
	case StepResults, StepDone:
		return StepDone, nil
	}
	return 0, fmt.Errorf("wizard: unknown step %d", int(step))
}

// missing returns the names of the keys not set in c.
func missing(c *carrier.Carrier, names ...string) ([]string, error) {
	var out []string
	for _, name := range names {
		ok, err := c.Has(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Require checks that the steps before step have written what it needs.
// It returns a *PrerequisiteError naming the missing keys and the step to
// go back to.
func (w *Wizard) Require(step Step) error {
	state := w.session.State()
	check := func(redirect Step, names ...string) error {
		m, err := missing(state, names...)
		if err != nil {
			return err
		}
		if len(m) > 0 {
			return &PrerequisiteError{Step: step, Missing: m, RedirectTo: redirect}
		}
		return nil
	}

	if step == StepIntake || step == StepDone {
		return nil
	}
	if err := check(StepIntake, KeyLearningType.Name(), KeyProjectName.Name(), KeyFilename.Name()); err != nil {
		return err
	}
	if step == StepPreprocessing {
		return nil
	}

	lt, _, err := w.session.LearningType()
	if err != nil {
		return err
	}
	if lt == LearningPreprocessing {
		return &PrerequisiteError{Step: step, Missing: []string{KeyLearningType.Name()}, RedirectTo: StepIntake}
	}
	enabled, _, err := carrier.Lookup(state, KeyPreprocessingEnabled)
	if err != nil {
		return err
	}
	if enabled {
		done, err := w.produced(StepPreprocessing)
		if err != nil {
			return err
		}
		if !done {
			return &PrerequisiteError{Step: step, Missing: []string{KeyPreprocessingMethods.Name()}, RedirectTo: StepPreprocessing}
		}
	}
	if step == StepAlgorithm {
		return nil
	}

	if err := check(StepAlgorithm, KeyModelType.Name(), KeyAlgorithm.Name()); err != nil {
		return err
	}
	if step == StepFeatures {
		return nil
	}

	features := []string{KeySelectedFeatures.Name()}
	if lt == LearningSupervised {
		features = append(features, KeyTargetFeature.Name())
	}
	return check(StepFeatures, features...)
}

// produced reports whether step has written its output.
func (w *Wizard) produced(step Step) (bool, error) {
	state := w.session.State()
	var names []string
	switch step {
	case StepIntake:
		names = []string{KeyProjectName.Name()}
	case StepPreprocessing:
		for _, name := range []string{KeyPreprocessingMethods.Name(), KeyPreprocessingSkipped.Name()} {
			ok, err := state.Has(name)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case StepAlgorithm:
		names = []string{KeyAlgorithm.Name()}
	case StepFeatures:
		names = []string{KeySelectedFeatures.Name()}
	case StepResults:
		names = []string{KeyModelInfo.Name()}
	default:
		return true, nil
	}
	m, err := missing(state, names...)
	return len(m) == 0, err
}

// Resume returns the step a user returning to the run should land on: the
// first step that has not written its output.
func (w *Wizard) Resume() (Step, error) {
	step := StepIntake
	for step != StepDone {
		done, err := w.produced(step)
		if err != nil {
			return 0, err
		}
		if !done {
			return step, nil
		}
		if step, err = w.Next(step); err != nil {
			return 0, err
		}
	}
	return StepDone, nil
}

// enter checks authentication and the prerequisites of step.
func (w *Wizard) enter(step Step) error {
	if !w.session.Authenticated() {
		return automodeler.ErrNotAuthenticated
	}
	return w.Require(step)
}

// Intake opens the intake step.
func (w *Wizard) Intake(ctx context.Context) (*Intake, error) {
	if err := w.enter(StepIntake); err != nil {
		return nil, err
	}
	return NewIntake(ctx, w.session), nil
}

// Preprocessing opens the preprocessing step.
func (w *Wizard) Preprocessing(ctx context.Context) (*Preprocessing, error) {
	if err := w.enter(StepPreprocessing); err != nil {
		return nil, err
	}
	return NewPreprocessing(ctx, w.session), nil
}

// Algorithms opens the algorithm step.
func (w *Wizard) Algorithms(ctx context.Context) (*AlgorithmSelector, error) {
	if err := w.enter(StepAlgorithm); err != nil {
		return nil, err
	}
	return NewAlgorithmSelector(ctx, w.session), nil
}

// Features opens the feature step.
func (w *Wizard) Features(ctx context.Context) (*FeatureSelector, error) {
	if err := w.enter(StepFeatures); err != nil {
		return nil, err
	}
	return NewFeatureSelector(ctx, w.session), nil
}

// Results opens the results step.
func (w *Wizard) Results(ctx context.Context, opts ...ResultsOption) (*Results, error) {
	if err := w.enter(StepResults); err != nil {
		return nil, err
	}
	return NewResults(ctx, w.session, opts...), nil
}
