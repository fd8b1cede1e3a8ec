package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by wizard steps.
var (
	// ErrInFlight is returned when a submission is already running.
	ErrInFlight = errors.New("wizard: request already in flight")

	// ErrStale is returned when a response arrives for a request that was
	// superseded or for a step that was closed. The step state is unchanged.
	ErrStale = errors.New("wizard: response discarded as stale")

	// ErrClosed is returned by operations on a closed step.
	ErrClosed = errors.New("wizard: step closed")

	// ErrNotReady is returned when a step cannot submit yet.
	ErrNotReady = errors.New("wizard: step not ready")

	// ErrLearningTypeLocked is returned when a run's learning type is
	// changed after it was set.
	ErrLearningTypeLocked = errors.New("wizard: learning type cannot change during a run")

	// ErrTargetNotApplicable is returned when a target is set for an
	// unsupervised run.
	ErrTargetNotApplicable = errors.New("wizard: target feature only applies to supervised runs")

	// ErrMetricsMismatch is returned when evaluation metrics do not match the
	// trained model.
	ErrMetricsMismatch = errors.New("wizard: metrics do not match the trained model")
)

// PrerequisiteError reports carrier keys a step needs that earlier steps
// have not written.
type PrerequisiteError struct {
	Step       Step
	Missing    []string
	RedirectTo Step
}

// Error implements the error interface.
func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("wizard: %s requires %s; go back to %s",
		e.Step, strings.Join(e.Missing, ", "), e.RedirectTo)
}

// DocError is the documentation fetch failure of an algorithm. It is local
// to the algorithm selector: choosing the algorithm again re-fetches.
type DocError struct {
	Algorithm string
	Err       error
}

// Error implements the error interface.
func (e *DocError) Error() string {
	return fmt.Sprintf("wizard: documentation for %q unavailable: %v", e.Algorithm, e.Err)
}

// Unwrap returns the fetch error.
func (e *DocError) Unwrap() error {
	return e.Err
}
