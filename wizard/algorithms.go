package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/pkg/params"
)

var categories = map[LearningType][]automodeler.ModelCategory{
	LearningSupervised: {
		automodeler.CategoryClassification,
		automodeler.CategoryRegression,
	},
	LearningUnsupervised: {
		automodeler.CategoryPartition,
		automodeler.CategoryDensity,
		automodeler.CategoryHierarchical,
		automodeler.CategoryModelBased,
		automodeler.CategorySpectral,
	},
}

var algorithms = map[automodeler.ModelCategory][]string{
	automodeler.CategoryClassification: {
		"Logistic Regression", "SVC", "Decision Tree Classifier", "Random Forest Classifier",
		"Gradient Boosting Classifier", "KNeighbors Classifier", "Quadratic Discriminant Analysis",
		"Linear Discriminant Analysis", "AdaBoost Classifier", "Bagging Classifier",
		"Gaussian NB", "MLP Classifier",
	},
	automodeler.CategoryRegression: {
		"Linear Regression", "SVR", "Decision Tree Regressor", "Ridge", "Lasso", "Elastic Net",
		"Random Forest Regressor", "Gradient Boosting Regressor", "AdaBoost Regressor",
		"Bagging Regressor", "Random Trees Embedding", "MLP Regressor",
	},
	automodeler.CategoryPartition:    {"K-Means"},
	automodeler.CategoryDensity:      {"DBSCAN", "HDBSCAN", "OPTICS"},
	automodeler.CategoryHierarchical: {"Agglomerative", "BIRCH"},
	automodeler.CategoryModelBased:   {"GMM"},
	automodeler.CategorySpectral:     {"Spectral Clustering"},
}

// CategoriesFor returns the model categories offered for a learning type.
// Preprocessing runs have none.
func CategoriesFor(lt LearningType) []automodeler.ModelCategory {
	return append([]automodeler.ModelCategory(nil), categories[lt]...)
}

// AlgorithmsFor returns the algorithms of a model category.
func AlgorithmsFor(c automodeler.ModelCategory) []string {
	return append([]string(nil), algorithms[c]...)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// SelectorState is the progress of an AlgorithmSelector.
type SelectorState int

// Selector states.
const (
	NoCategory SelectorState = iota
	CategoryChosen
	AlgorithmChosen
	ParametersConfigurable
)

func (s SelectorState) String() string {
	switch s {
	case NoCategory:
		return "no category"
	case CategoryChosen:
		return "category chosen"
	case AlgorithmChosen:
		return "algorithm chosen"
	case ParametersConfigurable:
		return "parameters configurable"
	}
	return fmt.Sprintf("SelectorState(%d)", int(s))
}

// DocStatus is the state of the chosen algorithm's documentation fetch.
type DocStatus int

// Documentation states.
const (
	DocNone DocStatus = iota
	DocPending
	DocLoaded
	DocFailed
)

func (s DocStatus) String() string {
	switch s {
	case DocNone:
		return "none"
	case DocPending:
		return "pending"
	case DocLoaded:
		return "loaded"
	case DocFailed:
		return "error"
	}
	return fmt.Sprintf("DocStatus(%d)", int(s))
}

// AlgorithmChoice is the configured algorithm of a run.
type AlgorithmChoice struct {
	Category   automodeler.ModelCategory
	Algorithm  string
	Parameters map[string]any
	Schema     params.Schema
}

// AlgorithmSelector picks the model category, the algorithm and its
// parameter overrides. Safe for concurrent use.
type AlgorithmSelector struct {
	mu      sync.Mutex
	g       guard
	session *Session

	category  automodeler.ModelCategory
	algorithm string
	docStatus DocStatus
	doc       *automodeler.AlgorithmDoc
	docErr    error
	overrides map[string]any
}

// NewAlgorithmSelector returns a selector with nothing chosen.
func NewAlgorithmSelector(ctx context.Context, session *Session) *AlgorithmSelector {
	return &AlgorithmSelector{
		g:         newGuard(ctx),
		session:   session,
		overrides: map[string]any{},
	}
}

// Close ends the step. A documentation fetch in flight is cancelled.
func (a *AlgorithmSelector) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.g.close()
}

// State returns the selector state. An algorithm whose schema has no
// parameters stays AlgorithmChosen once its documentation loads.
func (a *AlgorithmSelector) State() SelectorState {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.category == "":
		return NoCategory
	case a.algorithm == "":
		return CategoryChosen
	case a.docStatus != DocLoaded, len(a.doc.Parameters) == 0:
		return AlgorithmChosen
	}
	return ParametersConfigurable
}

// DocStatus returns the documentation state and, when it failed, the
// *DocError.
func (a *AlgorithmSelector) DocStatus() (DocStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.docStatus, a.docErr
}

// Doc returns the loaded documentation, or nil.
func (a *AlgorithmSelector) Doc() *automodeler.AlgorithmDoc {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc
}

// ChooseCategory selects a model category allowed for the run's learning
// type. The algorithm and its overrides are reset.
func (a *AlgorithmSelector) ChooseCategory(c automodeler.ModelCategory) error {
	lt, ok, err := a.session.LearningType()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotReady
	}
	if !contains(categories[lt], c) {
		return automodeler.NewValidationError("model_type", fmt.Sprintf("%q is not a %s model type", c, lt))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.g.closed() {
		return ErrClosed
	}
	a.category = c
	a.resetAlgorithm()
	a.g.bump()
	return nil
}

// resetAlgorithm clears the algorithm choice. a.mu must be held.
func (a *AlgorithmSelector) resetAlgorithm() {
	a.algorithm = ""
	a.docStatus = DocNone
	a.doc = nil
	a.docErr = nil
	a.overrides = map[string]any{}
}

// ChooseAlgorithm selects an algorithm of the chosen category and fetches
// its documentation. The selector is in AlgorithmChosen with a pending doc
// while the fetch runs. A failure is recorded as a *DocError and returned;
// choosing the algorithm again re-fetches. Overrides are kept when the same
// algorithm is chosen again.
func (a *AlgorithmSelector) ChooseAlgorithm(ctx context.Context, name string) (*automodeler.AlgorithmDoc, error) {
	a.mu.Lock()
	if a.g.closed() {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	if a.category == "" {
		a.mu.Unlock()
		return nil, ErrNotReady
	}
	if !contains(algorithms[a.category], name) {
		a.mu.Unlock()
		return nil, automodeler.NewValidationError("algo", fmt.Sprintf("%q is not a %s algorithm", name, a.category))
	}
	if name != a.algorithm {
		a.resetAlgorithm()
		a.algorithm = name
	}
	a.docStatus = DocPending
	a.docErr = nil
	gen := a.g.bump()
	reqCtx, cancel := a.g.bind(ctx)
	a.mu.Unlock()
	defer cancel()

	doc, err := a.session.Client().Algorithms().Doc(reqCtx, name)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.g.current(gen) {
		return nil, ErrStale
	}
	if err != nil {
		a.docStatus = DocFailed
		a.docErr = &DocError{Algorithm: name, Err: err}
		return nil, a.docErr
	}
	a.docStatus = DocLoaded
	a.doc = doc
	for k := range a.overrides {
		if !doc.Parameters.Has(k) {
			delete(a.overrides, k)
		}
	}
	return doc, nil
}

// descriptor returns the schema entry of name. a.mu must be held.
func (a *AlgorithmSelector) descriptor(name string) (params.Descriptor, error) {
	if a.g.closed() {
		return nil, ErrClosed
	}
	if a.docStatus != DocLoaded {
		return nil, ErrNotReady
	}
	d, ok := a.doc.Parameters[name]
	if !ok {
		return nil, automodeler.NewValidationError(name, fmt.Sprintf("%s has no parameter %q", a.algorithm, name))
	}
	return d, nil
}

// ToggleParameterOverride turns the override of a parameter on, seeded
// with its schema default, or off.
func (a *AlgorithmSelector) ToggleParameterOverride(name string, on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, err := a.descriptor(name)
	if err != nil {
		return err
	}
	if !on {
		delete(a.overrides, name)
		return nil
	}
	if _, set := a.overrides[name]; !set {
		a.overrides[name] = d.DefaultValue()
	}
	return nil
}

// SetParameterValue coerces raw with the parameter's descriptor and stores
// it as an override.
func (a *AlgorithmSelector) SetParameterValue(name, raw string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, err := a.descriptor(name)
	if err != nil {
		return err
	}
	v, err := d.Coerce(raw)
	if err != nil {
		var ce *params.CoerceError
		if errors.As(err, &ce) {
			return automodeler.NewValidationErrorWithCause(name, ce.Reason, err)
		}
		return err
	}
	a.overrides[name] = v
	return nil
}

// Overrides returns a copy of the parameter overrides.
func (a *AlgorithmSelector) Overrides() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyParams(a.overrides)
}

func copyParams(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Choice returns the current configuration.
func (a *AlgorithmSelector) Choice() AlgorithmChoice {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := AlgorithmChoice{
		Category:   a.category,
		Algorithm:  a.algorithm,
		Parameters: copyParams(a.overrides),
	}
	if a.doc != nil {
		c.Schema = a.doc.Parameters
	}
	return c
}

// Submit records the choice on the backend. It returns ErrNotReady while no
// algorithm is chosen or its documentation is not loaded. Only parameters of
// the schema are sent.
func (a *AlgorithmSelector) Submit(ctx context.Context) (*AlgorithmChoice, error) {
	a.mu.Lock()
	if a.g.closed() {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	if a.algorithm == "" || a.docStatus != DocLoaded {
		a.mu.Unlock()
		return nil, ErrNotReady
	}
	choice := &AlgorithmChoice{
		Category:   a.category,
		Algorithm:  a.algorithm,
		Parameters: map[string]any{},
		Schema:     a.doc.Parameters,
	}
	for k, v := range a.overrides {
		if choice.Schema.Has(k) {
			choice.Parameters[k] = v
		}
	}
	if err := a.g.acquire(); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	reqCtx, cancel := a.g.bind(ctx)
	a.mu.Unlock()
	defer cancel()

	err := a.session.Client().Algorithms().SelectType(reqCtx, &automodeler.SelectTypeRequest{
		Category:   choice.Category,
		Algorithm:  choice.Algorithm,
		Parameters: choice.Parameters,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.g.release()
	if a.g.closed() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	state := a.session.State()
	for _, werr := range []error{
		carrier.Put(state, KeyModelType, choice.Category),
		carrier.Put(state, KeyAlgorithm, choice.Algorithm),
		carrier.Put(state, KeyAlgorithmParameters, choice.Parameters),
	} {
		if werr != nil {
			return nil, werr
		}
	}
	return choice, nil
}
