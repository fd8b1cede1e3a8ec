package wizard

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
)

// ColumnKind filters the dataset columns a method may be applied to.
type ColumnKind string

// Column kinds.
const (
	ColumnsNumeric     ColumnKind = "numeric"
	ColumnsCategorical ColumnKind = "categorical"
	ColumnsAll         ColumnKind = "all"
)

// MethodParam is one parameter of a preprocessing method.
type MethodParam struct {
	// Name is the parameter name within the method.
	Name string
	// Key overrides the flattened wire key. Empty means "<prefix>_<name>".
	Key string
	// Options restricts the value. Empty means free input.
	Options []string
	// Default is the initial value. Column parameters have none.
	Default string
	// Integer requires a positive integer value.
	Integer bool
	// Columns marks the multi-valued column list parameter.
	Columns bool
}

// Method is a preprocessing method of the backend catalog.
type Method struct {
	ID      string
	Label   string
	Prefix  string
	Columns ColumnKind
	Params  []MethodParam
}

// WireKey returns the flattened form key of p.
func (m Method) WireKey(p MethodParam) string {
	if p.Key != "" {
		return p.Key
	}
	prefix := m.Prefix
	if prefix == "" {
		prefix = m.ID
	}
	return prefix + "_" + p.Name
}

// Param returns the parameter called name.
func (m Method) Param(name string) (MethodParam, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p, true
		}
	}
	return MethodParam{}, false
}

// columnsParam is the shared column list parameter.
var columnsParam = MethodParam{Name: "columns", Columns: true}

// Methods is the preprocessing catalog in display order.
var Methods = []Method{
	{
		ID: "normalization", Label: "Normalization", Prefix: "norm", Columns: ColumnsNumeric,
		Params: []MethodParam{
			{Name: "method", Options: []string{"minmax", "robust", "maxabs"}, Default: "minmax"},
			columnsParam,
		},
	},
	{
		ID: "standardization", Label: "Standardization", Prefix: "std", Columns: ColumnsNumeric,
		Params: []MethodParam{columnsParam},
	},
	{
		ID: "missing_values", Label: "Missing values", Prefix: "missing", Columns: ColumnsAll,
		Params: []MethodParam{
			{Name: "strategy", Options: []string{"mean", "median", "most_frequent", "constant", "drop"}, Default: "mean"},
			{Name: "constant_value", Key: "constant_value", Default: "0"},
			columnsParam,
		},
	},
	{
		ID: "outliers", Label: "Outliers", Prefix: "outlier", Columns: ColumnsNumeric,
		Params: []MethodParam{
			{Name: "method", Options: []string{"zscore", "iqr", "isolation_forest"}, Default: "zscore"},
			{Name: "treatment", Options: []string{"remove", "cap", "replace_mean", "replace_median"}, Default: "remove"},
			columnsParam,
		},
	},
	{
		ID: "encoding", Label: "Encoding", Prefix: "encoding", Columns: ColumnsCategorical,
		Params: []MethodParam{
			{Name: "method", Options: []string{"onehot", "label", "ordinal", "binary"}, Default: "onehot"},
			columnsParam,
		},
	},
	{
		ID: "feature_selection", Label: "Feature selection", Prefix: "feature",
		Params: []MethodParam{
			{Name: "method", Options: []string{"variance", "kbest", "pca"}, Default: "variance"},
			{Name: "n_components", Default: "5", Integer: true},
		},
	},
	{
		ID: "transformation", Label: "Transformation", Prefix: "transform", Columns: ColumnsNumeric,
		Params: []MethodParam{
			{Name: "method", Options: []string{"log", "sqrt", "boxcox", "yeo-johnson"}, Default: "log"},
			columnsParam,
		},
	},
}

// LookupMethod returns the catalog entry with the given ID.
func LookupMethod(id string) (Method, bool) {
	for _, m := range Methods {
		if m.ID == id {
			return m, true
		}
	}
	return Method{}, false
}

// MethodState is the configuration of one method in a plan.
type MethodState struct {
	ID      string
	Enabled bool
	Params  map[string][]string
}

// Plan is an ordered preprocessing configuration.
type Plan []MethodState

// Enabled returns the IDs of the enabled methods in order.
func (p Plan) Enabled() []string {
	var ids []string
	for _, m := range p {
		if m.Enabled {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Flatten returns the apply form. Only enabled methods contribute; their
// parameters use the catalog's wire keys.
func (p Plan) Flatten() url.Values {
	form := url.Values{}
	for _, st := range p {
		if !st.Enabled {
			continue
		}
		form.Add(automodeler.FormMethodsKey, st.ID)
		m, ok := LookupMethod(st.ID)
		if !ok {
			continue
		}
		for _, param := range m.Params {
			values := st.Params[param.Name]
			if len(values) == 0 {
				continue
			}
			form[m.WireKey(param)] = append([]string(nil), values...)
		}
	}
	return form
}

func (st MethodState) clone() MethodState {
	params := make(map[string][]string, len(st.Params))
	for k, v := range st.Params {
		params[k] = append([]string(nil), v...)
	}
	st.Params = params
	return st
}

// Preprocessing configures and applies the preprocessing plan of a run.
// Safe for concurrent use.
type Preprocessing struct {
	mu      sync.Mutex
	g       guard
	session *Session

	columns automodeler.ColumnTypes
	loaded  bool
	states  []MethodState
	result  *automodeler.PreprocessingResult
}

// NewPreprocessing returns a preprocessing step with every method disabled
// and seeded with its defaults. Methods picked at intake are enabled.
func NewPreprocessing(ctx context.Context, session *Session) *Preprocessing {
	p := &Preprocessing{g: newGuard(ctx), session: session}
	picked, _, _ := carrier.Lookup(session.State(), KeyPreprocessingOptions)
	for _, m := range Methods {
		st := MethodState{ID: m.ID, Params: map[string][]string{}}
		for _, param := range m.Params {
			if param.Default != "" {
				st.Params[param.Name] = []string{param.Default}
			}
		}
		for _, id := range picked {
			if id == m.ID {
				st.Enabled = true
			}
		}
		p.states = append(p.states, st)
	}
	return p
}

// Close ends the step.
func (p *Preprocessing) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.g.close()
}

// LoadColumnTypes fetches the dataset's columns and their kinds.
func (p *Preprocessing) LoadColumnTypes(ctx context.Context) (automodeler.ColumnTypes, error) {
	p.mu.Lock()
	if p.g.closed() {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	gen := p.g.bump()
	reqCtx, cancel := p.g.bind(ctx)
	p.mu.Unlock()
	defer cancel()

	types, err := p.session.Client().Preprocessing().ColumnTypes(reqCtx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.g.current(gen) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	p.columns = types
	p.loaded = true
	return append(automodeler.ColumnTypes(nil), types...), nil
}

// ColumnsFor returns the columns a method may be applied to.
func (p *Preprocessing) ColumnsFor(methodID string) ([]string, error) {
	m, ok := LookupMethod(methodID)
	if !ok {
		return nil, unknownMethod(methodID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return nil, ErrNotReady
	}
	return p.columnsFor(m), nil
}

func (p *Preprocessing) columnsFor(m Method) []string {
	var out []string
	for _, c := range p.columns {
		switch m.Columns {
		case ColumnsAll:
		case ColumnsNumeric:
			if !c.IsNumeric() {
				continue
			}
		case ColumnsCategorical:
			if c.IsNumeric() {
				continue
			}
		default:
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

// Toggle enables or disables a method. Its parameters are kept, so enabling
// it again restores them.
func (p *Preprocessing) Toggle(methodID string, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, err := p.state(methodID)
	if err != nil {
		return err
	}
	st.Enabled = enabled
	return nil
}

// SetParameter sets a parameter of a method. Column parameters take any
// number of values, each of which must be offered by ColumnsFor; other
// parameters take exactly one.
func (p *Preprocessing) SetParameter(methodID, name string, values ...string) error {
	m, ok := LookupMethod(methodID)
	if !ok {
		return unknownMethod(methodID)
	}
	param, ok := m.Param(name)
	if !ok {
		return automodeler.NewValidationError(m.Prefix+"_"+name, fmt.Sprintf("%s has no parameter %q", methodID, name))
	}
	field := m.WireKey(param)

	p.mu.Lock()
	defer p.mu.Unlock()
	st, err := p.state(methodID)
	if err != nil {
		return err
	}

	if param.Columns {
		if !p.loaded {
			return ErrNotReady
		}
		offered := make(map[string]bool)
		for _, c := range p.columnsFor(m) {
			offered[c] = true
		}
		for _, v := range values {
			if !offered[v] {
				return automodeler.NewValidationError(field, fmt.Sprintf("column %q is not available for %s", v, methodID))
			}
		}
		st.Params[name] = append([]string(nil), values...)
		return nil
	}

	if len(values) != 1 {
		return automodeler.NewValidationError(field, "exactly one value is required")
	}
	v := values[0]
	if err := checkParamValue(param, v); err != nil {
		return automodeler.NewValidationError(field, err.Error())
	}
	st.Params[name] = []string{v}
	return nil
}

func checkParamValue(param MethodParam, v string) error {
	if param.Integer {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("must be a positive integer, got %q", v)
		}
		return nil
	}
	if len(param.Options) == 0 {
		return nil
	}
	for _, opt := range param.Options {
		if v == opt {
			return nil
		}
	}
	return fmt.Errorf("unknown option %q", v)
}

// state returns the live state of a method. p.mu must be held.
func (p *Preprocessing) state(methodID string) (*MethodState, error) {
	if p.g.closed() {
		return nil, ErrClosed
	}
	for i := range p.states {
		if p.states[i].ID == methodID {
			return &p.states[i], nil
		}
	}
	return nil, unknownMethod(methodID)
}

func unknownMethod(id string) error {
	return automodeler.NewValidationError(automodeler.FormMethodsKey, fmt.Sprintf("unknown preprocessing method %q", id))
}

// Plan returns a copy of the current plan.
func (p *Preprocessing) Plan() Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan()
}

func (p *Preprocessing) plan() Plan {
	out := make(Plan, len(p.states))
	for i, st := range p.states {
		out[i] = st.clone()
	}
	return out
}

// Submit applies the plan. A plan with no enabled method is rejected
// without a request.
func (p *Preprocessing) Submit(ctx context.Context) error {
	p.mu.Lock()
	plan := p.plan()
	enabled := plan.Enabled()
	if len(enabled) == 0 {
		p.mu.Unlock()
		return automodeler.NewValidationError(automodeler.FormMethodsKey, "select at least one preprocessing method")
	}
	if err := p.g.acquire(); err != nil {
		p.mu.Unlock()
		return err
	}
	reqCtx, cancel := p.g.bind(ctx)
	p.mu.Unlock()
	defer cancel()

	err := p.session.Client().Preprocessing().Apply(reqCtx, plan.Flatten())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.g.release()
	if p.g.closed() {
		return ErrStale
	}
	if err != nil {
		return err
	}
	p.result = nil
	return carrier.Put(p.session.State(), KeyPreprocessingMethods, enabled)
}

// Results fetches the outcome of the applied plan.
func (p *Preprocessing) Results(ctx context.Context) (*automodeler.PreprocessingResult, error) {
	p.mu.Lock()
	if p.g.closed() {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	gen := p.g.bump()
	reqCtx, cancel := p.g.bind(ctx)
	p.mu.Unlock()
	defer cancel()

	result, err := p.session.Client().Preprocessing().Results(reqCtx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.g.current(gen) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	p.result = result
	return result, nil
}

// SaveReport stores the preprocessed dataset on the backend and returns
// the report page. Results must have been fetched.
func (p *Preprocessing) SaveReport(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	result := p.result
	p.mu.Unlock()
	if result == nil {
		return nil, ErrNotReady
	}
	project, err := carrier.Get(p.session.State(), KeyProjectName)
	if err != nil {
		return nil, err
	}
	return p.session.Client().Preprocessing().SaveReport(ctx, project, result.Filename)
}

// Skip records that the run goes on without preprocessing. Preprocessing
// runs cannot skip.
func (p *Preprocessing) Skip() error {
	lt, _, err := p.session.LearningType()
	if err != nil {
		return err
	}
	if lt == LearningPreprocessing {
		return automodeler.NewValidationError("learning_type", "preprocessing runs cannot skip preprocessing")
	}
	return carrier.Put(p.session.State(), KeyPreprocessingSkipped, true)
}
