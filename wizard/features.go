package wizard

import (
	"context"
	"fmt"
	"sync"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
)

// FeatureSelection is the feature choice of a run. Included keeps the order
// of Available.
type FeatureSelection struct {
	Available []string
	Included  []string
	Target    string
}

// FeatureSelector picks the training features and, for supervised runs,
// the target. Safe for concurrent use.
type FeatureSelector struct {
	mu      sync.Mutex
	g       guard
	session *Session

	page      *automodeler.FeaturesPage
	available []string
	included  map[string]bool
	target    string
}

// NewFeatureSelector returns a selector with no features loaded.
func NewFeatureSelector(ctx context.Context, session *Session) *FeatureSelector {
	return &FeatureSelector{g: newGuard(ctx), session: session}
}

// Close ends the step.
func (f *FeatureSelector) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.g.close()
}

// Load fetches the dataset's features. All of them start included and no
// target is set.
func (f *FeatureSelector) Load(ctx context.Context) (*automodeler.FeaturesPage, error) {
	f.mu.Lock()
	if f.g.closed() {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	gen := f.g.bump()
	reqCtx, cancel := f.g.bind(ctx)
	f.mu.Unlock()
	defer cancel()

	page, err := f.session.Client().Features().Load(reqCtx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.g.current(gen) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	f.page = page
	f.available = append([]string(nil), page.Features...)
	f.included = make(map[string]bool, len(page.Features))
	for _, name := range page.Features {
		f.included[name] = true
	}
	f.target = ""
	return page, nil
}

// Stats returns the statistics of a numeric feature.
func (f *FeatureSelector) Stats(name string) (automodeler.FeatureStats, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page == nil {
		return automodeler.FeatureStats{}, false
	}
	s, ok := f.page.Stats[name]
	return s, ok
}

// Selection returns a copy of the current selection.
func (f *FeatureSelector) Selection() FeatureSelection {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel := FeatureSelection{
		Available: append([]string(nil), f.available...),
		Target:    f.target,
	}
	for _, name := range f.available {
		if f.included[name] {
			sel.Included = append(sel.Included, name)
		}
	}
	return sel
}

// feature checks that name was loaded. f.mu must be held.
func (f *FeatureSelector) feature(name string) error {
	if f.g.closed() {
		return ErrClosed
	}
	if f.page == nil {
		return ErrNotReady
	}
	if !contains(f.available, name) {
		return automodeler.NewValidationError("selected_features", fmt.Sprintf("unknown feature %q", name))
	}
	return nil
}

// RemoveFeature excludes a feature. Removing the target also clears it.
func (f *FeatureSelector) RemoveFeature(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.feature(name); err != nil {
		return err
	}
	delete(f.included, name)
	if f.target == name {
		f.target = ""
	}
	return nil
}

// IncludeFeature includes a loaded feature again.
func (f *FeatureSelector) IncludeFeature(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.feature(name); err != nil {
		return err
	}
	f.included[name] = true
	return nil
}

// SetTarget picks the target feature of a supervised run.
func (f *FeatureSelector) SetTarget(name string) error {
	lt, _, err := f.session.LearningType()
	if err != nil {
		return err
	}
	if lt != LearningSupervised {
		return ErrTargetNotApplicable
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.feature(name); err != nil {
		return err
	}
	if !f.included[name] {
		return automodeler.NewValidationError("target_feature", fmt.Sprintf("feature %q was removed", name))
	}
	f.target = name
	return nil
}

// ClearTarget unsets the target.
func (f *FeatureSelector) ClearTarget() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = ""
}

// Submit records the selection. The target is never part of the selected
// features. Supervised runs require a target; unsupervised runs never send
// one.
func (f *FeatureSelector) Submit(ctx context.Context) (*FeatureSelection, error) {
	lt, ok, err := f.session.LearningType()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotReady
	}

	f.mu.Lock()
	if f.g.closed() {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	if f.page == nil {
		f.mu.Unlock()
		return nil, ErrNotReady
	}
	sel := &FeatureSelection{Available: append([]string(nil), f.available...)}
	if lt == LearningSupervised {
		sel.Target = f.target
	}
	for _, name := range f.available {
		if f.included[name] && name != sel.Target {
			sel.Included = append(sel.Included, name)
		}
	}
	if len(sel.Included) == 0 {
		f.mu.Unlock()
		return nil, automodeler.NewValidationError("selected_features", "select at least one feature")
	}
	if lt == LearningSupervised && sel.Target == "" {
		f.mu.Unlock()
		return nil, automodeler.NewValidationError("target_feature", "choose a target feature")
	}
	if err := f.g.acquire(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	reqCtx, cancel := f.g.bind(ctx)
	f.mu.Unlock()
	defer cancel()

	err = f.session.Client().Features().Submit(reqCtx, &automodeler.FeatureSubmission{
		Selected: sel.Included,
		Target:   sel.Target,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.g.release()
	if f.g.closed() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	state := f.session.State()
	if err := carrier.Put(state, KeySelectedFeatures, sel.Included); err != nil {
		return nil, err
	}
	if sel.Target == "" {
		err = state.Delete(KeyTargetFeature.Name())
	} else {
		err = carrier.Put(state, KeyTargetFeature, sel.Target)
	}
	if err != nil {
		return nil, err
	}
	return sel, nil
}
