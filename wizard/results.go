package wizard

import (
	"context"
	"fmt"
	"io"
	"sync"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/pkg/plotspec"
)

// DefaultPreviewRows is the number of output pairs a TrainingView shows.
const DefaultPreviewRows = 20

type resultsOptions struct {
	previewRows int
}

// ResultsOption configures a Results step.
type ResultsOption func(*resultsOptions)

// WithPreviewRows caps the pairs of a TrainingView. Values below 1 keep
// the default.
func WithPreviewRows(n int) ResultsOption {
	return func(o *resultsOptions) {
		if n > 0 {
			o.previewRows = n
		}
	}
}

// TrainingView is a trained model with a capped sample of its output.
type TrainingView struct {
	Result *automodeler.TrainingResult
	// Columns names the two values of each pair: predicted and actual for
	// supervised runs, input and cluster for clustering.
	Columns [2]string
	Pairs   []automodeler.Pair
	Total   int
}

// Truncated reports whether Pairs is shorter than the full output.
func (v *TrainingView) Truncated() bool {
	return len(v.Pairs) < v.Total
}

// Results triggers training and shows the model's evaluation and plot.
// Safe for concurrent use.
type Results struct {
	mu      sync.Mutex
	g       guard
	session *Session
	opts    resultsOptions

	training   *automodeler.TrainingResult
	evaluation *automodeler.Evaluation
	plot       *automodeler.PlotResult
}

// NewResults returns a results step.
func NewResults(ctx context.Context, session *Session, opts ...ResultsOption) *Results {
	o := resultsOptions{previewRows: DefaultPreviewRows}
	for _, opt := range opts {
		opt(&o)
	}
	return &Results{g: newGuard(ctx), session: session, opts: o}
}

// Close ends the step. Requests in flight are cancelled.
func (r *Results) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.g.close()
}

// begin marks the step busy and binds ctx to its lifetime. The caller
// releases the guard once the response is in.
func (r *Results) begin(ctx context.Context) (context.Context, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.g.acquire(); err != nil {
		return nil, nil, err
	}
	reqCtx, cancel := r.g.bind(ctx)
	return reqCtx, cancel, nil
}

// FetchTrainingResult trains the configured model and records its identity
// in the carrier.
func (r *Results) FetchTrainingResult(ctx context.Context) (*TrainingView, error) {
	reqCtx, cancel, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	result, err := r.session.Client().Training().Train(reqCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.g.release()
	if r.g.closed() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	r.training = result
	r.evaluation = nil
	r.plot = nil
	if err := carrier.Put(r.session.State(), KeyModelInfo, result.ModelInfo()); err != nil {
		return nil, err
	}
	return r.view(result), nil
}

func (r *Results) view(result *automodeler.TrainingResult) *TrainingView {
	clustering := result.LearningType == LearningUnsupervised || result.ModelType.IsClustering()
	v := &TrainingView{
		Result:  result,
		Columns: automodeler.PairLabels(clustering),
		Total:   len(result.PredictionsValues),
	}
	n := min(v.Total, r.opts.previewRows)
	v.Pairs = append([]automodeler.Pair(nil), result.PredictionsValues[:n]...)
	return v
}

// expectedMetrics returns the metric variant a run must be evaluated with.
func expectedMetrics(lt LearningType, c automodeler.ModelCategory) (automodeler.MetricsKind, bool) {
	switch {
	case c == automodeler.CategoryRegression:
		return automodeler.MetricsRegression, true
	case c == automodeler.CategoryClassification:
		return automodeler.MetricsClassification, true
	case c.IsClustering(), lt == LearningUnsupervised:
		return automodeler.MetricsClustering, true
	}
	return "", false
}

// FetchEvaluation returns the metrics of the trained model. Metrics of a
// different variant than the run's model type are rejected with
// ErrMetricsMismatch.
func (r *Results) FetchEvaluation(ctx context.Context) (*automodeler.Evaluation, error) {
	reqCtx, cancel, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	eval, err := r.session.Client().Evaluation().Evaluate(reqCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.g.release()
	if r.g.closed() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	lt, _, err := r.session.LearningType()
	if err != nil {
		return nil, err
	}
	category, ok, err := carrier.Lookup(r.session.State(), KeyModelType)
	if err != nil {
		return nil, err
	}
	if !ok {
		category = eval.ModelType
	}
	if lt == "" {
		lt = eval.LearningType
	}
	want, known := expectedMetrics(lt, category)
	if !known || eval.Metrics.Kind() != want {
		return nil, fmt.Errorf("%w: got %s metrics for a %s model", ErrMetricsMismatch, eval.Metrics.Kind(), category)
	}
	r.evaluation = eval
	return eval, nil
}

// FetchPlotSpec requests the plot of the trained model.
func (r *Results) FetchPlotSpec(ctx context.Context) (*automodeler.PlotResult, error) {
	reqCtx, cancel, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	plot, err := r.session.Client().Plots().Spec(reqCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.g.release()
	if r.g.closed() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	r.plot = plot
	return plot, nil
}

// RenderPlot draws the fetched plot to w.
func (r *Results) RenderPlot(w io.Writer, opts plotspec.RenderOptions) error {
	r.mu.Lock()
	plot := r.plot
	r.mu.Unlock()
	if plot == nil {
		return ErrNotReady
	}
	return plotspec.Render(plot.Spec, w, opts)
}

// SaveModel stores the trained model in the project.
func (r *Results) SaveModel(ctx context.Context) (*automodeler.SaveResult, error) {
	r.mu.Lock()
	trained := r.training != nil
	r.mu.Unlock()
	if !trained {
		return nil, ErrNotReady
	}
	return r.session.Client().Projects().SaveModel(ctx)
}

// Training returns the last training result, or nil.
func (r *Results) Training() *automodeler.TrainingResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.training
}

// Evaluation returns the last accepted evaluation, or nil.
func (r *Results) Evaluation() *automodeler.Evaluation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evaluation
}

// Plot returns the last fetched plot, or nil.
func (r *Results) Plot() *automodeler.PlotResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plot
}
