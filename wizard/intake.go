package wizard

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
)

// IntakeSubmission is the project form of the intake step.
type IntakeSubmission struct {
	ProjectName          string
	LearningType         LearningType
	Preprocessing        bool
	PreprocessingOptions []string
}

// Intake resolves the dataset of a run. Safe for concurrent use.
type Intake struct {
	mu      sync.Mutex
	g       guard
	session *Session

	source          automodeler.DatasetSource
	fileName        string
	fileContent     []byte
	predefined      string
	generator       string
	generatorParams map[string]float64

	preview    *automodeler.Preview
	previewErr error
}

// NewIntake returns an intake step living until ctx is done or Close is
// called. The initial source is a custom upload.
func NewIntake(ctx context.Context, session *Session) *Intake {
	return &Intake{
		g:       newGuard(ctx),
		session: session,
		source:  automodeler.SourceCustom,
	}
}

// Close ends the step. In-flight previews are cancelled and discarded.
func (in *Intake) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.g.close()
}

// Source returns the active dataset source.
func (in *Intake) Source() automodeler.DatasetSource {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.source
}

// SelectSource switches the dataset source. Switching clears the selected
// file and the preview and invalidates previews still in flight.
func (in *Intake) SelectSource(src automodeler.DatasetSource) error {
	if !src.Valid() {
		return automodeler.NewValidationError("dataset_type", fmt.Sprintf("unknown dataset source %q", src))
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.g.closed() {
		return ErrClosed
	}
	if src == in.source {
		return nil
	}
	in.source = src
	in.fileName = ""
	in.fileContent = nil
	in.clearPreview()
	return nil
}

// clearPreview drops the preview and supersedes pending requests. in.mu must
// be held.
func (in *Intake) clearPreview() {
	in.preview = nil
	in.previewErr = nil
	in.g.bump()
}

// UseFile selects a file to upload. The source must be custom.
func (in *Intake) UseFile(name string, content []byte) error {
	if err := automodeler.ValidateDatasetFilename(name); err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	if err := in.requireSource(automodeler.SourceCustom); err != nil {
		return err
	}
	in.fileName = name
	in.fileContent = append([]byte(nil), content...)
	in.clearPreview()
	return nil
}

// ChoosePredefined selects a bundled dataset. The source must be predefined.
func (in *Intake) ChoosePredefined(name string) error {
	if !automodeler.IsPredefinedDataset(name) {
		return automodeler.NewValidationError("predefined_dataset", fmt.Sprintf("unknown dataset %q", name))
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	if err := in.requireSource(automodeler.SourcePredefined); err != nil {
		return err
	}
	if in.predefined != name {
		in.predefined = name
		in.clearPreview()
	}
	return nil
}

// ChooseGenerator selects a synthetic generator. Parameters not given keep
// the generator defaults. The source must be generated.
func (in *Intake) ChooseGenerator(name string, params map[string]float64) error {
	gen, ok := automodeler.LookupGenerator(name)
	if !ok {
		return automodeler.NewValidationError("create_algorithm", fmt.Sprintf("unknown generator %q", name))
	}
	merged := make(map[string]float64, len(gen.Params))
	for k, v := range gen.Params {
		merged[k] = v
	}
	for k, v := range params {
		if _, known := gen.Params[k]; !known {
			return automodeler.NewValidationError("param_"+k, fmt.Sprintf("%s has no parameter %q", name, k))
		}
		merged[k] = v
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if err := in.requireSource(automodeler.SourceGenerated); err != nil {
		return err
	}
	in.generator = name
	in.generatorParams = merged
	in.clearPreview()
	return nil
}

// GeneratorParams returns the effective parameters of the chosen generator.
func (in *Intake) GeneratorParams() map[string]float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make(map[string]float64, len(in.generatorParams))
	for k, v := range in.generatorParams {
		out[k] = v
	}
	return out
}

func (in *Intake) requireSource(src automodeler.DatasetSource) error {
	if in.g.closed() {
		return ErrClosed
	}
	if in.source != src {
		return automodeler.NewValidationError("dataset_type", fmt.Sprintf("active source is %s, not %s", in.source, src))
	}
	return nil
}

// previewRequest is a snapshot of what a preview is requested for.
type previewRequest struct {
	gen       uint64
	source    automodeler.DatasetSource
	name      string
	content   []byte
	generator string
	params    map[string]float64
}

// RequestPreview fetches a preview of the current selection. A failure
// leaves the previous preview in place. A response that arrives after the
// source changed, after a newer preview request, or after Close is
// discarded and ErrStale is returned.
func (in *Intake) RequestPreview(ctx context.Context) (*automodeler.Preview, error) {
	in.mu.Lock()
	if in.g.closed() {
		in.mu.Unlock()
		return nil, ErrClosed
	}
	req := previewRequest{
		gen:       in.g.bump(),
		source:    in.source,
		name:      in.fileName,
		content:   in.fileContent,
		generator: in.generator,
		params:    in.generatorParams,
	}
	if req.source == automodeler.SourcePredefined {
		req.name = in.predefined
	}
	reqCtx, cancel := in.g.bind(ctx)
	in.mu.Unlock()
	defer cancel()

	preview, err := in.fetchPreview(reqCtx, req)

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.g.current(req.gen) || in.source != req.source {
		return nil, ErrStale
	}
	if err != nil {
		in.previewErr = err
		return nil, err
	}
	in.preview = preview
	in.previewErr = nil
	return preview.Head(-1), nil
}

func (in *Intake) fetchPreview(ctx context.Context, req previewRequest) (*automodeler.Preview, error) {
	datasets := in.session.Client().Datasets()
	switch req.source {
	case automodeler.SourceCustom:
		if req.name == "" {
			return nil, automodeler.NewValidationError("dataset", "choose a file first")
		}
		return datasets.PreviewCustom(ctx, req.name, bytes.NewReader(req.content))
	case automodeler.SourcePredefined:
		if req.name == "" {
			return nil, automodeler.NewValidationError("predefined_dataset", "choose a dataset first")
		}
		return datasets.PreviewPredefined(ctx, req.name)
	default:
		if req.generator == "" {
			return nil, automodeler.NewValidationError("create_algorithm", "choose a generator first")
		}
		return datasets.PreviewGenerated(ctx, req.generator, req.params)
	}
}

// Preview returns a copy of the current preview, or nil.
func (in *Intake) Preview() *automodeler.Preview {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.preview.Head(-1)
}

// PreviewError returns the error of the last preview request, if it failed.
func (in *Intake) PreviewError() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.previewErr
}

// Submit creates the project. The project name and the active source's
// selection are validated before any request is sent. On success the run
// identity is written to the carrier.
func (in *Intake) Submit(ctx context.Context, sub IntakeSubmission) (*automodeler.CreateProjectResponse, error) {
	in.mu.Lock()
	req := &automodeler.CreateProjectRequest{
		ProjectName:          sub.ProjectName,
		LearningType:         sub.LearningType,
		Source:               in.source,
		Preprocessing:        sub.Preprocessing || sub.LearningType == LearningPreprocessing,
		PreprocessingOptions: append([]string(nil), sub.PreprocessingOptions...),
	}
	switch in.source {
	case automodeler.SourceCustom:
		req.Filename = in.fileName
		if in.fileName != "" {
			req.File = bytes.NewReader(in.fileContent)
		}
	case automodeler.SourcePredefined:
		req.PredefinedDataset = in.predefined
	case automodeler.SourceGenerated:
		req.Generator = in.generator
		req.GeneratorParams = in.generatorParams
	}
	if err := req.Validate(); err != nil {
		in.mu.Unlock()
		return nil, err
	}
	if !in.session.Authenticated() {
		in.mu.Unlock()
		return nil, automodeler.ErrNotAuthenticated
	}
	if err := in.g.acquire(); err != nil {
		in.mu.Unlock()
		return nil, err
	}
	reqCtx, cancel := in.g.bind(ctx)
	in.mu.Unlock()
	defer cancel()

	release := func() {
		in.mu.Lock()
		in.g.release()
		in.mu.Unlock()
	}

	if err := in.session.checkLearningType(sub.LearningType); err != nil {
		release()
		return nil, err
	}

	resp, err := in.session.Client().Projects().Create(reqCtx, req)

	in.mu.Lock()
	defer in.mu.Unlock()
	in.g.release()
	if in.g.closed() {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	if resp.Preview != nil && !resp.Preview.Empty() {
		in.preview = resp.Preview.Head(-1)
		in.previewErr = nil
	}

	filename := resp.Filename
	if filename == "" {
		filename = req.Filename
	}
	state := in.session.State()
	writes := []error{
		in.session.LockLearningType(req.LearningType),
		carrier.Put(state, KeyProjectName, req.ProjectName),
		carrier.Put(state, KeyFilename, filename),
		carrier.Put(state, KeyDatasetSource, req.Source),
		carrier.Put(state, KeyPreprocessingEnabled, req.Preprocessing),
		carrier.Put(state, KeyPreprocessingOptions, req.PreprocessingOptions),
	}
	for _, werr := range writes {
		if werr != nil {
			return nil, werr
		}
	}
	return resp, nil
}
