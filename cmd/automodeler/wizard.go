package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/params"
	"github.com/jdziat/automodeler-go/pkg/plotspec"
	"github.com/jdziat/automodeler-go/wizard"
	"gonum.org/v1/plot/vg"
)

// maxAttempts bounds how often a step is retried after the user's input was
// rejected.
const maxAttempts = 5

var learningTypes = []wizard.LearningType{
	wizard.LearningSupervised,
	wizard.LearningUnsupervised,
	wizard.LearningPreprocessing,
}

func wizardCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("wizard", flag.ContinueOnError)
	fs.SetOutput(a.out)
	restart := fs.Bool("restart", false, "discard the current run and start over")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	w := wizard.New(a.session)
	step := wizard.StepIntake
	if _, ok, err := a.session.LearningType(); err != nil {
		return err
	} else if ok && !*restart {
		if step, err = w.Resume(); err != nil {
			return err
		}
		if step != wizard.StepIntake {
			a.ui.Info(fmt.Sprintf("Resuming the current run at %s.", step))
		}
	}

	for step != wizard.StepDone {
		a.log.Sugar().Debugw("wizard step", "step", step.String())
		err := retryRejected(a, func() error { return runStep(ctx, a, w, step) })

		var pe *wizard.PrerequisiteError
		if errors.As(err, &pe) {
			a.ui.Warn(pe.Error())
			step = pe.RedirectTo
			continue
		}
		if err != nil {
			return err
		}
		if step, err = w.Next(step); err != nil {
			return err
		}
	}
	a.ui.Success("Run complete")
	return nil
}

func runStep(ctx context.Context, a *app, w *wizard.Wizard, step wizard.Step) error {
	switch step {
	case wizard.StepIntake:
		return runIntake(ctx, a, w)
	case wizard.StepPreprocessing:
		return runPreprocessing(ctx, a, w)
	case wizard.StepAlgorithm:
		return runAlgorithm(ctx, a, w)
	case wizard.StepFeatures:
		return runFeatures(ctx, a, w)
	case wizard.StepResults:
		return runResults(ctx, a, w)
	}
	return fmt.Errorf("no screen for step %s", step)
}

// retryRejected reruns fn while the backend or the wizard rejects the
// user's input.
func retryRejected(a *app, fn func() error) error {
	var err error
	for i := 0; i < maxAttempts; i++ {
		err = fn()
		if !rejected(err) {
			return err
		}
		a.ui.Error(describe(err))
	}
	return err
}

func rejected(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := automodeler.AsValidationError(err); ok {
		return true
	}
	if _, ok := automodeler.AsSemanticError(err); ok {
		return true
	}
	var de *wizard.DocError
	return errors.As(err, &de)
}

func runIntake(ctx context.Context, a *app, w *wizard.Wizard) error {
	a.ui.Title("New project")
	names := make([]string, len(learningTypes))
	for i, lt := range learningTypes {
		names[i] = string(lt)
	}
	i, err := a.ui.Choose("Learning type", names)
	if err != nil {
		return err
	}
	lt := learningTypes[i]
	if err := w.Begin(lt); err != nil {
		return err
	}

	in, err := w.Intake(ctx)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := chooseDataset(a, in); err != nil {
		return err
	}
	if preview, err := in.RequestPreview(ctx); err != nil {
		a.ui.Warn("Preview unavailable: " + describe(err))
	} else {
		a.ui.Table(preview.Columns, preview.Rows, 10)
	}

	sub := wizard.IntakeSubmission{LearningType: lt}
	if sub.ProjectName, err = a.ui.AskRequired("Project name"); err != nil {
		return err
	}
	sub.Preprocessing = lt == wizard.LearningPreprocessing
	if !sub.Preprocessing {
		if sub.Preprocessing, err = a.ui.Confirm("Preprocess the dataset first?", false); err != nil {
			return err
		}
	}
	if sub.Preprocessing {
		labels := make([]string, len(wizard.Methods))
		for i, m := range wizard.Methods {
			labels[i] = m.Label
		}
		picked, err := a.ui.ChooseMany("Methods to start with (comma separated, empty for none)", labels, nil)
		if err != nil {
			return err
		}
		for _, i := range picked {
			sub.PreprocessingOptions = append(sub.PreprocessingOptions, wizard.Methods[i].ID)
		}
	}

	resp, err := in.Submit(ctx, sub)
	if err != nil {
		return err
	}
	msg := "Project created"
	if resp.Message != "" {
		msg = resp.Message
	}
	a.ui.Success(msg)
	return nil
}

func chooseDataset(a *app, in *wizard.Intake) error {
	sources := []automodeler.DatasetSource{automodeler.SourceCustom, automodeler.SourcePredefined, automodeler.SourceGenerated}
	i, err := a.ui.Choose("Dataset", []string{"Upload a file", "Predefined dataset", "Generate a dataset"})
	if err != nil {
		return err
	}
	if err := in.SelectSource(sources[i]); err != nil {
		return err
	}

	switch sources[i] {
	case automodeler.SourceCustom:
		path, err := a.ui.AskRequired("File (" + strings.Join(automodeler.AllowedExtensions, ", ") + ")")
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return automodeler.NewValidationErrorWithCause("dataset", "cannot read "+path, err)
		}
		return in.UseFile(filepath.Base(path), data)

	case automodeler.SourcePredefined:
		j, err := a.ui.Choose("Predefined dataset", automodeler.PredefinedDatasets)
		if err != nil {
			return err
		}
		return in.ChoosePredefined(automodeler.PredefinedDatasets[j])

	default:
		names := make([]string, len(automodeler.Generators))
		for j, g := range automodeler.Generators {
			names[j] = g.Name
		}
		j, err := a.ui.Choose("Generator", names)
		if err != nil {
			return err
		}
		gen := automodeler.Generators[j]
		values := make(map[string]float64, len(gen.Params))
		for _, name := range sortedNames(gen.Params) {
			raw, err := a.ui.Ask(name, strconv.FormatFloat(gen.Params[name], 'g', -1, 64))
			if err != nil {
				return err
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return automodeler.NewValidationError(name, "must be a number")
			}
			values[name] = v
		}
		return in.ChooseGenerator(gen.Name, values)
	}
}

func runPreprocessing(ctx context.Context, a *app, w *wizard.Wizard) error {
	a.ui.Title("Preprocessing")
	p, err := w.Preprocessing(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	lt, _, err := a.session.LearningType()
	if err != nil {
		return err
	}
	if lt != wizard.LearningPreprocessing {
		skip, err := a.ui.Confirm("Skip preprocessing?", false)
		if err != nil {
			return err
		}
		if skip {
			return p.Skip()
		}
	}

	if _, err := p.LoadColumnTypes(ctx); err != nil {
		return err
	}
	enabled := make(map[string]bool)
	for _, id := range p.Plan().Enabled() {
		enabled[id] = true
	}
	for _, m := range wizard.Methods {
		on, err := a.ui.Confirm("Apply "+strings.ToLower(m.Label)+"?", enabled[m.ID])
		if err != nil {
			return err
		}
		if err := p.Toggle(m.ID, on); err != nil {
			return err
		}
		if on {
			if err := configureMethod(a, p, m); err != nil {
				return err
			}
		}
	}

	if err := p.Submit(ctx); err != nil {
		return err
	}
	result, err := p.Results(ctx)
	if err != nil {
		return err
	}
	a.ui.Success(fmt.Sprintf("Preprocessed %s: %d rows, %d columns, %d missing values",
		result.Filename, result.Stats.Rows, result.Stats.Columns, result.Stats.MissingValues))
	for _, m := range result.AppliedMethods {
		a.ui.Info("  • " + m.Name)
	}

	if lt == wizard.LearningPreprocessing {
		save, err := a.ui.Confirm("Save the preprocessing report?", true)
		if err != nil || !save {
			return err
		}
		report, err := p.SaveReport(ctx)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(result.Filename, filepath.Ext(result.Filename)) + "_report.html"
		if err := os.WriteFile(name, report, 0o644); err != nil {
			return err
		}
		a.ui.Success("Report written to " + name)
	}
	return nil
}

func configureMethod(a *app, p *wizard.Preprocessing, m wizard.Method) error {
	state := planState(p.Plan(), m.ID)
	for _, param := range m.Params {
		current := state.Params[param.Name]
		switch {
		case param.Columns:
			cols, err := p.ColumnsFor(m.ID)
			if err != nil {
				return err
			}
			if len(cols) == 0 {
				a.ui.Warn("No " + string(m.Columns) + " columns for " + m.Label)
				continue
			}
			picked, err := a.ui.ChooseMany(m.Label+" columns (empty for all)", cols, nil)
			if err != nil {
				return err
			}
			values := cols
			if len(picked) > 0 {
				values = make([]string, len(picked))
				for i, k := range picked {
					values[i] = cols[k]
				}
			}
			if err := p.SetParameter(m.ID, param.Name, values...); err != nil {
				return err
			}

		case len(param.Options) > 0:
			label := fmt.Sprintf("%s %s", m.Label, param.Name)
			if len(current) > 0 {
				label += " (now " + current[0] + ")"
			}
			i, err := a.ui.Choose(label, param.Options)
			if err != nil {
				return err
			}
			if err := p.SetParameter(m.ID, param.Name, param.Options[i]); err != nil {
				return err
			}

		default:
			def := param.Default
			if len(current) > 0 {
				def = current[0]
			}
			v, err := a.ui.Ask(m.Label+" "+param.Name, def)
			if err != nil {
				return err
			}
			if err := p.SetParameter(m.ID, param.Name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func planState(plan wizard.Plan, id string) wizard.MethodState {
	for _, st := range plan {
		if st.ID == id {
			return st
		}
	}
	return wizard.MethodState{ID: id}
}

func runAlgorithm(ctx context.Context, a *app, w *wizard.Wizard) error {
	a.ui.Title("Algorithm")
	sel, err := w.Algorithms(ctx)
	if err != nil {
		return err
	}
	defer sel.Close()

	lt, _, err := a.session.LearningType()
	if err != nil {
		return err
	}
	cats := wizard.CategoriesFor(lt)
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	i, err := a.ui.Choose("Model type", names)
	if err != nil {
		return err
	}
	if err := sel.ChooseCategory(cats[i]); err != nil {
		return err
	}

	algos := wizard.AlgorithmsFor(cats[i])
	j, err := a.ui.Choose("Algorithm", algos)
	if err != nil {
		return err
	}
	doc, err := sel.ChooseAlgorithm(ctx, algos[j])
	if err != nil {
		return err
	}
	if doc.ShortDescription != "" {
		a.ui.Info(doc.ShortDescription)
	}

	if len(doc.Parameters) > 0 {
		tune, err := a.ui.Confirm("Change parameters from their defaults?", false)
		if err != nil {
			return err
		}
		if tune {
			if err := tuneParameters(a, sel, doc.Parameters); err != nil {
				return err
			}
		}
	}

	choice, err := sel.Submit(ctx)
	if err != nil {
		return err
	}
	a.ui.Success(fmt.Sprintf("%s selected with %d parameter overrides", choice.Algorithm, len(choice.Parameters)))
	return nil
}

func tuneParameters(a *app, sel *wizard.AlgorithmSelector, schema params.Schema) error {
	for _, name := range schema.Names() {
		d := schema[name]
		def := fmt.Sprint(d.DefaultValue())
		label := name
		if s, ok := d.(params.Select); ok {
			label += " (" + strings.Join(s.Options, ", ") + ")"
		}
		for attempt := 0; ; attempt++ {
			raw, err := a.ui.Ask(label, def)
			if err != nil {
				return err
			}
			if raw == def {
				if err := sel.ToggleParameterOverride(name, false); err != nil {
					return err
				}
				break
			}
			err = sel.SetParameterValue(name, raw)
			if err == nil {
				break
			}
			if _, ok := automodeler.AsValidationError(err); !ok || attempt+1 >= maxAttempts {
				return err
			}
			a.ui.Error(describe(err))
		}
	}
	return nil
}

func runFeatures(ctx context.Context, a *app, w *wizard.Wizard) error {
	a.ui.Title("Features")
	f, err := w.Features(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Load(ctx); err != nil {
		return err
	}
	available := f.Selection().Available
	rows := make([][]string, 0, len(available))
	for _, name := range available {
		row := []string{name, "-", "-", "-", "-"}
		if st, ok := f.Stats(name); ok {
			row = []string{name, num(st.Mean), num(st.Std), num(st.Min), num(st.Max)}
		}
		rows = append(rows, row)
	}
	a.ui.Table([]string{"FEATURE", "MEAN", "STD", "MIN", "MAX"}, rows, 0)

	lt, _, err := a.session.LearningType()
	if err != nil {
		return err
	}
	if lt == wizard.LearningSupervised {
		i, err := a.ui.Choose("Target feature", available)
		if err != nil {
			return err
		}
		if err := f.SetTarget(available[i]); err != nil {
			return err
		}
	}

	picked, err := a.ui.ChooseMany("Features to drop (comma separated, empty to keep all)", available, nil)
	if err != nil {
		return err
	}
	for _, i := range picked {
		if err := f.RemoveFeature(available[i]); err != nil {
			return err
		}
	}

	sel, err := f.Submit(ctx)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("%d features selected", len(sel.Included))
	if sel.Target != "" {
		msg += ", target " + sel.Target
	}
	a.ui.Success(msg)
	return nil
}

func runResults(ctx context.Context, a *app, w *wizard.Wizard) error {
	a.ui.Title("Training")
	res, err := w.Results(ctx, wizard.WithPreviewRows(a.cfg.Results.PreviewRows))
	if err != nil {
		return err
	}
	defer res.Close()

	a.ui.Info("Training the model…")
	view, err := res.FetchTrainingResult(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, len(view.Pairs))
	for i, p := range view.Pairs {
		rows[i] = []string{num(p[0]), num(p[1])}
	}
	a.ui.Table(view.Columns[:], rows, 0)
	if view.Truncated() {
		a.ui.Info(fmt.Sprintf("… %d of %d predictions shown", len(view.Pairs), view.Total))
	}

	a.ui.Title("Evaluation")
	eval, err := res.FetchEvaluation(ctx)
	if err != nil {
		return err
	}
	a.ui.Table([]string{"METRIC", "VALUE"}, metricRows(eval.Metrics), 0)

	if plotIt, err := a.ui.Confirm("Render the results plot?", true); err != nil {
		return err
	} else if plotIt {
		if _, err := res.FetchPlotSpec(ctx); err != nil {
			a.ui.Warn("Plot unavailable: " + describe(err))
		} else if err := writePlot(a, res, eval.ProjectName+"_plot.png", "png"); err != nil {
			a.ui.Warn("Plot not written: " + describe(err))
		}
	}

	save, err := a.ui.Confirm("Save the model?", true)
	if err != nil || !save {
		return err
	}
	saved, err := res.SaveModel(ctx)
	if err != nil {
		return err
	}
	msg := "Model saved"
	if saved.ModelPath != "" {
		msg += " to " + saved.ModelPath
	}
	a.ui.Success(msg)
	return nil
}

func writePlot(a *app, res *wizard.Results, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = res.RenderPlot(f, renderOptions(a, format))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	a.ui.Success("Plot written to " + path)
	return nil
}

func renderOptions(a *app, format string) plotspec.RenderOptions {
	return plotspec.RenderOptions{
		Width:  vg.Points(a.cfg.Plot.Width),
		Height: vg.Points(a.cfg.Plot.Height),
		Format: format,
	}
}

func metricRows(m automodeler.Metrics) [][]string {
	switch m := m.(type) {
	case *automodeler.RegressionMetrics:
		return [][]string{{"score (R²)", num(m.Score)}, {"MSE", num(m.MSE)}, {"MAE", num(m.MAE)}}
	case *automodeler.ClassificationMetrics:
		return [][]string{{"accuracy", num(m.Accuracy)}, {"precision", num(m.Precision)}, {"recall", num(m.Recall)}, {"F1", num(m.F1)}}
	case *automodeler.ClusteringMetrics:
		return [][]string{
			{"silhouette", optNum(m.Silhouette)},
			{"Calinski-Harabasz", optNum(m.CalinskiHarabasz)},
			{"Davies-Bouldin", optNum(m.DaviesBouldin)},
			{"clusters", strconv.Itoa(m.NClusters)},
		}
	}
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return "not computable"
	}
	return num(*v)
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
