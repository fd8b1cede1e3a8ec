package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/wizard"
)

func previewCmd(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: automodeler preview <custom|predefined|create> <file|dataset|generator>")
	}
	datasets := a.client.Datasets()

	var preview *automodeler.Preview
	var err error
	switch automodeler.DatasetSource(args[0]) {
	case automodeler.SourceCustom:
		f, openErr := os.Open(args[1])
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		preview, err = datasets.PreviewCustom(ctx, filepath.Base(args[1]), f)
	case automodeler.SourcePredefined:
		preview, err = datasets.PreviewPredefined(ctx, args[1])
	case automodeler.SourceGenerated:
		gen, ok := automodeler.LookupGenerator(args[1])
		if !ok {
			return automodeler.NewValidationError("generator", fmt.Sprintf("unknown generator %q", args[1]))
		}
		preview, err = datasets.PreviewGenerated(ctx, gen.Name, gen.Params)
	default:
		return fmt.Errorf("unknown dataset source %q (want custom, predefined or create)", args[0])
	}
	if err != nil {
		return err
	}
	a.ui.Table(preview.Columns, preview.Rows, a.cfg.Results.PreviewRows)
	return nil
}

func plotCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	fs.SetOutput(a.out)
	out := fs.String("o", "", "output file (default <project>_plot.<format>)")
	format := fs.String("format", "png", "png or svg")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	w := wizard.New(a.session)
	res, err := w.Results(ctx)
	if err != nil {
		return err
	}
	defer res.Close()

	plot, err := res.FetchPlotSpec(ctx)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		project, err := carrier.Get(a.session.State(), wizard.KeyProjectName)
		if err != nil {
			return err
		}
		path = project + "_plot." + *format
	}
	if plot.Title != "" {
		a.ui.Info(plot.Title)
	}
	return writePlot(a, res, path, *format)
}

func predictCmd(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: automodeler predict <project>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	project, err := a.client.Projects().Get(ctx, args[0])
	if err != nil {
		return err
	}
	model := automodeler.ModelInfo{
		ProjectName: project.Name,
		Filename:    project.Dataset,
		Algo:        project.Model,
		ModelType:   automodeler.ModelCategory(project.Type),
	}
	features, err := a.client.Predictions().Features(ctx, &model)
	if err != nil {
		return err
	}

	a.ui.Title("Predict with " + model.Algo)
	inputs := make(map[string]string, len(features))
	for _, name := range features {
		if inputs[name], err = a.ui.AskRequired(name); err != nil {
			return err
		}
	}
	prediction, err := a.client.Predictions().Predict(ctx, &automodeler.PredictRequest{Model: model, Inputs: inputs})
	if err != nil {
		return err
	}
	a.ui.Success("Prediction: " + prediction.String())
	return nil
}

func statusCmd(_ context.Context, a *app, _ []string) error {
	rows := [][]string{
		{"backend", a.client.BaseURL()},
		{"store", string(a.cfg.Store.Backend) + " " + a.cfg.Store.Path},
	}
	if a.cfg.Path != "" {
		rows = append(rows, []string{"config", a.cfg.Path})
	}
	if a.session.Authenticated() {
		rows = append(rows, []string{"user", a.session.Username()})
	} else {
		rows = append(rows, []string{"user", "not logged in"})
	}
	a.ui.Table([]string{"", ""}, rows, 0)

	state := a.session.State()
	keys, err := state.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		a.ui.Info("No run in progress.")
		return nil
	}

	a.ui.Title("Current run")
	runRows := make([][]string, 0, len(keys))
	for _, k := range keys {
		var v any
		if err := state.Get(k, &v); err != nil {
			return err
		}
		runRows = append(runRows, []string{k, short(v)})
	}
	a.ui.Table([]string{"KEY", "VALUE"}, runRows, 0)

	if next, err := wizard.New(a.session).Resume(); err == nil {
		a.ui.Info("Next step: " + next.String())
	}
	return nil
}

// short renders a carrier value on one line.
func short(v any) string {
	var s string
	switch v := v.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(e)
		}
		s = strings.Join(parts, ", ")
	default:
		s = fmt.Sprint(v)
	}
	if r := []rune(s); len(r) > 60 {
		s = string(r[:59]) + "…"
	}
	return s
}
