package main

import (
	"context"
	"fmt"
	"sort"

	automodeler "github.com/jdziat/automodeler-go"
)

func projectsCmd(ctx context.Context, a *app, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		return listProjects(ctx, a)
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: automodeler projects show <name>")
		}
		return showProject(ctx, a, args[1])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: automodeler projects delete <name>")
		}
		return deleteProject(ctx, a, args[1])
	default:
		return fmt.Errorf("unknown projects command %q (want list, show or delete)", sub)
	}
}

func listProjects(ctx context.Context, a *app) error {
	projects, err := a.client.Projects().List(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		a.ui.Info("No projects yet. Start one with `automodeler wizard`.")
		return nil
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.Name, dash(p.Dataset), dash(p.Model), dash(p.Type)})
	}
	a.ui.Table([]string{"NAME", "DATASET", "MODEL", "TYPE"}, rows, 0)
	return nil
}

func showProject(ctx context.Context, a *app, name string) error {
	p, err := a.client.Projects().Get(ctx, name)
	if err != nil {
		return err
	}
	a.ui.Title(p.Name)
	a.ui.Table([]string{"FIELD", "VALUE"}, projectRows(p), 0)
	if len(p.Params) > 0 {
		keys := make([]string, 0, len(p.Params))
		for k := range p.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, fmt.Sprint(p.Params[k])})
		}
		a.ui.Title("Parameters")
		a.ui.Table([]string{"NAME", "VALUE"}, rows, 0)
	}
	return nil
}

func projectRows(p *automodeler.Project) [][]string {
	rows := [][]string{
		{"dataset", dash(p.Dataset)},
		{"model", dash(p.Model)},
		{"type", dash(p.Type)},
	}
	for _, img := range []struct{ name, url string }{
		{"error curve", p.ErrorCurve},
		{"clusters", p.Clusters},
		{"classification", p.Classification},
		{"preprocessing", p.PreprocessingViz},
	} {
		if img.url != "" {
			rows = append(rows, []string{img.name, img.url})
		}
	}
	return rows
}

func deleteProject(ctx context.Context, a *app, name string) error {
	ok, err := a.ui.Confirm(fmt.Sprintf("Delete project %s and everything stored for it?", name), false)
	if err != nil || !ok {
		return err
	}
	if err := a.client.Projects().Delete(ctx, name); err != nil {
		return err
	}
	a.ui.Success(fmt.Sprintf("Deleted %s", name))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
