package automodeler

import (
	"context"
	"encoding/json"
	"net/url"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
	"github.com/jdziat/automodeler-go/pkg/plotspec"
)

// PlotsClient fetches plot specifications for the current run.
type PlotsClient struct {
	http pkghttp.Doer
}

// PlotResult is a plot specification with its display title.
type PlotResult struct {
	Title string
	Spec  *plotspec.Spec
}

// Spec requests the plot of the model trained in the current run.
func (c *PlotsClient) Spec(ctx context.Context) (*PlotResult, error) {
	var result struct {
		PlotTitle string          `json:"plot_title"`
		PlotData  json.RawMessage `json:"plot_data"`
	}
	if err := c.http.PostForm(ctx, "/plot_results", url.Values{}, &result); err != nil {
		return nil, err
	}
	spec, err := plotspec.Decode(result.PlotData)
	if err != nil {
		return nil, err
	}
	title := result.PlotTitle
	if title == "" {
		title = spec.Title
	}
	return &PlotResult{Title: title, Spec: spec}, nil
}
