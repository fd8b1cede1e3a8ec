package plotspec

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default canvas size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// RenderOptions controls the output canvas.
type RenderOptions struct {
	Width  vg.Length
	Height vg.Length
	// Format is "png" or "svg". Defaults to "png".
	Format string
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Format == "" {
		o.Format = FormatPNG
	}
	return o
}

// Render draws the spec and writes the encoded image to w.
func Render(s *Spec, w io.Writer, opts RenderOptions) error {
	if err := s.Validate(); err != nil {
		return err
	}
	opts = opts.withDefaults()
	if opts.Format != FormatPNG && opts.Format != FormatSVG {
		return fmt.Errorf("plotspec: unsupported format %q", opts.Format)
	}

	p, err := Build(s)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("plotspec: failed to create %s writer: %w", opts.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("plotspec: failed to write plot: %w", err)
	}
	return nil
}

// Build returns the gonum plot for the spec without encoding it.
func Build(s *Spec) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	p.Add(plotter.NewGrid())

	var err error
	switch s.Type {
	case TypeRegression:
		err = addRegression(p, s)
	case TypeClassification, TypeClustering:
		err = addProjection(p, s)
	default:
		err = fmt.Errorf("%w: unknown plot type %q", ErrInvalidSpec, s.Type)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// addRegression draws actual and predicted values against their index.
func addRegression(p *plot.Plot, s *Spec) error {
	actual := make(plotter.XYs, len(s.YTest))
	predicted := make(plotter.XYs, len(s.Predictions))
	for i := range s.YTest {
		actual[i].X = float64(i)
		actual[i].Y = s.YTest[i]
		predicted[i].X = float64(i)
		predicted[i].Y = s.Predictions[i]
	}

	as, err := plotter.NewScatter(actual)
	if err != nil {
		return fmt.Errorf("plotspec: actual series: %w", err)
	}
	as.GlyphStyle.Color = color.RGBA{B: 255, A: 255}
	as.GlyphStyle.Shape = draw.CircleGlyph{}

	ps, err := plotter.NewScatter(predicted)
	if err != nil {
		return fmt.Errorf("plotspec: predicted series: %w", err)
	}
	ps.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	ps.GlyphStyle.Shape = draw.CrossGlyph{}

	p.Add(as, ps)
	p.Legend.Add("y_test", as)
	p.Legend.Add("y_pred", ps)
	return nil
}

// addProjection draws one scatter per label so each label gets a color and a
// legend entry.
func addProjection(p *plot.Plot, s *Spec) error {
	groups := make(map[int]plotter.XYs)
	for i := range s.X0 {
		groups[s.Labels[i]] = append(groups[s.Labels[i]], plotter.XY{X: s.X0[i], Y: s.X1[i]})
	}

	labels := make([]int, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	for i, l := range labels {
		sc, err := plotter.NewScatter(groups[l])
		if err != nil {
			return fmt.Errorf("plotspec: label %d: %w", l, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(labelName(s.Type, l), sc)
	}
	return nil
}

func labelName(t Type, l int) string {
	if t == TypeClustering && l == -1 {
		return "noise"
	}
	if t == TypeClustering {
		return "cluster " + strconv.Itoa(l)
	}
	return "class " + strconv.Itoa(l)
}
