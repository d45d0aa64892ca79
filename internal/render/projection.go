package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/lascloud/internal/cloud"
)

// ProjectionOptions controls the static top-down render.
type ProjectionOptions struct {
	Title     string
	MaxPoints int    // decimation budget; default 50000
	Format    string // "png" or "svg"; default "png"
}

// WriteProjection renders a top-down (XY) scatter of the cloud to w, one
// glyph color per class. This is the static counterpart of the interactive
// 3-D view, intended for reports.
func WriteProjection(c *cloud.Cloud, w io.Writer, o ProjectionOptions) error {
	if c.Count() == 0 {
		return fmt.Errorf("render: empty cloud")
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = defaultMaxPoints
	}
	if o.Format == "" {
		o.Format = "png"
	}
	c = c.Decimate(o.MaxPoints)

	p := plot.New()
	p.Title.Text = o.Title
	if p.Title.Text == "" {
		p.Title.Text = "Point Cloud (top-down)"
	}
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	addSeries := func(name string, points []cloud.Point, hex string) error {
		xys := make(plotter.XYs, len(points))
		for i, pt := range points {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		col, err := parseHexColor(hex)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = col
		sc.GlyphStyle.Radius = vg.Points(1)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(name, sc)
		return nil
	}

	if c.HasClasses() {
		colors := ClassColors(c)
		for _, cl := range c.UniqueClasses() {
			name := fmt.Sprintf("Class %d (%s)", cl, cloud.ClassName(cl))
			if err := addSeries(name, c.PointsOfClass(cl), colors[cl]); err != nil {
				return err
			}
		}
	} else {
		if err := addSeries("points", c.Points, tab20[0]); err != nil {
			return err
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(9*vg.Inch, 9*vg.Inch, o.Format)
	if err != nil {
		return fmt.Errorf("render: projection writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render: write projection: %w", err)
	}
	return nil
}
