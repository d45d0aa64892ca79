// Package render builds the interactive and static visualizations of a
// point cloud: class-colored 3-D scatters with optional separating-plane
// overlays (go-echarts) and top-down projections (gonum/plot).
package render

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/svm"
)

// echartsAssetsHost is where rendered pages load the echarts bundles from.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Defaults for scene construction.
const (
	defaultMaxPoints  = 50000
	defaultSymbolSize = 2
	defaultPlaneGrid  = 10
)

// SceneOptions controls 3-D scatter construction.
type SceneOptions struct {
	Title      string
	Subtitle   string
	MaxPoints  int // decimation budget; default 50000
	SymbolSize int // marker size; default 2
}

func (o SceneOptions) withDefaults() SceneOptions {
	if o.MaxPoints <= 0 {
		o.MaxPoints = defaultMaxPoints
	}
	if o.SymbolSize <= 0 {
		o.SymbolSize = defaultSymbolSize
	}
	if o.Title == "" {
		o.Title = "Point Cloud"
	}
	return o
}

// ClassScatter3D builds an interactive 3-D scatter of the cloud with one
// series (and legend entry) per classification label. Unlabeled clouds get
// a single white series, matching the plain viewer.
func ClassScatter3D(c *cloud.Cloud, o SceneOptions) (*charts.Scatter3D, error) {
	o = o.withDefaults()
	if c.Count() == 0 {
		return nil, fmt.Errorf("render: empty cloud")
	}
	c = c.Decimate(o.MaxPoints)

	scatter := newScene(c, o)

	if !c.HasClasses() {
		scatter.AddSeries("points", chart3DData(c.Points),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: o.SymbolSize}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ffffff", Opacity: opts.Float(0.8)}),
		)
		return scatter, nil
	}

	colors := ClassColors(c)
	for _, cl := range c.UniqueClasses() {
		name := fmt.Sprintf("Class %d (%s)", cl, cloud.ClassName(cl))
		scatter.AddSeries(name, chart3DData(c.PointsOfClass(cl)),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: o.SymbolSize}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[cl], Opacity: opts.Float(0.8)}),
		)
	}
	return scatter, nil
}

// planeColors are the surface fills used for successive plane overlays,
// mirroring the viridis/cividis pairing of the report charts.
var planeColors = []string{"#35b779", "#e8c36d", "#31688e"}

// AddPlaneOverlay appends the separating plane of a trained classifier as a
// translucent surface spanning the cloud's XY extent. idx selects the
// overlay color so successive planes stay distinguishable.
func AddPlaneOverlay(scatter *charts.Scatter3D, c *cloud.Cloud, res *svm.Result, gridN, idx int) error {
	if gridN < 2 {
		gridN = defaultPlaneGrid
	}
	b, err := c.Bounds()
	if err != nil {
		return err
	}
	xs, ys, zz, err := res.Plane.MeshZ(b.X, b.Y, gridN)
	if err != nil {
		return err
	}

	data := make([]opts.Chart3DData, 0, gridN*gridN)
	for i := range xs {
		for j := range ys {
			data = append(data, opts.Chart3DData{Value: []interface{}{xs[i], ys[j], zz[i][j]}})
		}
	}

	// go-echarts has no mixed-type Add on Chart3D, but series are plain
	// data; append a surface series alongside the scatter3D ones.
	name := fmt.Sprintf("Class %d vs %d plane", res.ClassA, res.ClassB)
	scatter.MultiSeries = append(scatter.MultiSeries, charts.SingleSeries{
		Name: name,
		Type: "surface",
		Data: data,
		ItemStyle: &opts.ItemStyle{
			Color:   planeColors[idx%len(planeColors)],
			Opacity: opts.Float(0.5),
		},
	})
	return nil
}

// newScene assembles a Scatter3D with the shared global options: dark
// theme, axis labels and a subtitle carrying the point budget.
func newScene(c *cloud.Cloud, o SceneOptions) *charts.Scatter3D {
	subtitle := o.Subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("points=%d", c.Count())
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  o.Title,
			Theme:      "dark",
			Width:      "1200px",
			Height:     "900px",
			AssetsHost: echartsAssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z"}),
	)
	return scatter
}

func chart3DData(points []cloud.Point) []opts.Chart3DData {
	data := make([]opts.Chart3DData, len(points))
	for i, p := range points {
		data[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}}
	}
	return data
}
