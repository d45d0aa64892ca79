// Package cloud holds the in-memory point-cloud model shared by the
// renderers, the classifier and the exporters.
package cloud

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lascloud/internal/las"
)

// Point is a 3-D cartesian coordinate.
type Point struct {
	X, Y, Z float64
}

// Cloud is an ordered point collection with optional per-point
// classification labels. A Cloud is read-only after construction.
type Cloud struct {
	Points  []Point
	Classes []uint8 // nil when the source carried no labels

	// Intensity is carried through for exports; nil when absent.
	Intensity []uint16
}

// New builds a Cloud, enforcing that the label slice, when present, has one
// entry per point.
func New(points []Point, classes []uint8) (*Cloud, error) {
	if classes != nil && len(classes) != len(points) {
		return nil, fmt.Errorf("cloud: %d points but %d class labels", len(points), len(classes))
	}
	return &Cloud{Points: points, Classes: classes}, nil
}

// FromLAS converts a decoded LAS file into a Cloud. LAS point records always
// carry a classification byte, so the label slice is always populated.
func FromLAS(f *las.File) *Cloud {
	points := make([]Point, len(f.Points))
	classes := make([]uint8, len(f.Points))
	intensity := make([]uint16, len(f.Points))
	for i, p := range f.Points {
		points[i] = Point{X: p.X, Y: p.Y, Z: p.Z}
		classes[i] = p.Classification
		intensity[i] = p.Intensity
	}
	return &Cloud{Points: points, Classes: classes, Intensity: intensity}
}

// Count returns the number of points.
func (c *Cloud) Count() int { return len(c.Points) }

// HasClasses reports whether per-point labels are present.
func (c *Cloud) HasClasses() bool { return c.Classes != nil }

// Range is a closed [Min, Max] interval along one axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounds are the axis-aligned extents of a cloud.
type Bounds struct {
	X Range `json:"x_range"`
	Y Range `json:"y_range"`
	Z Range `json:"z_range"`
}

// Bounds computes the min/max extent along each axis.
func (c *Cloud) Bounds() (Bounds, error) {
	if len(c.Points) == 0 {
		return Bounds{}, fmt.Errorf("cloud: empty cloud has no bounds")
	}
	b := Bounds{
		X: Range{Min: c.Points[0].X, Max: c.Points[0].X},
		Y: Range{Min: c.Points[0].Y, Max: c.Points[0].Y},
		Z: Range{Min: c.Points[0].Z, Max: c.Points[0].Z},
	}
	for _, p := range c.Points[1:] {
		b.X.Min = math.Min(b.X.Min, p.X)
		b.X.Max = math.Max(b.X.Max, p.X)
		b.Y.Min = math.Min(b.Y.Min, p.Y)
		b.Y.Max = math.Max(b.Y.Max, p.Y)
		b.Z.Min = math.Min(b.Z.Min, p.Z)
		b.Z.Max = math.Max(b.Z.Max, p.Z)
	}
	return b, nil
}

// UniqueClasses returns the distinct labels present, sorted ascending.
// Returns nil when the cloud carries no labels.
func (c *Cloud) UniqueClasses() []uint8 {
	if c.Classes == nil {
		return nil
	}
	seen := make(map[uint8]bool)
	for _, cl := range c.Classes {
		seen[cl] = true
	}
	out := make([]uint8, 0, len(seen))
	for cl := range seen {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClassHistogram returns the point count per label.
func (c *Cloud) ClassHistogram() map[uint8]int {
	if c.Classes == nil {
		return nil
	}
	hist := make(map[uint8]int)
	for _, cl := range c.Classes {
		hist[cl]++
	}
	return hist
}

// PointsOfClass returns the points carrying the given label.
func (c *Cloud) PointsOfClass(class uint8) []Point {
	if c.Classes == nil {
		return nil
	}
	var out []Point
	for i, cl := range c.Classes {
		if cl == class {
			out = append(out, c.Points[i])
		}
	}
	return out
}

// Decimate returns a stride-sampled view of the cloud with at most
// maxPoints points. The original cloud is returned unchanged when it is
// already small enough.
func (c *Cloud) Decimate(maxPoints int) *Cloud {
	if maxPoints <= 0 || len(c.Points) <= maxPoints {
		return c
	}
	stride := int(math.Ceil(float64(len(c.Points)) / float64(maxPoints)))
	out := &Cloud{}
	for i := 0; i < len(c.Points); i += stride {
		out.Points = append(out.Points, c.Points[i])
		if c.Classes != nil {
			out.Classes = append(out.Classes, c.Classes[i])
		}
		if c.Intensity != nil {
			out.Intensity = append(out.Intensity, c.Intensity[i])
		}
	}
	return out
}

// Summary are the headline statistics reported by the CLI and the JSON API.
type Summary struct {
	Count         int          `json:"count"`
	Bounds        Bounds       `json:"bounds"`
	ElevationMean float64      `json:"elevation_mean"`
	ElevationStd  float64      `json:"elevation_std"`
	Classes       []ClassCount `json:"classes,omitempty"`
}

// ClassCount pairs a label with its point count and ASPRS name.
type ClassCount struct {
	Class uint8  `json:"class"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summarize computes summary statistics for the cloud.
func (c *Cloud) Summarize() (Summary, error) {
	b, err := c.Bounds()
	if err != nil {
		return Summary{}, err
	}

	zs := make([]float64, len(c.Points))
	for i, p := range c.Points {
		zs[i] = p.Z
	}
	mean, std := stat.MeanStdDev(zs, nil)
	if math.IsNaN(std) {
		std = 0 // single point
	}

	s := Summary{
		Count:         c.Count(),
		Bounds:        b,
		ElevationMean: mean,
		ElevationStd:  std,
	}
	hist := c.ClassHistogram()
	for _, cl := range c.UniqueClasses() {
		s.Classes = append(s.Classes, ClassCount{Class: cl, Name: ClassName(cl), Count: hist[cl]})
	}
	return s, nil
}
