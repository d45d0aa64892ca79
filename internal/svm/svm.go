// Package svm trains a linear support-vector classifier between two point
// classes and exposes the separating plane for rendering.
//
// The solver is the Pegasos sub-gradient method over the hinge loss. With a
// linear kernel in three dimensions this converges quickly and, unlike a
// dual solver, needs no kernel matrix. Features are standardized before
// training (projected UTM coordinates are in the hundreds of thousands of
// metres, which stalls raw sub-gradient steps) and the weights are mapped
// back to the original coordinate frame afterwards.
package svm

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lascloud/internal/cloud"
)

// Config controls the Pegasos solver. The zero value selects defaults.
type Config struct {
	Lambda float64 // regularization strength; default 1e-3
	Epochs int     // full passes over the training set; default 200
	Seed   int64   // permutation seed; default 1
}

func (c Config) withDefaults() Config {
	if c.Lambda <= 0 {
		c.Lambda = 1e-3
	}
	if c.Epochs <= 0 {
		c.Epochs = 200
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	return c
}

// Plane is the decision boundary ax + by + cz + d = 0. Points with
// Eval > 0 fall on the second class's side.
type Plane struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
}

// Eval returns the signed distance-like value of the plane equation at a
// point.
func (p Plane) Eval(x, y, z float64) float64 {
	return p.A*x + p.B*y + p.C*z + p.D
}

// MeshZ evaluates z = (-d - ax - by) / c on an n x n grid spanning the
// given x and y ranges. zz is indexed [i][j] for (xs[i], ys[j]). Near-
// vertical planes (c ~ 0) have no z(x, y) form and are rejected.
func (p Plane) MeshZ(xr, yr cloud.Range, n int) (xs, ys []float64, zz [][]float64, err error) {
	if n < 2 {
		return nil, nil, nil, fmt.Errorf("svm: mesh needs at least 2 samples per axis, got %d", n)
	}
	if math.Abs(p.C) < 1e-12*(math.Abs(p.A)+math.Abs(p.B)+1) {
		return nil, nil, nil, fmt.Errorf("svm: plane is near-vertical (c=%g), no z(x,y) surface", p.C)
	}

	xs = linspace(xr.Min, xr.Max, n)
	ys = linspace(yr.Min, yr.Max, n)
	zz = make([][]float64, n)
	for i := range xs {
		zz[i] = make([]float64, n)
		for j := range ys {
			zz[i][j] = (-p.D - p.A*xs[i] - p.B*ys[j]) / p.C
		}
	}
	return xs, ys, zz, nil
}

// Result is a trained separating plane with its training diagnostics.
type Result struct {
	Plane    Plane   `json:"plane"`
	ClassA   uint8   `json:"class_a"`
	ClassB   uint8   `json:"class_b"`
	Samples  int     `json:"samples"`
	Accuracy float64 `json:"accuracy"` // fraction of training points on the correct side
}

// Train fits a separating plane between classA and classB of the cloud.
// classA maps to the negative side of the plane, classB to the positive.
func Train(c *cloud.Cloud, classA, classB uint8, cfg Config) (*Result, error) {
	if classA == classB {
		return nil, fmt.Errorf("svm: classes to separate must differ, got %d twice", classA)
	}
	if !c.HasClasses() {
		return nil, fmt.Errorf("svm: cloud carries no classification labels")
	}
	cfg = cfg.withDefaults()

	ptsA := c.PointsOfClass(classA)
	ptsB := c.PointsOfClass(classB)
	if len(ptsA) < 2 {
		return nil, fmt.Errorf("svm: class %d has %d points, need at least 2", classA, len(ptsA))
	}
	if len(ptsB) < 2 {
		return nil, fmt.Errorf("svm: class %d has %d points, need at least 2", classB, len(ptsB))
	}

	n := len(ptsA) + len(ptsB)
	features := mat.NewDense(n, 3, nil)
	labels := make([]float64, n)
	row := 0
	for _, p := range ptsA {
		features.SetRow(row, []float64{p.X, p.Y, p.Z})
		labels[row] = -1
		row++
	}
	for _, p := range ptsB {
		features.SetRow(row, []float64{p.X, p.Y, p.Z})
		labels[row] = 1
		row++
	}

	means, stds := standardize(features)

	w := mat.NewVecDense(3, nil)
	var b float64
	rng := rand.New(rand.NewSource(cfg.Seed))

	t := 0
	xi := mat.NewVecDense(3, nil)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for _, i := range rng.Perm(n) {
			t++
			eta := 1 / (cfg.Lambda * float64(t))

			xi.SetVec(0, features.At(i, 0))
			xi.SetVec(1, features.At(i, 1))
			xi.SetVec(2, features.At(i, 2))

			margin := labels[i] * (mat.Dot(w, xi) + b)
			w.ScaleVec(1-eta*cfg.Lambda, w)
			if margin < 1 {
				w.AddScaledVec(w, eta*labels[i], xi)
				b += eta * labels[i]
			}
		}
	}

	// Undo the standardization: w'·(x-mean)/std + b = 0 in original
	// coordinates.
	plane := Plane{
		A: w.AtVec(0) / stds[0],
		B: w.AtVec(1) / stds[1],
		C: w.AtVec(2) / stds[2],
		D: b - w.AtVec(0)*means[0]/stds[0] - w.AtVec(1)*means[1]/stds[1] - w.AtVec(2)*means[2]/stds[2],
	}

	correct := 0
	for _, p := range ptsA {
		if plane.Eval(p.X, p.Y, p.Z) < 0 {
			correct++
		}
	}
	for _, p := range ptsB {
		if plane.Eval(p.X, p.Y, p.Z) > 0 {
			correct++
		}
	}

	return &Result{
		Plane:    plane,
		ClassA:   classA,
		ClassB:   classB,
		Samples:  n,
		Accuracy: float64(correct) / float64(n),
	}, nil
}

// standardize centers and scales each column of m in place, returning the
// per-column means and standard deviations. Constant columns keep a unit
// scale so the transform stays invertible.
func standardize(m *mat.Dense) (means, stds []float64) {
	rows, cols := m.Dims()
	means = make([]float64, cols)
	stds = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		means[j], stds[j] = mean, std
		for i := 0; i < rows; i++ {
			m.Set(i, j, (col[i]-mean)/std)
		}
	}
	return means, stds
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
