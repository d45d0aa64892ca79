// lasplot renders a LAS point cloud to a standalone file: an interactive
// 3-D scatter (HTML), the same scatter with a trained separating plane
// overlaid, or a static top-down projection (PNG/SVG).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/las"
	"github.com/banshee-data/lascloud/internal/render"
	"github.com/banshee-data/lascloud/internal/svm"
)

var (
	out       = flag.String("out", "", "Output file (default: derived from input and mode)")
	mode      = flag.String("mode", "scatter", "Render mode: scatter, plane or projection")
	classA    = flag.Uint("class-a", 0, "First class for plane mode")
	classB    = flag.Uint("class-b", 0, "Second class for plane mode")
	grid      = flag.Int("grid", 10, "Plane mesh resolution")
	maxPoints = flag.Int("max-points", 50000, "Decimation budget for rendering")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: lasplot [flags] <file.las|file.las.gz>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	file, err := las.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", path, err)
	}
	c := cloud.FromLAS(file)

	output := *out
	if output == "" {
		base := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".las")
		if *mode == "projection" {
			output = base + ".png"
		} else {
			output = base + ".html"
		}
	}

	switch *mode {
	case "scatter":
		err = writeScatter(c, path, output)
	case "plane":
		err = writePlane(c, path, output)
	case "projection":
		err = writeProjection(c, path, output)
	default:
		log.Fatalf("unknown mode %q: want scatter, plane or projection", *mode)
	}
	if err != nil {
		log.Fatalf("failed to render: %v", err)
	}
	log.Printf("wrote %s", output)
}

func writeScatter(c *cloud.Cloud, path, output string) error {
	scatter, err := render.ClassScatter3D(c, render.SceneOptions{
		Title:     fmt.Sprintf("Point Cloud: %s", path),
		Subtitle:  fmt.Sprintf("%d points", c.Count()),
		MaxPoints: *maxPoints,
	})
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

func writePlane(c *cloud.Cloud, path, output string) error {
	if *classA > 255 || *classB > 255 {
		return fmt.Errorf("class labels must be 0-255")
	}
	a, b := uint8(*classA), uint8(*classB)

	res, err := svm.Train(c, a, b, svm.Config{})
	if err != nil {
		return err
	}
	log.Printf("plane %.4fx + %.4fy + %.4fz + %.4f = 0, accuracy %.3f over %d samples",
		res.Plane.A, res.Plane.B, res.Plane.C, res.Plane.D, res.Accuracy, res.Samples)

	scatter, err := render.ClassScatter3D(c, render.SceneOptions{
		Title:     fmt.Sprintf("Separating Plane: %s vs %s", cloud.ClassName(a), cloud.ClassName(b)),
		Subtitle:  fmt.Sprintf("accuracy %.1f%% over %d samples", res.Accuracy*100, res.Samples),
		MaxPoints: *maxPoints,
	})
	if err != nil {
		return err
	}
	if err := render.AddPlaneOverlay(scatter, c, res, *grid, 0); err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

func writeProjection(c *cloud.Cloud, path, output string) error {
	format := "png"
	if strings.HasSuffix(output, ".svg") {
		format = "svg"
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	return render.WriteProjection(c, f, render.ProjectionOptions{
		Title:     path,
		MaxPoints: *maxPoints,
		Format:    format,
	})
}
