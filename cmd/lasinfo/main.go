// lasinfo prints header fields, axis ranges and the classification
// histogram of LAS point clouds. It also inspects .npy array files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/las"
	"github.com/banshee-data/lascloud/internal/npy"
)

var jsonOut = flag.Bool("json", false, "Emit machine-readable JSON instead of text")

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: lasinfo [-json] <file.las|file.las.gz|file.npy> ...\n")
		os.Exit(2)
	}

	for _, path := range flag.Args() {
		var err error
		if strings.HasSuffix(path, ".npy") {
			err = inspectNpy(path)
		} else {
			err = inspectLAS(path)
		}
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
	}
}

func inspectLAS(path string) error {
	file, err := las.ReadFile(path)
	if err != nil {
		return err
	}
	c := cloud.FromLAS(file)
	summary, err := c.Summarize()
	if err != nil {
		return err
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Path    string        `json:"path"`
			Version string        `json:"version"`
			Format  uint8         `json:"point_format"`
			Summary cloud.Summary `json:"summary"`
		}{path, file.Header.Version(), file.Header.PointFormat, summary})
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  LAS version:   %s\n", file.Header.Version())
	fmt.Printf("  point format:  %d\n", file.Header.PointFormat)
	fmt.Printf("  points:        %d\n", summary.Count)
	fmt.Printf("  x range:       [%.3f, %.3f]\n", summary.Bounds.X.Min, summary.Bounds.X.Max)
	fmt.Printf("  y range:       [%.3f, %.3f]\n", summary.Bounds.Y.Min, summary.Bounds.Y.Max)
	fmt.Printf("  z range:       [%.3f, %.3f]\n", summary.Bounds.Z.Min, summary.Bounds.Z.Max)
	fmt.Printf("  elevation:     mean %.3f, std %.3f\n", summary.ElevationMean, summary.ElevationStd)
	if len(summary.Classes) > 0 {
		fmt.Printf("  classes:\n")
		for _, cc := range summary.Classes {
			fmt.Printf("    %3d %-22s %d\n", cc.Class, cc.Name, cc.Count)
		}
	}
	return nil
}

func inspectNpy(path string) error {
	arr, err := npy.ReadFile(path)
	if err != nil {
		return err
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Path  string `json:"path"`
			DType string `json:"dtype"`
			Shape []int  `json:"shape"`
			Len   int    `json:"len"`
		}{path, arr.DType, arr.Shape, arr.Len()})
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  dtype: %s\n", arr.DType)
	fmt.Printf("  shape: %v\n", arr.Shape)
	if arr.Len() > 0 && arr.Len() <= 20 {
		fmt.Printf("  data:  %v\n", arr.Data)
	}
	return nil
}
