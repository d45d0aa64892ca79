// lasexport converts LAS point clouds to ASCII XYZ or Parquet files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/export"
	"github.com/banshee-data/lascloud/internal/las"
)

var (
	format = flag.String("format", "asc", "Output format: asc or parquet")
	outDir = flag.String("dir", ".", "Directory to write exports into")
	class  = flag.Int("class", -1, "Export only points of this class (default: all)")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: lasexport [flags] <file.las|file.las.gz> ...\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *format != "asc" && *format != "parquet" {
		log.Fatalf("unknown format %q: want asc or parquet", *format)
	}
	if err := export.SetExportDir(*outDir); err != nil {
		log.Fatalf("failed to set export directory: %v", err)
	}

	for _, path := range flag.Args() {
		written, err := exportOne(path)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		log.Printf("wrote %s", written)
	}
}

func exportOne(path string) (string, error) {
	file, err := las.ReadFile(path)
	if err != nil {
		return "", err
	}
	c := cloud.FromLAS(file)

	if *class >= 0 {
		if *class > 255 {
			return "", fmt.Errorf("class must be 0-255")
		}
		points := c.PointsOfClass(uint8(*class))
		if len(points) == 0 {
			return "", fmt.Errorf("no points of class %d", *class)
		}
		classes := make([]uint8, len(points))
		for i := range classes {
			classes[i] = uint8(*class)
		}
		c, err = cloud.New(points, classes)
		if err != nil {
			return "", err
		}
	}

	base := filepath.Base(strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".las"))
	if *format == "parquet" {
		return export.WriteParquet(c, base+".parquet")
	}
	return export.WriteASC(c, base+".asc")
}
