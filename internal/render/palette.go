package render

import (
	"fmt"
	"image/color"

	"github.com/banshee-data/lascloud/internal/cloud"
)

// tab20 is the 20-color categorical palette used for class coloring. Colors
// are assigned to classes in ascending label order, wrapping after 20, which
// keeps the class-to-color mapping stable across renders of the same file.
var tab20 = []string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// ClassColors maps each unique class of the cloud to a palette color.
func ClassColors(c *cloud.Cloud) map[uint8]string {
	classes := c.UniqueClasses()
	out := make(map[uint8]string, len(classes))
	for i, cl := range classes {
		out[cl] = tab20[i%len(tab20)]
	}
	return out
}

// parseHexColor converts a "#rrggbb" string to an opaque RGBA color.
func parseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
