package cloud

import "fmt"

// asprsClassNames are the standard ASPRS point classes (LAS 1.4 table 17).
var asprsClassNames = map[uint8]string{
	0:  "never classified",
	1:  "unclassified",
	2:  "ground",
	3:  "low vegetation",
	4:  "medium vegetation",
	5:  "high vegetation",
	6:  "building",
	7:  "low point (noise)",
	8:  "model key-point",
	9:  "water",
	10: "rail",
	11: "road surface",
	12: "overlap",
	13: "wire guard",
	14: "wire conductor",
	15: "transmission tower",
	16: "wire-structure connector",
	17: "bridge deck",
	18: "high noise",
}

// ClassName returns the ASPRS name for a classification label, or a
// "reserved"/"user defined" placeholder outside the standard table.
func ClassName(class uint8) string {
	if name, ok := asprsClassNames[class]; ok {
		return name
	}
	if class < 64 {
		return fmt.Sprintf("reserved (%d)", class)
	}
	return fmt.Sprintf("user defined (%d)", class)
}
