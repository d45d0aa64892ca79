// Package export writes point clouds out for downstream tools:
// CloudCompare-compatible .asc text and Parquet for analytics.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lascloud/internal/cloud"
)

// exportDir anchors all file exports under one directory so callers cannot
// write outside controlled locations, even with arbitrary path input.
var exportDir = func() string {
	tmp := os.TempDir()
	abs, err := filepath.Abs(tmp)
	if err != nil {
		return filepath.Clean(tmp)
	}
	return filepath.Clean(abs)
}()

// SetExportDir overrides the export anchor directory. Intended for tests
// and for CLIs where the user names an explicit output directory.
func SetExportDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("export: resolve dir %q: %w", dir, err)
	}
	exportDir = filepath.Clean(abs)
	return nil
}

// safeExportPath reduces a user-supplied path to its final component and
// joins it under exportDir, rejecting anything that would escape it.
func safeExportPath(userPath string) (string, error) {
	if userPath == "" {
		return "", fmt.Errorf("export: empty path")
	}
	base := filepath.Base(userPath)
	if base == "." || base == ".." || base == string(os.PathSeparator) {
		return "", fmt.Errorf("export: invalid filename %q", userPath)
	}
	joined := filepath.Clean(filepath.Join(exportDir, base))
	if joined != exportDir && !strings.HasPrefix(joined, exportDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("export: path %q escapes export directory", userPath)
	}
	return joined, nil
}

// WriteASC writes the cloud as a CloudCompare-compatible .asc file under the
// export directory and returns the path written.
func WriteASC(c *cloud.Cloud, filename string) (string, error) {
	path, err := safeExportPath(filename)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := writeASC(c, f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func writeASC(c *cloud.Cloud, w io.Writer) error {
	if c.Count() == 0 {
		return fmt.Errorf("export: no points to export")
	}

	header := "# Format: X Y Z Intensity"
	if c.HasClasses() {
		header += " Class"
	}
	if _, err := fmt.Fprintf(w, "# Exported points\n%s\n", header); err != nil {
		return err
	}

	for i, p := range c.Points {
		intensity := 0
		if c.Intensity != nil {
			intensity = int(c.Intensity[i])
		}
		if c.HasClasses() {
			_, err := fmt.Fprintf(w, "%.6f %.6f %.6f %d %d\n", p.X, p.Y, p.Z, intensity, c.Classes[i])
			if err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%.6f %.6f %.6f %d\n", p.X, p.Y, p.Z, intensity); err != nil {
			return err
		}
	}
	return nil
}
