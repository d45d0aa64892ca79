package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/lascloud/internal/cloud"
)

// PointRow is the Parquet schema for an exported point.
type PointRow struct {
	X         float64 `parquet:"x"`
	Y         float64 `parquet:"y"`
	Z         float64 `parquet:"z"`
	Intensity int32   `parquet:"intensity"`
	Class     int32   `parquet:"class"`
}

// parquetBatchSize bounds the row buffer handed to the writer at once.
const parquetBatchSize = 10000

// WriteParquet writes the cloud as a Parquet file under the export
// directory and returns the path written.
func WriteParquet(c *cloud.Cloud, filename string) (string, error) {
	path, err := safeExportPath(filename)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := writeParquet(c, f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func writeParquet(c *cloud.Cloud, w io.Writer) error {
	if c.Count() == 0 {
		return fmt.Errorf("export: no points to export")
	}

	pw := parquet.NewGenericWriter[PointRow](w)
	batch := make([]PointRow, 0, parquetBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("export: write parquet rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for i, p := range c.Points {
		row := PointRow{X: p.X, Y: p.Y, Z: p.Z}
		if c.Intensity != nil {
			row.Intensity = int32(c.Intensity[i])
		}
		if c.HasClasses() {
			row.Class = int32(c.Classes[i])
		}
		batch = append(batch, row)
		if len(batch) == parquetBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("export: close parquet writer: %w", err)
	}
	return nil
}
