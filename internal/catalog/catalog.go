// Package catalog persists an index of inspected LAS files and the
// separating planes trained against them in a local SQLite database.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/svm"
)

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if necessary) the catalog database at path and
// applies any pending schema migrations.
func NewDB(path string) (*DB, error) {
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db := &DB{DB: raw, path: path}
	if err := db.migrateUp(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("catalog: migrate %s: %w", path, err)
	}
	return db, nil
}

// FileRecord is one cataloged LAS file.
type FileRecord struct {
	FileID      string        `json:"file_id"`
	Path        string        `json:"path"`
	PointFormat uint8         `json:"point_format"`
	PointCount  int           `json:"point_count"`
	Bounds      cloud.Bounds  `json:"bounds"`
	Histogram   map[uint8]int `json:"class_histogram,omitempty"`
	InspectedAt time.Time     `json:"inspected_at"`
}

// RecordFile inserts a file record, assigning a fresh id when none is set.
func (db *DB) RecordFile(rec *FileRecord) error {
	if rec.FileID == "" {
		rec.FileID = uuid.NewString()
	}
	if rec.InspectedAt.IsZero() {
		rec.InspectedAt = time.Now().UTC()
	}
	hist, err := json.Marshal(rec.Histogram)
	if err != nil {
		return fmt.Errorf("catalog: marshal histogram: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO las_files
			(file_id, path, point_format, point_count,
			 min_x, max_x, min_y, max_y, min_z, max_z,
			 class_histogram, inspected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FileID, rec.Path, rec.PointFormat, rec.PointCount,
		rec.Bounds.X.Min, rec.Bounds.X.Max,
		rec.Bounds.Y.Min, rec.Bounds.Y.Max,
		rec.Bounds.Z.Min, rec.Bounds.Z.Max,
		string(hist), rec.InspectedAt,
	)
	if err != nil {
		return fmt.Errorf("catalog: record file %s: %w", rec.Path, err)
	}
	return nil
}

// GetFile looks a record up by id.
func (db *DB) GetFile(fileID string) (*FileRecord, error) {
	row := db.QueryRow(`
		SELECT file_id, path, point_format, point_count,
		       min_x, max_x, min_y, max_y, min_z, max_z,
		       class_histogram, inspected_at
		FROM las_files WHERE file_id = ?`, fileID)
	rec, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog: no file with id %s", fileID)
	}
	return rec, err
}

// ListFiles returns all cataloged files, most recently inspected first.
func (db *DB) ListFiles() ([]FileRecord, error) {
	rows, err := db.Query(`
		SELECT file_id, path, point_format, point_count,
		       min_x, max_x, min_y, max_y, min_z, max_z,
		       class_histogram, inspected_at
		FROM las_files ORDER BY inspected_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*FileRecord, error) {
	var rec FileRecord
	var hist string
	err := row.Scan(&rec.FileID, &rec.Path, &rec.PointFormat, &rec.PointCount,
		&rec.Bounds.X.Min, &rec.Bounds.X.Max,
		&rec.Bounds.Y.Min, &rec.Bounds.Y.Max,
		&rec.Bounds.Z.Min, &rec.Bounds.Z.Max,
		&hist, &rec.InspectedAt)
	if err != nil {
		return nil, err
	}
	if hist != "" && hist != "null" {
		if err := json.Unmarshal([]byte(hist), &rec.Histogram); err != nil {
			return nil, fmt.Errorf("catalog: bad histogram for %s: %w", rec.FileID, err)
		}
	}
	return &rec, nil
}

// PlaneRecord is one trained separating plane.
type PlaneRecord struct {
	PlaneID   string    `json:"plane_id"`
	FileID    string    `json:"file_id"`
	ClassA    uint8     `json:"class_a"`
	ClassB    uint8     `json:"class_b"`
	Plane     svm.Plane `json:"plane"`
	Accuracy  float64   `json:"accuracy"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// RecordPlane inserts a trained plane for a cataloged file.
func (db *DB) RecordPlane(rec *PlaneRecord) error {
	if rec.PlaneID == "" {
		rec.PlaneID = uuid.NewString()
	}
	if rec.TrainedAt.IsZero() {
		rec.TrainedAt = time.Now().UTC()
	}
	_, err := db.Exec(`
		INSERT INTO separating_planes
			(plane_id, file_id, class_a, class_b,
			 coeff_a, coeff_b, coeff_c, coeff_d,
			 accuracy, samples, trained_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PlaneID, rec.FileID, rec.ClassA, rec.ClassB,
		rec.Plane.A, rec.Plane.B, rec.Plane.C, rec.Plane.D,
		rec.Accuracy, rec.Samples, rec.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("catalog: record plane for %s: %w", rec.FileID, err)
	}
	return nil
}

// PlanesForFile returns the planes trained against a file, newest first.
func (db *DB) PlanesForFile(fileID string) ([]PlaneRecord, error) {
	rows, err := db.Query(`
		SELECT plane_id, file_id, class_a, class_b,
		       coeff_a, coeff_b, coeff_c, coeff_d,
		       accuracy, samples, trained_at
		FROM separating_planes WHERE file_id = ? ORDER BY trained_at DESC`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaneRecord
	for rows.Next() {
		var rec PlaneRecord
		if err := rows.Scan(&rec.PlaneID, &rec.FileID, &rec.ClassA, &rec.ClassB,
			&rec.Plane.A, &rec.Plane.B, &rec.Plane.C, &rec.Plane.D,
			&rec.Accuracy, &rec.Samples, &rec.TrainedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
