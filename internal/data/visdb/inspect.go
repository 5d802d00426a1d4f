package visdb

import (
	"context"
	"fmt"
)

// GeometryRow is one deduplicated geometry as stored.
type GeometryRow struct {
	Hash int64
	WKT  string
}

// Metadata returns the metadata table as a key/value map.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata rows: %w", err)
	}
	return meta, nil
}

// TrajectoryRowCount returns the number of rows in trajectory_data.
func (s *Store) TrajectoryRowCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trajectory_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trajectory rows: %w", err)
	}
	return n, nil
}

// FrameData returns the geometry hash per frame for every frame_data row.
func (s *Store) FrameData(ctx context.Context) (map[int64]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT frame, geometry_hash FROM frame_data`)
	if err != nil {
		return nil, fmt.Errorf("query frame_data: %w", err)
	}
	defer rows.Close()

	frames := make(map[int64]int64)
	for rows.Next() {
		var frame, hash int64
		if err := rows.Scan(&frame, &hash); err != nil {
			return nil, fmt.Errorf("scan frame_data row: %w", err)
		}
		frames[frame] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frame_data rows: %w", err)
	}
	return frames, nil
}

// Geometries returns every stored geometry.
func (s *Store) Geometries(ctx context.Context) ([]GeometryRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash, wkt FROM geometry ORDER BY hash`)
	if err != nil {
		return nil, fmt.Errorf("query geometry: %w", err)
	}
	defer rows.Close()

	var geos []GeometryRow
	for rows.Next() {
		var g GeometryRow
		if err := rows.Scan(&g.Hash, &g.WKT); err != nil {
			return nil, fmt.Errorf("scan geometry row: %w", err)
		}
		geos = append(geos, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geometry rows: %w", err)
	}
	return geos, nil
}
