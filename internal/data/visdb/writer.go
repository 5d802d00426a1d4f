package visdb

import (
	"context"

	"jpslite/internal/core/errors"
	"jpslite/internal/geometry"
	"jpslite/internal/trajectory"
)

// WriteDataset inserts the dataset and its walkable area into an initialized
// store as one atomic unit:
//
//  1. every trajectory row rebased so the minimum frame becomes 0,
//     orientation columns zeroed (reserved),
//  2. the geometry row keyed by the content hash of its WKT text
//     (insert-or-ignore, so rewriting identical geometry is a no-op),
//  3. one frame_data row per frame in the rebased range, all referencing
//     that hash,
//  4. the walkable area's bounding box upserted into metadata.
//
// On failure the transaction rolls back and the store is left exactly as
// InitSchema left it.
func (s *Store) WriteDataset(ctx context.Context, ds *trajectory.Dataset, area geometry.WalkableArea) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeDataWrite, "begin data transaction")
	}
	defer func() { _ = tx.Rollback() }()

	insertRow, err := tx.PrepareContext(ctx,
		`INSERT INTO trajectory_data(frame, id, pos_x, pos_y, ori_x, ori_y) VALUES(?, ?, ?, ?, 0, 0)`)
	if err != nil {
		return errors.Wrap(err, errors.CodeDataWrite, "prepare trajectory insert")
	}
	defer insertRow.Close()

	minFrame := ds.MinFrame
	for _, row := range ds.Rows {
		if _, err := insertRow.ExecContext(ctx, row.Frame-minFrame, row.ID, row.X, row.Y); err != nil {
			return errors.Wrap(err, errors.CodeDataWrite, "insert trajectory row")
		}
	}

	geoWKT := area.WKT()
	geoHash := geometry.Hash(geoWKT)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO geometry(hash, wkt) VALUES(?, ?)`,
		geoHash, geoWKT,
	); err != nil {
		return errors.Wrap(err, errors.CodeDataWrite, "insert geometry")
	}

	insertFrame, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO frame_data(frame, geometry_hash) VALUES(?, ?)`)
	if err != nil {
		return errors.Wrap(err, errors.CodeDataWrite, "prepare frame_data insert")
	}
	defer insertFrame.Close()

	lastFrame := ds.MaxFrame - minFrame
	for frame := int64(0); frame <= lastFrame; frame++ {
		if _, err := insertFrame.ExecContext(ctx, frame, geoHash); err != nil {
			return errors.Wrap(err, errors.CodeDataWrite, "insert frame_data row")
		}
	}

	bounds := area.Bounds()
	boundsMeta := [][2]string{
		{"xmin", formatFloat(bounds.XMin)},
		{"xmax", formatFloat(bounds.XMax)},
		{"ymin", formatFloat(bounds.YMin)},
		{"ymax", formatFloat(bounds.YMax)},
	}
	for _, kv := range boundsMeta {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO metadata(key, value) VALUES(?, ?)`,
			kv[0], kv[1],
		); err != nil {
			return errors.Wrap(err, errors.CodeDataWrite, "upsert bounds metadata")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeDataWrite, "commit data transaction")
	}
	return nil
}
