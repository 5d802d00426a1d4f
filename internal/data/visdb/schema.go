package visdb

import (
	"context"

	"jpslite/internal/core/errors"
)

var schemaStatements = []string{
	`DROP TABLE IF EXISTS trajectory_data`,
	`CREATE TABLE trajectory_data (
  frame INTEGER NOT NULL,
  id INTEGER NOT NULL,
  pos_x REAL NOT NULL,
  pos_y REAL NOT NULL,
  ori_x REAL NOT NULL,
  ori_y REAL NOT NULL
)`,
	`DROP TABLE IF EXISTS metadata`,
	`CREATE TABLE metadata (
  key TEXT NOT NULL UNIQUE PRIMARY KEY,
  value TEXT NOT NULL
)`,
	`DROP TABLE IF EXISTS geometry`,
	`CREATE TABLE geometry (
  hash INTEGER NOT NULL,
  wkt TEXT NOT NULL
)`,
	`CREATE UNIQUE INDEX geometry_hash ON geometry(hash)`,
	`DROP TABLE IF EXISTS frame_data`,
	`CREATE TABLE frame_data (
  frame INTEGER NOT NULL,
  geometry_hash INTEGER NOT NULL
)`,
	`CREATE INDEX frame_id_idx ON trajectory_data(frame, id)`,
}

// InitSchema drops and recreates the four visualizer tables and their
// indexes, then records the schema version and frame rate. Everything runs
// in one transaction: on failure nothing of the new schema remains.
func (s *Store) InitSchema(ctx context.Context, frameRate float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeSchemaInit, "begin schema transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.CodeSchemaInit, "create tables")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES(?, ?)`,
		"version", formatFloat(SchemaVersion),
	); err != nil {
		return errors.Wrap(err, errors.CodeSchemaInit, "insert version metadata")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES(?, ?)`,
		"fps", formatFloat(frameRate),
	); err != nil {
		return errors.Wrap(err, errors.CodeSchemaInit, "insert fps metadata")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeSchemaInit, "commit schema transaction")
	}
	return nil
}
