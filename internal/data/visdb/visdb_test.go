package visdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpslite/internal/core/errors"
	"jpslite/internal/geometry"
	"jpslite/internal/trajectory"
)

func testDataset() *trajectory.Dataset {
	return &trajectory.Dataset{
		Rows: []trajectory.Row{
			{Frame: 5, ID: 1, X: 0, Y: 0},
			{Frame: 6, ID: 1, X: 1, Y: 1},
		},
		FrameRate: 8,
		MinFrame:  5,
		MaxFrame:  6,
		Bounds:    geometry.Bounds{XMin: 0, YMin: 0, XMax: 1, YMax: 1},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "out.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInitSchemaAndWrite(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := testDataset()
	area := geometry.FromBounds(ds.Bounds.Pad(1))

	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))
	require.NoError(t, store.WriteDataset(ctx, ds, area))

	count, err := store.TrajectoryRowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(ds.Rows)), count)

	meta, err := store.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", meta["version"])
	assert.Equal(t, "8", meta["fps"])
	assert.Equal(t, "-1", meta["xmin"])
	assert.Equal(t, "2", meta["xmax"])
	assert.Equal(t, "-1", meta["ymin"])
	assert.Equal(t, "2", meta["ymax"])

	geos, err := store.Geometries(ctx)
	require.NoError(t, err)
	require.Len(t, geos, 1)
	assert.Equal(t, area.WKT(), geos[0].WKT)
	assert.Equal(t, geometry.Hash(area.WKT()), geos[0].Hash)

	frames, err := store.FrameData(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, geos[0].Hash, frames[0])
	assert.Equal(t, geos[0].Hash, frames[1])
}

func TestWriteRebasesFrames(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := &trajectory.Dataset{
		Rows: []trajectory.Row{
			{Frame: 100, ID: 3, X: 2, Y: 3},
			{Frame: 103, ID: 3, X: 2.5, Y: 3.5},
			{Frame: 101, ID: 4, X: 0, Y: 0},
		},
		FrameRate: 25,
		MinFrame:  100,
		MaxFrame:  103,
		Bounds:    geometry.Bounds{XMin: 0, YMin: 0, XMax: 2.5, YMax: 3.5},
	}
	area := geometry.FromBounds(ds.Bounds.Pad(1))

	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))
	require.NoError(t, store.WriteDataset(ctx, ds, area))

	rows, err := store.db.QueryContext(ctx,
		`SELECT frame, id, pos_x, pos_y, ori_x, ori_y FROM trajectory_data ORDER BY frame, id`)
	require.NoError(t, err)
	defer rows.Close()

	type traj struct {
		frame, id    int64
		x, y, ox, oy float64
	}
	var got []traj
	for rows.Next() {
		var r traj
		require.NoError(t, rows.Scan(&r.frame, &r.id, &r.x, &r.y, &r.ox, &r.oy))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 3)
	assert.Equal(t, int64(0), got[0].frame, "minimum frame must rebase to 0")
	assert.Equal(t, int64(1), got[1].frame)
	assert.Equal(t, int64(3), got[2].frame)
	for _, r := range got {
		assert.Zero(t, r.ox, "orientation is reserved and always 0")
		assert.Zero(t, r.oy)
	}

	// One frame_data row per frame in the rebased range, gaps included.
	frames, err := store.FrameData(ctx)
	require.NoError(t, err)
	assert.Len(t, frames, 4)
	for f := int64(0); f <= 3; f++ {
		assert.Contains(t, frames, f)
	}
}

func TestGeometryInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := testDataset()
	area, err := geometry.ParseWKT("POLYGON((0 0,10 0,10 10,0 10,0 0))")
	require.NoError(t, err)

	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))
	require.NoError(t, store.WriteDataset(ctx, ds, area))
	// Second write without re-initializing: same WKT must not duplicate.
	require.NoError(t, store.WriteDataset(ctx, ds, area))

	geos, err := store.Geometries(ctx)
	require.NoError(t, err)
	assert.Len(t, geos, 1)
}

func TestExplicitGeometryBoundsInMetadata(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := testDataset()
	area, err := geometry.ParseWKT("POLYGON((0 0,10 0,10 10,0 10,0 0))")
	require.NoError(t, err)

	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))
	require.NoError(t, store.WriteDataset(ctx, ds, area))

	meta, err := store.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", meta["xmin"])
	assert.Equal(t, "10", meta["xmax"])
	assert.Equal(t, "0", meta["ymin"])
	assert.Equal(t, "10", meta["ymax"])
}

func TestInitSchemaDropsPopulatedTables(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := testDataset()
	area := geometry.FromBounds(ds.Bounds.Pad(1))

	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))
	require.NoError(t, store.WriteDataset(ctx, ds, area))

	// Re-initializing must empty everything from the prior run.
	require.NoError(t, store.InitSchema(ctx, 30))

	count, err := store.TrajectoryRowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	geos, err := store.Geometries(ctx)
	require.NoError(t, err)
	assert.Empty(t, geos)

	frames, err := store.FrameData(ctx)
	require.NoError(t, err)
	assert.Empty(t, frames)

	meta, err := store.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"version": "2", "fps": "30"}, meta)
}

func TestInitSchemaSurfacesFailure(t *testing.T) {
	store := openTestStore(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.InitSchema(cancelled, 8)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeSchemaInit))
}

func TestWriteDatasetRequiresInitializedSchema(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := testDataset()
	area := geometry.FromBounds(ds.Bounds.Pad(1))

	// No InitSchema: the insert fails mid-transaction and rolls back.
	err := store.WriteDataset(ctx, ds, area)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDataWrite))

	// The store is not poisoned: a proper init + write still succeeds.
	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))
	require.NoError(t, store.WriteDataset(ctx, ds, area))
}

func TestWriteDatasetRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ds := testDataset()
	area := geometry.FromBounds(ds.Bounds.Pad(1))

	require.NoError(t, store.InitSchema(ctx, ds.FrameRate))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := store.WriteDataset(cancelled, ds, area)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDataWrite))

	// The failed write leaves the store exactly as InitSchema left it:
	// version and fps only, nothing in the data tables.
	meta, err := store.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"version": "2", "fps": "8"}, meta)

	count, err := store.TrajectoryRowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	geos, err := store.Geometries(ctx)
	require.NoError(t, err)
	assert.Empty(t, geos)

	frames, err := store.FrameData(ctx)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestOpenRejectsDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("   ")
	require.Error(t, err)
}
