package convert

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jpslite/internal/core/errors"
	"jpslite/internal/data/visdb"
	"jpslite/internal/geometry"
	"jpslite/internal/shared/observability"
	"jpslite/internal/trajectory"
)

// Result describes one completed conversion job.
type Result struct {
	Input        string
	Output       string
	Rows         int
	Frames       int64
	UsedFallback bool
	Duration     time.Duration
}

// ProgressEvent is emitted once per input, after its job finished.
type ProgressEvent struct {
	Index  int
	Total  int
	Input  string
	Output string
	Err    error
}

// Run converts every matched input. Jobs are independent: a failing input
// aborts only its own job, the batch keeps going. The returned error is
// non-nil if any job failed.
func (c *Converter) Run(ctx context.Context, onProgress func(ProgressEvent)) ([]Result, error) {
	files, err := c.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.Info("no files found matching the pattern", "pattern", c.opts.Pattern)
		return nil, nil
	}

	results := make([]Result, 0, len(files))
	failed := 0
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := c.ConvertFile(ctx, file)
		if err != nil {
			failed++
			slog.Error("conversion failed", "path", file, "error", err)
			observability.ConversionsTotal.WithLabelValues("error").Inc()
		} else {
			results = append(results, res)
			observability.ConversionsTotal.WithLabelValues("ok").Inc()
		}
		if onProgress != nil {
			onProgress(ProgressEvent{
				Index:  i + 1,
				Total:  len(files),
				Input:  file,
				Output: c.OutputPath(file),
				Err:    err,
			})
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d conversions failed", failed, len(files))
	}
	return results, nil
}

// ConvertFile runs one full job against a fresh output target: load the
// dataset, resolve the walkable area, initialize the schema, write the data.
func (c *Converter) ConvertFile(ctx context.Context, input string) (Result, error) {
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "converter.ConvertFile", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("input", input),
	))
	defer span.End()

	start := time.Now()
	output := c.OutputPath(input)
	logger := slog.With("run_id", runID, "input", input, "output", output)

	loadStart := time.Now()
	ds, err := trajectory.LoadFromTxt(input, c.opts.FrameRate)
	if err != nil {
		return Result{}, err
	}
	observability.ConversionDuration.WithLabelValues("load").Observe(time.Since(loadStart).Seconds())

	area, usedFallback := c.resolveArea(ds, logger)

	store, err := visdb.Open(output)
	if err != nil {
		return Result{}, errors.AddContext(
			errors.Wrap(err, errors.CodeSchemaInit, "open output store"),
			errors.CtxPath, output)
	}
	defer store.Close()

	initStart := time.Now()
	if err := store.InitSchema(ctx, ds.FrameRate); err != nil {
		return Result{}, errors.AddContext(err, errors.CtxPhase, "schema")
	}
	observability.ConversionDuration.WithLabelValues("schema").Observe(time.Since(initStart).Seconds())

	writeStart := time.Now()
	if err := store.WriteDataset(ctx, ds, area); err != nil {
		return Result{}, errors.AddContext(err, errors.CtxPhase, "data")
	}
	observability.ConversionDuration.WithLabelValues("write").Observe(time.Since(writeStart).Seconds())

	observability.TrajectoryRowsWritten.Add(float64(len(ds.Rows)))
	observability.FramesWritten.Add(float64(ds.FrameCount()))

	res := Result{
		Input:        input,
		Output:       output,
		Rows:         len(ds.Rows),
		Frames:       ds.FrameCount(),
		UsedFallback: usedFallback,
		Duration:     time.Since(start),
	}
	logger.Info("converted trajectory file",
		"rows", res.Rows, "frames", res.Frames, "fps", ds.FrameRate, "duration", res.Duration)
	return res, nil
}

// resolveArea picks the explicit walkable area, or derives one by padding
// the dataset bounds by 1 unit on every side. The fallback is a warning,
// not an error.
func (c *Converter) resolveArea(ds *trajectory.Dataset, logger *slog.Logger) (geometry.WalkableArea, bool) {
	if c.area != nil {
		return *c.area, false
	}
	area := geometry.FromBounds(ds.Bounds.Pad(1))
	logger.Warn("no walkable area provided, using bounding box instead", "wkt", area.WKT())
	observability.GeometryFallbacksTotal.Inc()
	return area, true
}

// loadGeometryFile reads the WKT polygon from the first line of a file.
func loadGeometryFile(path string) (geometry.WalkableArea, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.WalkableArea{}, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "open geometry file"),
			errors.CtxPath, path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return geometry.WalkableArea{}, errors.AddContext(
				errors.Wrap(err, errors.CodeParseError, "read geometry file"),
				errors.CtxPath, path)
		}
		return geometry.WalkableArea{}, errors.AddContext(
			errors.New(errors.CodeParseError, "geometry file is empty"),
			errors.CtxPath, path)
	}

	return geometry.ParseWKT(strings.TrimSpace(scanner.Text()))
}
