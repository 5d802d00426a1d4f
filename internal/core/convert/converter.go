// Package convert orchestrates conversion jobs: it validates the caller's
// options, resolves the walkable area once, expands the input pattern, and
// runs one schema-init + data-write job per trajectory file.
package convert

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"jpslite/internal/core/errors"
	"jpslite/internal/geometry"
)

type Options struct {
	// Pattern is the file glob naming the trajectory txt inputs.
	Pattern string
	// OutputFile forces the output path; only valid for a single input.
	OutputFile string
	// OutputDir redirects auto-named outputs into a directory.
	OutputDir string
	// GeometryWKT is an explicit POLYGON WKT string. Mutually exclusive
	// with GeometryFile.
	GeometryWKT string
	// GeometryFile names a file whose first line is the POLYGON WKT.
	GeometryFile string
	// FrameRate is the fallback for files without a framerate header.
	FrameRate float64
	// ExcludeFiles are glob patterns filtered out of the expanded inputs.
	ExcludeFiles []string
}

type Converter struct {
	opts Options
	// area is the explicit walkable area, nil when each job derives one
	// from its trajectory bounds.
	area     *geometry.WalkableArea
	excludes []glob.Glob
}

// New validates the options and resolves the geometry input. Validation
// failures surface before any output I/O happens.
func New(opts Options) (*Converter, error) {
	if strings.TrimSpace(opts.Pattern) == "" {
		return nil, errors.New(errors.CodeValidationError, "a trajectory file pattern is required")
	}
	if opts.GeometryWKT != "" && opts.GeometryFile != "" {
		return nil, errors.New(errors.CodeValidationError,
			"cannot use both an explicit geometry and a geometry file at the same time")
	}

	c := &Converter{opts: opts}

	for _, pattern := range opts.ExcludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "compile exclude pattern"),
				errors.CtxPattern, pattern)
		}
		c.excludes = append(c.excludes, g)
	}

	switch {
	case opts.GeometryWKT != "":
		area, err := geometry.ParseWKT(opts.GeometryWKT)
		if err != nil {
			return nil, err
		}
		slog.Info("using explicit geometry", "wkt", area.WKT())
		c.area = &area
	case opts.GeometryFile != "":
		area, err := loadGeometryFile(opts.GeometryFile)
		if err != nil {
			return nil, err
		}
		slog.Info("using geometry file", "path", opts.GeometryFile, "wkt", area.WKT())
		c.area = &area
	default:
		slog.Info("no geometry supplied, approximating from trajectory bounds per file")
	}

	return c, nil
}

// Files expands the input pattern, drops excluded files, and checks the
// single-output constraint.
func (c *Converter) Files() ([]string, error) {
	matches, err := filepath.Glob(c.opts.Pattern)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeValidationError, "expand file pattern"),
			errors.CtxPattern, c.opts.Pattern)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if c.excluded(m) {
			slog.Debug("excluding file", "path", m)
			continue
		}
		files = append(files, m)
	}

	if c.opts.OutputFile != "" && len(files) > 1 {
		return nil, errors.New(errors.CodeValidationError,
			fmt.Sprintf("cannot use a single output file with %d matched inputs", len(files)))
	}

	return files, nil
}

func (c *Converter) excluded(path string) bool {
	base := filepath.Base(path)
	for _, g := range c.excludes {
		if g.Match(base) || g.Match(path) {
			return true
		}
	}
	return false
}

// OutputPath derives the output target for an input file: the forced output
// file if set, otherwise the input path with a .sqlite extension, optionally
// relocated into the output directory.
func (c *Converter) OutputPath(input string) string {
	if c.opts.OutputFile != "" {
		return c.opts.OutputFile
	}
	ext := filepath.Ext(input)
	out := strings.TrimSuffix(input, ext) + ".sqlite"
	if c.opts.OutputDir != "" {
		out = filepath.Join(c.opts.OutputDir, filepath.Base(out))
	}
	return out
}
