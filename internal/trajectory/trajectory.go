// Package trajectory holds the in-memory trajectory dataset consumed by the
// sqlite writer, plus a loader for the whitespace-separated txt format
// (one row per pedestrian per frame: id, frame, x, y).
package trajectory

import (
	"jpslite/internal/geometry"
)

// Row is a single observed position.
type Row struct {
	Frame int64
	ID    int64
	X     float64
	Y     float64
}

// Dataset is a fully parsed trajectory file.
type Dataset struct {
	Rows      []Row
	FrameRate float64
	MinFrame  int64
	MaxFrame  int64
	Bounds    geometry.Bounds
}

// FrameCount is the number of frames in the inclusive frame range.
func (d *Dataset) FrameCount() int64 {
	return d.MaxFrame - d.MinFrame + 1
}
