package trajectory

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jpslite/internal/core/errors"
	"jpslite/internal/geometry"
)

// LoadFromTxt parses a trajectory txt file. Lines starting with '#' are
// comments; a comment containing "framerate:" carries the file's frame
// rate. Data rows are whitespace-separated with at least four columns:
// id, frame, x, y. Extra columns (z, speed, ...) are ignored.
//
// defaultFrameRate is used when the file has no framerate header; zero
// means no default.
func LoadFromTxt(path string, defaultFrameRate float64) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "open trajectory file"),
			errors.CtxPath, path)
	}
	defer f.Close()

	ds := &Dataset{}
	frameRate := 0.0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if fr, ok := parseFrameRateComment(line); ok {
				frameRate = fr
			}
			continue
		}

		row, err := parseRow(line)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeParseError, fmt.Sprintf("line %d", lineNo)),
				errors.CtxPath, path)
		}

		if len(ds.Rows) == 0 {
			ds.MinFrame, ds.MaxFrame = row.Frame, row.Frame
			ds.Bounds = geometry.Bounds{XMin: row.X, YMin: row.Y, XMax: row.X, YMax: row.Y}
		} else {
			if row.Frame < ds.MinFrame {
				ds.MinFrame = row.Frame
			}
			if row.Frame > ds.MaxFrame {
				ds.MaxFrame = row.Frame
			}
			if row.X < ds.Bounds.XMin {
				ds.Bounds.XMin = row.X
			}
			if row.X > ds.Bounds.XMax {
				ds.Bounds.XMax = row.X
			}
			if row.Y < ds.Bounds.YMin {
				ds.Bounds.YMin = row.Y
			}
			if row.Y > ds.Bounds.YMax {
				ds.Bounds.YMax = row.Y
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeParseError, "read trajectory file"),
			errors.CtxPath, path)
	}

	if len(ds.Rows) == 0 {
		return nil, errors.AddContext(
			errors.New(errors.CodeParseError, "trajectory file contains no data rows"),
			errors.CtxPath, path)
	}

	if frameRate == 0 {
		frameRate = defaultFrameRate
	}
	if frameRate <= 0 {
		return nil, errors.AddContext(
			errors.New(errors.CodeParseError, "no framerate header found and no default frame rate given"),
			errors.CtxPath, path)
	}
	ds.FrameRate = frameRate

	return ds, nil
}

func parseFrameRateComment(line string) (float64, bool) {
	lower := strings.ToLower(line)
	idx := strings.Index(lower, "framerate:")
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+len("framerate:"):]
	for _, field := range strings.Fields(rest) {
		if fr, err := strconv.ParseFloat(field, 64); err == nil && fr > 0 {
			return fr, true
		}
	}
	return 0, false
}

func parseRow(line string) (Row, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Row{}, fmt.Errorf("expected at least 4 columns (id frame x y), got %d", len(fields))
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse id %q: %w", fields[0], err)
	}
	frame, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse frame %q: %w", fields[1], err)
	}
	x, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse x %q: %w", fields[2], err)
	}
	y, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse y %q: %w", fields[3], err)
	}

	return Row{Frame: frame, ID: id, X: x, Y: y}, nil
}
