// Package geometry models the walkable area of a trajectory dataset as a
// WKT polygon plus its bounding box, and provides the content hash used to
// deduplicate geometry rows in the output store.
package geometry

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"jpslite/internal/core/errors"
)

type Point struct {
	X float64
	Y float64
}

// Bounds is an axis-aligned bounding box, min corner inclusive of all
// covered coordinates.
type Bounds struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Pad grows the box by d on every side.
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{
		XMin: b.XMin - d,
		YMin: b.YMin - d,
		XMax: b.XMax + d,
		YMax: b.YMax + d,
	}
}

// Polygon is a simple polygon with an exterior shell and optional holes.
// Every ring is closed: its first and last points are equal.
type Polygon struct {
	Rings [][]Point
}

// WalkableArea is the polygonal region within which positions are valid.
type WalkableArea struct {
	Polygon Polygon
}

// FromBounds builds a rectangular walkable area covering b, shell oriented
// counter-clockwise starting at the min corner.
func FromBounds(b Bounds) WalkableArea {
	shell := []Point{
		{b.XMin, b.YMin},
		{b.XMax, b.YMin},
		{b.XMax, b.YMax},
		{b.XMin, b.YMax},
		{b.XMin, b.YMin},
	}
	return WalkableArea{Polygon: Polygon{Rings: [][]Point{shell}}}
}

// WKT renders the polygon at full coordinate precision. The same coordinates
// always produce the same text, which is what makes the content hash stable.
func (a WalkableArea) WKT() string {
	var sb strings.Builder
	sb.WriteString("POLYGON (")
	for i, ring := range a.Polygon.Rings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, p := range ring {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatCoord(p.X))
			sb.WriteByte(' ')
			sb.WriteString(formatCoord(p.Y))
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(')')
	return sb.String()
}

// Bounds returns the bounding box of the exterior shell.
func (a WalkableArea) Bounds() Bounds {
	shell := a.Polygon.Rings[0]
	b := Bounds{XMin: shell[0].X, YMin: shell[0].Y, XMax: shell[0].X, YMax: shell[0].Y}
	for _, p := range shell[1:] {
		if p.X < b.XMin {
			b.XMin = p.X
		}
		if p.X > b.XMax {
			b.XMax = p.X
		}
		if p.Y < b.YMin {
			b.YMin = p.Y
		}
		if p.Y > b.YMax {
			b.YMax = p.Y
		}
	}
	return b
}

// Hash is the deterministic content hash of a geometry's WKT text,
// reinterpreted as int64 to fit the store's INTEGER hash column.
func Hash(wkt string) int64 {
	return int64(xxhash.Sum64String(wkt))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseWKT parses a POLYGON WKT string. Rings with an open boundary are
// closed implicitly; a ring needs at least three distinct points.
func ParseWKT(s string) (WalkableArea, error) {
	text := strings.TrimSpace(s)
	upper := strings.ToUpper(text)
	if !strings.HasPrefix(upper, "POLYGON") {
		return WalkableArea{}, errors.New(errors.CodeParseError, "geometry must be a POLYGON WKT string")
	}

	body := strings.TrimSpace(text[len("POLYGON"):])
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return WalkableArea{}, errors.New(errors.CodeParseError, "malformed POLYGON: missing outer parentheses")
	}
	body = body[1 : len(body)-1]

	rawRings, err := splitRings(body)
	if err != nil {
		return WalkableArea{}, err
	}
	if len(rawRings) == 0 {
		return WalkableArea{}, errors.New(errors.CodeParseError, "malformed POLYGON: no rings")
	}

	rings := make([][]Point, 0, len(rawRings))
	for _, raw := range rawRings {
		ring, err := parseRing(raw)
		if err != nil {
			return WalkableArea{}, err
		}
		rings = append(rings, ring)
	}

	return WalkableArea{Polygon: Polygon{Rings: rings}}, nil
}

func splitRings(body string) ([]string, error) {
	var rings []string
	depth := 0
	start := -1
	for i, r := range body {
		switch r {
		case '(':
			depth++
			if depth == 1 {
				start = i + 1
			}
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.New(errors.CodeParseError, "malformed POLYGON: unbalanced parentheses")
			}
			if depth == 0 {
				rings = append(rings, body[start:i])
			}
		}
	}
	if depth != 0 {
		return nil, errors.New(errors.CodeParseError, "malformed POLYGON: unbalanced parentheses")
	}
	return rings, nil
}

func parseRing(raw string) ([]Point, error) {
	parts := strings.Split(raw, ",")
	ring := make([]Point, 0, len(parts)+1)
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			return nil, errors.New(errors.CodeParseError, "malformed POLYGON: coordinate needs x and y")
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParseError, "malformed POLYGON: bad x coordinate")
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParseError, "malformed POLYGON: bad y coordinate")
		}
		ring = append(ring, Point{X: x, Y: y})
	}

	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, errors.New(errors.CodeParseError, "malformed POLYGON: ring needs at least three distinct points")
	}
	return ring, nil
}
