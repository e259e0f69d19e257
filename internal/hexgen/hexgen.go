// Package hexgen converts the game's hexagonal map tiles into Cartesian
// outlines for map rendering.
//
// The map view addresses tiles in a custom integer coordinate system: u
// points right like x, but v points up-right at a 60° angle. Converting a
// facility's tile set into a renderable shape takes three steps: convert
// each tile to a hexagon in Cartesian coordinates, keep only the edges
// bordering tiles outside the set, and serialise those exterior edges as
// an SVG path.
//
// The coordinate conversions follow the excellent reference at
// https://www.redblobgames.com/grids/hexagons/ (with a flipped v axis).
package hexgen

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	errBadRadius = errors.New("radius must be greater than zero")
	errBadIndex  = errors.New("index must be between 0 and 5")
)

// Point is a position in regular Cartesian coordinates.
type Point struct {
	X float64
	Y float64
}

// Tile is a hex index in the game's map grid.
type Tile struct {
	U int
	V int
}

// Edge is a single hexagon edge given by its two end points.
type Edge struct {
	A Point
	B Point
}

// HexCorner returns a corner of the hexagon centred at origin. Corner
// indices run counterclockwise, index 0 being the top right corner.
func HexCorner(origin Point, radius float64, corner int) (Point, error) {
	if radius <= 0 {
		return Point{}, errBadRadius
	}
	if corner < 0 || corner > 5 {
		return Point{}, fmt.Errorf("corner %w", errBadIndex)
	}
	angle := float64(60*corner+30) * math.Pi / 180
	return Point{
		X: origin.X + radius*math.Cos(angle),
		Y: origin.Y + radius*math.Sin(angle),
	}, nil
}

// HexEdge returns an edge of the hexagon centred at origin. Edge indices
// run counterclockwise, index 0 being the right edge; edge i ends at
// corner i.
func HexEdge(origin Point, radius float64, edge int) (Edge, error) {
	if radius <= 0 {
		return Edge{}, errBadRadius
	}
	if edge < 0 || edge > 5 {
		return Edge{}, fmt.Errorf("edge %w", errBadIndex)
	}
	start := edge - 1
	if edge == 0 {
		start = 5
	}
	a, err := HexCorner(origin, radius, start)
	if err != nil {
		return Edge{}, err
	}
	b, err := HexCorner(origin, radius, edge)
	if err != nil {
		return Edge{}, err
	}
	return Edge{A: a, B: b}, nil
}

// neighbours returns a tile's six adjacent tiles, ordered to match the
// edge indices of HexEdge. Integer arithmetic avoids the rounding noise a
// trigonometric walk would introduce.
func neighbours(t Tile) [6]Tile {
	return [6]Tile{
		{t.U + 1, t.V},     // right
		{t.U, t.V + 1},     // top right
		{t.U - 1, t.V + 1}, // top left
		{t.U - 1, t.V},     // left
		{t.U, t.V - 1},     // bottom left
		{t.U + 1, t.V - 1}, // bottom right
	}
}

// RadiusToSize returns the width and height of a hexagon of the given
// radius.
func RadiusToSize(radius float64) (width, height float64, err error) {
	if radius <= 0 {
		return 0, 0, errBadRadius
	}
	return math.Sqrt(3) * radius, 2 * radius, nil
}

// TileToPoint returns the Cartesian origin of a tile's hexagon.
func TileToPoint(tile Tile, radius float64) (Point, error) {
	width, height, err := RadiusToSize(radius)
	if err != nil {
		return Point{}, err
	}
	return Point{
		X: width * (float64(tile.U) + float64(tile.V)*0.5),
		Y: float64(tile.V) * height * 0.75,
	}, nil
}

// Outline returns the exterior edges of a group of tiles: every edge
// whose neighbouring tile is not part of the group. The result is
// unsorted.
func Outline(tiles []Tile, radius float64) ([]Edge, error) {
	if radius <= 0 {
		return nil, errBadRadius
	}
	members := make(map[Tile]struct{}, len(tiles))
	for _, t := range tiles {
		members[t] = struct{}{}
	}
	var edges []Edge
	for t := range members {
		origin, err := TileToPoint(t, radius)
		if err != nil {
			return nil, err
		}
		for i, n := range neighbours(t) {
			if _, inside := members[n]; inside {
				continue
			}
			edge, err := HexEdge(origin, radius, i)
			if err != nil {
				return nil, err
			}
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

// SVGPath serialises edges as an SVG path using absolute move/line
// commands, one segment per edge.
func SVGPath(edges []Edge) string {
	var b strings.Builder
	for i, e := range edges {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "M %.3f %.3f L %.3f %.3f", e.A.X, e.A.Y, e.B.X, e.B.Y)
	}
	return b.String()
}
