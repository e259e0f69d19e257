package hexgen

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestHexCorner(t *testing.T) {
	got, err := HexCorner(Point{0, 0}, 10, 0)
	if err != nil {
		t.Fatalf("HexCorner() error = %v", err)
	}
	want := Point{X: 5 * math.Sqrt(3), Y: 5}
	if !closeEnough(got.X, want.X) || !closeEnough(got.Y, want.Y) {
		t.Errorf("HexCorner() = %+v, want %+v", got, want)
	}
}

func TestHexCorner_Errors(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		corner int
	}{
		{"zero radius", 0, 0},
		{"negative radius", -1, 0},
		{"corner too low", 1, -1},
		{"corner too high", 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := HexCorner(Point{}, tt.radius, tt.corner); err == nil {
				t.Error("HexCorner() error = nil, want non-nil")
			}
		})
	}
}

func TestRadiusToSize(t *testing.T) {
	width, height, err := RadiusToSize(5)
	if err != nil {
		t.Fatalf("RadiusToSize() error = %v", err)
	}
	if !closeEnough(width, math.Sqrt(3)*5) {
		t.Errorf("width = %v, want %v", width, math.Sqrt(3)*5)
	}
	if !closeEnough(height, 10) {
		t.Errorf("height = %v, want 10", height)
	}
}

func TestTileToPoint(t *testing.T) {
	tests := []struct {
		tile Tile
		want Point
	}{
		{Tile{0, 0}, Point{0, 0}},
		{Tile{1, 0}, Point{math.Sqrt(3), 0}},
		{Tile{0, 1}, Point{math.Sqrt(3) * 0.5, 1.5}},
		{Tile{1, 1}, Point{math.Sqrt(3) * 1.5, 1.5}},
	}
	for _, tt := range tests {
		got, err := TileToPoint(tt.tile, 1)
		if err != nil {
			t.Fatalf("TileToPoint(%+v) error = %v", tt.tile, err)
		}
		if !closeEnough(got.X, tt.want.X) || !closeEnough(got.Y, tt.want.Y) {
			t.Errorf("TileToPoint(%+v) = %+v, want %+v", tt.tile, got, tt.want)
		}
	}
}

func TestOutline_SingleTile(t *testing.T) {
	edges, err := Outline([]Tile{{0, 0}}, 1)
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if len(edges) != 6 {
		t.Errorf("Outline() returned %d edges, want 6 (all exterior)", len(edges))
	}
}

func TestOutline_SharedEdgesExcluded(t *testing.T) {
	// Two adjacent tiles share one edge; each contributes 5 exterior
	// edges.
	edges, err := Outline([]Tile{{0, 0}, {1, 0}}, 1)
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if len(edges) != 10 {
		t.Errorf("Outline() returned %d edges, want 10", len(edges))
	}
}

func TestOutline_DuplicateTilesIgnored(t *testing.T) {
	edges, err := Outline([]Tile{{0, 0}, {0, 0}}, 1)
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if len(edges) != 6 {
		t.Errorf("Outline() returned %d edges, want 6", len(edges))
	}
}

func TestOutline_BadRadius(t *testing.T) {
	if _, err := Outline([]Tile{{0, 0}}, 0); err == nil {
		t.Error("Outline() error = nil, want non-nil for zero radius")
	}
}

func TestSVGPath(t *testing.T) {
	path := SVGPath([]Edge{
		{A: Point{0, 0}, B: Point{1, 0}},
		{A: Point{1, 0}, B: Point{1, 1}},
	})
	want := "M 0.000 0.000 L 1.000 0.000 M 1.000 0.000 L 1.000 1.000"
	if path != want {
		t.Errorf("SVGPath() = %q, want %q", path, want)
	}
}

func TestSVGPath_Empty(t *testing.T) {
	if got := SVGPath(nil); got != "" {
		t.Errorf("SVGPath(nil) = %q, want empty", got)
	}
}
