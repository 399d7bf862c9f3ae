package models

import (
	"math"
	"regexp"
	"sort"
)

// ============================================================
// Geometry helpers
// ============================================================

// BoundsOf computes the axis-aligned bounding box of a vertex list by
// min/max reduction. Returns a zero Rect for an empty list.
func BoundsOf(vertices []Point) Rect {
	if len(vertices) == 0 {
		return Rect{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, v := range vertices {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampPercent clamps a coordinate to the [0,100] percent space.
func ClampPercent(val float64) float64 {
	return Clamp(val, 0, 100)
}

func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// ============================================================
// Validation
// ============================================================

var colorHexRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidColorHex reports whether s is a #RRGGBB color.
func ValidColorHex(s string) bool {
	return colorHexRe.MatchString(s)
}

// InBounds reports whether the room's bbox fits the percent space.
func (r *Room) InBounds() bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= 100 && r.Y+r.Height <= 100
}

// ============================================================
// Z-order
// ============================================================

// SortedByZ returns placements ordered by ZOrder ascending. The sort is
// stable so ties keep insertion order.
func SortedByZ(icons []*IconPlacement) []*IconPlacement {
	out := make([]*IconPlacement, len(icons))
	copy(out, icons)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZOrder < out[j].ZOrder
	})
	return out
}
