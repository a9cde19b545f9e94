// Package geometry holds the pure 2D helpers shared by the graph store, the
// room detector and the editor. All distances are Euclidean in feet.
package geometry

import (
	"math"

	"floorplan/internal/plan/models"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used for degenerate-length and parallel checks.
const Epsilon = 1e-9

func vec(p models.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func point(v r2.Vec) models.Point {
	return models.Point{X: v.X, Y: v.Y}
}

// ============================================================
// Points & angles
// ============================================================

func Distance(a, b models.Point) float64 {
	return r2.Norm(r2.Sub(vec(b), vec(a)))
}

// Bearing returns the angle of the direction from -> to, normalised to [0, 2π).
func Bearing(from, to models.Point) float64 {
	return NormalizeAngle(math.Atan2(to.Y-from.Y, to.X-from.X))
}

// NormalizeAngle maps any angle onto [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// Lerp returns the point at fraction t along a -> b.
func Lerp(a, b models.Point, t float64) models.Point {
	return point(r2.Add(vec(a), r2.Scale(t, r2.Sub(vec(b), vec(a)))))
}

// SnapToGrid rounds both coordinates to the nearest multiple of step.
func SnapToGrid(p models.Point, step float64) models.Point {
	if step <= 0 {
		return p
	}
	return models.Point{
		X: math.Round(p.X/step) * step,
		Y: math.Round(p.Y/step) * step,
	}
}

// Finite reports whether both coordinates are real numbers.
func Finite(p models.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ============================================================
// Polygons
// ============================================================

// SignedArea applies the shoelace formula. Counter-clockwise polygons are positive.
func SignedArea(poly []models.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += r2.Cross(vec(poly[i]), vec(poly[j]))
	}
	return sum / 2
}

// Centroid returns the arithmetic mean of the polygon's vertices.
func Centroid(poly []models.Point) models.Point {
	if len(poly) == 0 {
		return models.Point{}
	}
	var sum r2.Vec
	for _, p := range poly {
		sum = r2.Add(sum, vec(p))
	}
	return point(r2.Scale(1/float64(len(poly)), sum))
}

// PointInPolygon casts a horizontal ray from p and counts edge crossings.
// Points exactly on an edge may land on either side.
func PointInPolygon(p models.Point, poly []models.Point) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ============================================================
// Segments
// ============================================================

// Projection is the closest point on a segment to some query point.
type Projection struct {
	Point    models.Point
	T        float64 // fraction along the segment, clamped to [0, 1]
	Distance float64
}

// ProjectOntoSegment finds the point of a -> b closest to p.
func ProjectOntoSegment(p, a, b models.Point) Projection {
	ab := r2.Sub(vec(b), vec(a))
	lenSq := r2.Norm2(ab)
	if lenSq < Epsilon*Epsilon {
		return Projection{Point: a, T: 0, Distance: Distance(p, a)}
	}

	t := r2.Dot(r2.Sub(vec(p), vec(a)), ab) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := point(r2.Add(vec(a), r2.Scale(t, ab)))
	return Projection{Point: closest, T: t, Distance: Distance(p, closest)}
}

func DistanceToSegment(p, a, b models.Point) float64 {
	return ProjectOntoSegment(p, a, b).Distance
}

// SegmentIntersection returns the single crossing point of a1-a2 and b1-b2.
// Parallel and collinear segments report no crossing point.
func SegmentIntersection(a1, a2, b1, b2 models.Point) (models.Point, bool) {
	r := r2.Sub(vec(a2), vec(a1))
	s := r2.Sub(vec(b2), vec(b1))
	denom := r2.Cross(r, s)
	if math.Abs(denom) < Epsilon {
		return models.Point{}, false
	}

	qp := r2.Sub(vec(b1), vec(a1))
	t := r2.Cross(qp, s) / denom
	u := r2.Cross(qp, r) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return models.Point{}, false
	}
	return point(r2.Add(vec(a1), r2.Scale(t, r))), true
}

// SegmentsIntersect reports whether the two closed segments share any point,
// including collinear overlap.
func SegmentsIntersect(a1, a2, b1, b2 models.Point) bool {
	if _, ok := SegmentIntersection(a1, a2, b1, b2); ok {
		return true
	}
	r := r2.Sub(vec(a2), vec(a1))
	if math.Abs(r2.Cross(r, r2.Sub(vec(b1), vec(a1)))) > Epsilon ||
		math.Abs(r2.Cross(r, r2.Sub(vec(b2), vec(a1)))) > Epsilon {
		return false
	}
	return DistanceToSegment(b1, a1, a2) < Epsilon ||
		DistanceToSegment(b2, a1, a2) < Epsilon ||
		DistanceToSegment(a1, b1, b2) < Epsilon
}

// ============================================================
// Rectangles
// ============================================================

// NewBox builds a canonical box from two opposite corners in any order.
func NewBox(a, b models.Point) r2.Box {
	return r2.NewBox(a.X, a.Y, b.X, b.Y)
}

// BoxContains reports whether p lies inside or on the edge of box.
func BoxContains(box r2.Box, p models.Point) bool {
	return box.Contains(vec(p))
}

// SegmentTouchesBox reports whether a -> b lies inside or crosses the box.
func SegmentTouchesBox(a, b models.Point, box r2.Box) bool {
	if BoxContains(box, a) || BoxContains(box, b) {
		return true
	}
	verts := []models.Point{
		{X: box.Min.X, Y: box.Min.Y},
		{X: box.Max.X, Y: box.Min.Y},
		{X: box.Max.X, Y: box.Max.Y},
		{X: box.Min.X, Y: box.Max.Y},
	}
	for i := range verts {
		if SegmentsIntersect(a, b, verts[i], verts[(i+1)%len(verts)]) {
			return true
		}
	}
	return false
}
