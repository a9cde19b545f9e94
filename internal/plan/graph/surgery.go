package graph

import (
	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/models"
)

// ============================================================
// Corner deletion
// ============================================================

// DeleteCorner removes a corner. A corner joining exactly two walls that lead
// to different corners is dissolved: the walls merge into one and their
// openings keep their physical distance along the combined wall. Any other
// corner is removed together with its walls and their openings. So is a
// two-wall corner whose merged wall would repeat an existing wall, which
// loses the openings on both walls.
func (s *Store) DeleteCorner(id string) bool {
	if _, ok := s.corners[id]; !ok {
		return false
	}

	walls := s.WallsAt(id)
	if len(walls) == 2 && s.mergeThrough(id, walls[0], walls[1]) {
		return true
	}

	for _, w := range walls {
		s.removeWall(w.ID, true)
	}
	s.removeCorner(id)
	return true
}

// mergeThrough replaces first and second, which meet at cornerID, with a
// single wall copying first's properties. It refuses loops and merges that
// would duplicate an existing wall.
func (s *Store) mergeThrough(cornerID string, first, second models.Wall) bool {
	from := first.Other(cornerID)
	to := second.Other(cornerID)
	if from == to {
		return false
	}
	if _, dup := s.FindWallBetween(from, to); dup {
		return false
	}

	l1 := s.WallLength(first.ID)
	l2 := s.WallLength(second.ID)
	total := l1 + l2

	merged := first
	merged.ID = s.newID()
	merged.StartCornerID = from
	merged.EndCornerID = to

	var moved []models.Opening
	for _, o := range s.OpeningsOn(first.ID) {
		// distance from `from` along first
		d := o.Position * l1
		if first.StartCornerID == cornerID {
			d = (1 - o.Position) * l1
		}
		o.WallID = merged.ID
		o.Position = ratio(d, total)
		moved = append(moved, o)
	}
	for _, o := range s.OpeningsOn(second.ID) {
		// distance from the dissolved corner along second
		d := o.Position * l2
		if second.EndCornerID == cornerID {
			d = (1 - o.Position) * l2
		}
		o.WallID = merged.ID
		o.Position = ratio(l1+d, total)
		moved = append(moved, o)
	}

	s.removeWall(first.ID, false)
	s.removeWall(second.ID, false)
	s.removeCorner(cornerID)
	s.PutWall(merged)
	for _, o := range moved {
		s.openings[o.ID] = o
	}
	s.clampOpenings(merged.ID)
	return true
}

func ratio(d, total float64) float64 {
	if total < geometry.Epsilon {
		return 0.5
	}
	return d / total
}

// ============================================================
// Corner merging
// ============================================================

// MergeCorners folds source into target. Walls ending at source are
// re-pointed to target; a wall that becomes a self-loop or repeats an
// existing target pair is dropped with its openings. Relabeled walls keep
// their openings.
func (s *Store) MergeCorners(sourceID, targetID string) bool {
	if sourceID == targetID {
		return false
	}
	if _, ok := s.corners[sourceID]; !ok {
		return false
	}
	if _, ok := s.corners[targetID]; !ok {
		return false
	}

	seen := make(map[pairKey]bool)
	var moving []models.Wall
	for _, w := range s.Walls() {
		if w.Touches(sourceID) {
			moving = append(moving, w)
			continue
		}
		seen[keyOf(w.StartCornerID, w.EndCornerID)] = true
	}

	for _, w := range moving {
		if w.StartCornerID == sourceID {
			w.StartCornerID = targetID
		}
		if w.EndCornerID == sourceID {
			w.EndCornerID = targetID
		}

		key := keyOf(w.StartCornerID, w.EndCornerID)
		if w.StartCornerID == w.EndCornerID || seen[key] {
			s.removeWall(w.ID, true)
			continue
		}
		seen[key] = true
		s.walls[w.ID] = w
	}

	s.removeCorner(sourceID)
	for _, w := range s.WallsAt(targetID) {
		s.clampOpenings(w.ID)
	}
	return true
}

type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// ============================================================
// Wall splitting
// ============================================================

// SplitWall inserts a corner at p and replaces the wall with two walls that
// copy its properties. Openings that fit wholly on one side move onto that
// side at the same physical distance; openings spanning p are dropped.
func (s *Store) SplitWall(wallID string, p models.Point) (models.Corner, bool) {
	w, ok := s.walls[wallID]
	if !ok || !geometry.Finite(p) {
		return models.Corner{}, false
	}
	a, b, ok := s.WallEndpoints(wallID)
	if !ok {
		return models.Corner{}, false
	}
	if geometry.Distance(a, p) < geometry.Epsilon || geometry.Distance(b, p) < geometry.Epsilon {
		return models.Corner{}, false
	}

	length := geometry.Distance(a, b)
	t := geometry.ProjectOntoSegment(p, a, b).T
	cut := t * length

	c := s.AddCorner(p.X, p.Y)

	head := w
	head.ID = s.newID()
	head.EndCornerID = c.ID

	tail := w
	tail.ID = s.newID()
	tail.StartCornerID = c.ID

	hosted := s.OpeningsOn(wallID)
	s.removeWall(wallID, false)
	s.PutWall(head)
	s.PutWall(tail)

	for _, o := range hosted {
		centre := o.Position * length
		half := o.Width / 2
		switch {
		case t > geometry.Epsilon && centre+half <= cut+geometry.Epsilon:
			o.WallID = head.ID
			o.Position = o.Position / t
			s.openings[o.ID] = o
		case t < 1-geometry.Epsilon && centre-half >= cut-geometry.Epsilon:
			o.WallID = tail.ID
			o.Position = (o.Position - t) / (1 - t)
			s.openings[o.ID] = o
		default:
			s.removeOpening(o.ID)
		}
	}
	s.clampOpenings(head.ID)
	s.clampOpenings(tail.ID)
	return c, true
}
