package graph

import (
	"math"

	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/models"
)

// ============================================================
// Openings
// ============================================================

// AddOpening places a door or window on an existing wall. The position is
// clamped so the full width stays on the wall; openings wider than the wall
// are refused.
func (s *Store) AddOpening(o models.Opening) (models.Opening, bool) {
	if _, ok := s.walls[o.WallID]; !ok {
		return models.Opening{}, false
	}
	if o.Width < 0 || math.IsNaN(o.Position) {
		return models.Opening{}, false
	}

	pos, ok := fitPosition(o.Position, o.Width, s.WallLength(o.WallID))
	if !ok {
		return models.Opening{}, false
	}
	o.Position = pos
	if o.ID == "" {
		o.ID = s.newID()
	}
	if o.Kind == "" {
		o.Kind = models.OpeningDoor
	}
	s.PutOpening(o)
	return o, true
}

// PutOpening inserts or replaces an opening under its own id without validation.
func (s *Store) PutOpening(o models.Opening) {
	s.openings[o.ID] = o
	s.track(o.ID)
}

// MoveOpening re-hosts an opening on wallID at position, clamped to fit.
func (s *Store) MoveOpening(id, wallID string, position float64) bool {
	o, ok := s.openings[id]
	if !ok {
		return false
	}
	if _, ok := s.walls[wallID]; !ok {
		return false
	}
	pos, ok := fitPosition(position, o.Width, s.WallLength(wallID))
	if !ok {
		return false
	}
	o.WallID = wallID
	o.Position = pos
	s.openings[id] = o
	return true
}

func (s *Store) DeleteOpening(id string) bool {
	if _, ok := s.openings[id]; !ok {
		return false
	}
	s.removeOpening(id)
	return true
}

func (s *Store) removeOpening(id string) {
	delete(s.openings, id)
	delete(s.order, id)
}

// clampOpenings restores the width invariant after a wall changed length.
func (s *Store) clampOpenings(wallID string) {
	length := s.WallLength(wallID)
	for _, o := range s.OpeningsOn(wallID) {
		pos, ok := fitPosition(o.Position, o.Width, length)
		if !ok {
			s.removeOpening(o.ID)
			continue
		}
		o.Position = pos
		s.openings[o.ID] = o
	}
}

// fitPosition clamps p so that p·L ≥ w/2 and (1−p)·L ≥ w/2.
func fitPosition(p, width, length float64) (float64, bool) {
	if length < geometry.Epsilon {
		return 0, false
	}
	if width > length+geometry.Epsilon {
		return 0, false
	}
	half := math.Min(width/2/length, 0.5)
	return math.Max(half, math.Min(1-half, p)), true
}
