package rooms

import (
	"sort"

	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/models"
)

// ============================================================
// Queries
// ============================================================

// FindRoomAtPoint returns the first room whose polygon contains p. With rooms
// ordered by area this is the smallest enclosing room.
func FindRoomAtPoint(p models.Point, rooms []models.Room) (models.Room, bool) {
	for _, r := range rooms {
		if geometry.PointInPolygon(p, r.Polygon) {
			return r, true
		}
	}
	return models.Room{}, false
}

// ============================================================
// Label reconciliation
// ============================================================

// minOverlap is the smallest corner-set Jaccard index that still counts as
// the same room after an edit.
const minOverlap = 0.5

// Reconcile copies user-assigned names and types from prev onto next. Rooms
// with the same canonical id match first; the rest are paired by greatest
// corner-set overlap. Each previous room labels at most one new room.
func Reconcile(prev, next []models.Room) []models.Room {
	out := make([]models.Room, len(next))
	copy(out, next)
	if len(prev) == 0 {
		return out
	}

	used := make([]bool, len(prev))
	matched := make([]bool, len(out))

	byID := make(map[string]int, len(prev))
	for i, r := range prev {
		byID[r.ID] = i
	}
	for i := range out {
		if j, ok := byID[out[i].ID]; ok && !used[j] {
			applyLabel(&out[i], prev[j])
			used[j], matched[i] = true, true
		}
	}

	type candidate struct {
		next, prev int
		score      float64
	}
	var candidates []candidate
	for i := range out {
		if matched[i] {
			continue
		}
		for j := range prev {
			if used[j] {
				continue
			}
			if score := jaccard(out[i].CornerIDs, prev[j].CornerIDs); score >= minOverlap {
				candidates = append(candidates, candidate{next: i, prev: j, score: score})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	for _, c := range candidates {
		if matched[c.next] || used[c.prev] {
			continue
		}
		applyLabel(&out[c.next], prev[c.prev])
		matched[c.next], used[c.prev] = true, true
	}
	return out
}

func applyLabel(dst *models.Room, src models.Room) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Type != "" {
		dst.Type = src.Type
	}
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	inter := 0
	union := len(set)
	for _, id := range b {
		if set[id] {
			inter++
			continue
		}
		union++
	}
	return float64(inter) / float64(union)
}
