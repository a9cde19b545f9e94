// Package rooms derives enclosed rooms from the corner/wall graph. Detection
// is a pure function of its inputs and is recomputed from scratch on every
// call.
package rooms

import (
	"math"
	"sort"
	"strings"

	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/models"
)

// maxTraceSteps bounds a single face trace against malformed adjacency.
const maxTraceSteps = 1000

const DefaultName = "Room"

// ============================================================
// Adjacency
// ============================================================

type arc struct {
	to      string
	wallID  string
	bearing float64
}

type adjacency map[string][]arc

// buildAdjacency lists, for every corner, its neighbours sorted by bearing.
// Self-loops, walls with unknown corners and repeated pairs are ignored.
func buildAdjacency(points map[string]models.Point, walls []models.Wall) adjacency {
	adj := make(adjacency)
	linked := make(map[[2]string]bool)

	for _, w := range walls {
		a, b := w.StartCornerID, w.EndCornerID
		if a == b {
			continue
		}
		pa, okA := points[a]
		pb, okB := points[b]
		if !okA || !okB {
			continue
		}
		key := [2]string{a, b}
		if b < a {
			key = [2]string{b, a}
		}
		if linked[key] {
			continue
		}
		linked[key] = true

		adj[a] = append(adj[a], arc{to: b, wallID: w.ID, bearing: geometry.Bearing(pa, pb)})
		adj[b] = append(adj[b], arc{to: a, wallID: w.ID, bearing: geometry.Bearing(pb, pa)})
	}

	for id := range adj {
		arcs := adj[id]
		sort.SliceStable(arcs, func(i, j int) bool {
			return arcs[i].bearing < arcs[j].bearing
		})
	}
	return adj
}

// ============================================================
// Detection
// ============================================================

// Detect traces every bounded face of the graph and returns the rooms sorted
// by ascending area. Faces that cannot be traced as simple cycles are omitted.
func Detect(corners []models.Corner, walls []models.Wall) []models.Room {
	rooms := []models.Room{}
	if len(corners) < 3 || len(walls) < 3 {
		return rooms
	}

	points := make(map[string]models.Point, len(corners))
	for _, c := range corners {
		points[c.ID] = c.Point()
	}
	adj := buildAdjacency(points, walls)

	seen := make(map[string]bool)
	for _, c := range corners {
		arcs := adj[c.ID]
		if len(arcs) < 2 {
			continue
		}
		for _, first := range arcs {
			cycle, ok := trace(adj, points, c.ID, first.to)
			if !ok {
				continue
			}
			poly := polygon(points, cycle)
			if geometry.SignedArea(poly) <= 0 {
				continue
			}
			id := CanonicalID(cycle)
			if seen[id] {
				continue
			}
			seen[id] = true
			rooms = append(rooms, materialize(id, cycle, poly, adj))
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Area != rooms[j].Area {
			return rooms[i].Area < rooms[j].Area
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}

// trace walks from start through first, always taking the tightest turn,
// until it comes back to start. Revisiting any other corner, hitting a dead
// end or exceeding the step bound aborts the trace.
func trace(adj adjacency, points map[string]models.Point, start, first string) ([]string, bool) {
	path := []string{start}
	visited := map[string]bool{start: true}
	prev, cur := start, first

	for step := 0; step < maxTraceSteps; step++ {
		if cur == start {
			return path, true
		}
		if visited[cur] {
			return nil, false
		}
		visited[cur] = true
		path = append(path, cur)

		next, ok := tightestTurn(adj, points, prev, cur)
		if !ok {
			return nil, false
		}
		prev, cur = cur, next
	}
	return nil, false
}

// tightestTurn picks the outgoing arc at cur with the smallest clockwise
// rotation from the reversed incoming direction (cur -> prev). Walking this
// way keeps the traced face on the left, so bounded faces come out
// counter-clockwise.
func tightestTurn(adj adjacency, points map[string]models.Point, prev, cur string) (string, bool) {
	back := geometry.Bearing(points[cur], points[prev])

	best := ""
	bestTurn := 0.0
	for _, a := range adj[cur] {
		if a.to == prev {
			continue
		}
		turn := geometry.NormalizeAngle(back - a.bearing)
		if turn < geometry.Epsilon {
			turn += 2 * math.Pi
		}
		if best == "" || turn < bestTurn {
			best, bestTurn = a.to, turn
		}
	}
	return best, best != ""
}

// ============================================================
// Materialization
// ============================================================

// CanonicalID identifies a face by its sorted corner ids.
func CanonicalID(cornerIDs []string) string {
	ids := append([]string(nil), cornerIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func polygon(points map[string]models.Point, cycle []string) []models.Point {
	poly := make([]models.Point, 0, len(cycle))
	for _, id := range cycle {
		poly = append(poly, points[id])
	}
	return poly
}

func materialize(id string, cycle []string, poly []models.Point, adj adjacency) models.Room {
	wallIDs := make([]string, 0, len(cycle))
	for i, from := range cycle {
		to := cycle[(i+1)%len(cycle)]
		for _, a := range adj[from] {
			if a.to == to {
				wallIDs = append(wallIDs, a.wallID)
				break
			}
		}
	}

	return models.Room{
		ID:        id,
		CornerIDs: cycle,
		WallIDs:   wallIDs,
		Area:      math.Abs(geometry.SignedArea(poly)),
		Centroid:  geometry.Centroid(poly),
		Polygon:   poly,
		Name:      DefaultName,
		Type:      models.RoomOther,
	}
}
