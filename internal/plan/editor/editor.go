// Package editor turns user intents into graph mutations. After every
// mutation it recomputes the rooms and carries user labels across the
// recompute. UI session state is passed in and returned explicitly.
package editor

import (
	"errors"
	"math"

	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/graph"
	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
	"floorplan/internal/plan/rooms"
)

var (
	ErrUnknownIntent     = errors.New("unknown intent")
	ErrInvalidPayload    = errors.New("invalid intent payload")
	ErrInvalidCoordinate = errors.New("coordinate is not a finite number")
)

// ============================================================
// Policy
// ============================================================

// Policy holds the snapping tolerances, in feet.
type Policy struct {
	GridSnap        float64
	MergeThreshold  float64
	AttachThreshold float64
}

func DefaultPolicy() Policy {
	return Policy{
		GridSnap:        0.5,
		MergeThreshold:  0.75,
		AttachThreshold: 2,
	}
}

// ============================================================
// Editor
// ============================================================

type Editor struct {
	store  *graph.Store
	rooms  []models.Room
	policy Policy
	wall   models.Wall
}

func New(store *graph.Store, policy Policy) *Editor {
	if store == nil {
		store = graph.NewStore()
	}
	e := &Editor{
		store:  store,
		policy: policy,
		wall:   models.DefaultWall(),
	}
	e.Recompute()
	return e
}

func (e *Editor) Store() *graph.Store {
	return e.store
}

// Rooms returns the rooms from the last recompute.
func (e *Editor) Rooms() []models.Room {
	return append([]models.Room(nil), e.rooms...)
}

// Snapshot returns the graph together with the current rooms.
func (e *Editor) Snapshot() models.Snapshot {
	snap := e.store.Snapshot()
	snap.Rooms = e.Rooms()
	return snap
}

// Recompute re-derives every room from the graph and re-applies labels.
func (e *Editor) Recompute() {
	detected := rooms.Detect(e.store.Corners(), e.store.Walls())
	e.rooms = rooms.Reconcile(e.rooms, detected)
}

// RestoreLabels applies previously saved room labels to the current rooms.
func (e *Editor) RestoreLabels(labels []models.Room) {
	e.rooms = rooms.Reconcile(labels, rooms.Detect(e.store.Corners(), e.store.Walls()))
}

// RoomAt returns the innermost room containing p.
func (e *Editor) RoomAt(p models.Point) (models.Room, bool) {
	return rooms.FindRoomAtPoint(p, e.rooms)
}

// RenameRoom sets a room's user label. Unknown rooms are ignored.
func (e *Editor) RenameRoom(roomID, name string, roomType models.RoomType) bool {
	for i := range e.rooms {
		if e.rooms[i].ID != roomID {
			continue
		}
		if name != "" {
			e.rooms[i].Name = name
		}
		if roomType != "" {
			e.rooms[i].Type = roomType
		}
		return true
	}
	return false
}

// ============================================================
// Helpers
// ============================================================

func checkFinite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidCoordinate
		}
	}
	return nil
}

// nearestCorner finds the closest corner to p within maxDist, ignoring skip.
func (e *Editor) nearestCorner(p models.Point, maxDist float64, skip string) (models.Corner, bool) {
	var best models.Corner
	bestDist := math.MaxFloat64
	for _, c := range e.store.Corners() {
		if c.ID == skip {
			continue
		}
		if d := geometry.Distance(p, c.Point()); d <= maxDist && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= maxDist
}

// nearestWall finds the wall closest to p within maxDist.
func (e *Editor) nearestWall(p models.Point, maxDist float64) (models.Wall, geometry.Projection, bool) {
	var best models.Wall
	var bestProj geometry.Projection
	found := false
	for _, w := range e.store.Walls() {
		a, b, ok := e.store.WallEndpoints(w.ID)
		if !ok {
			continue
		}
		proj := geometry.ProjectOntoSegment(p, a, b)
		if proj.Distance > maxDist {
			continue
		}
		if !found || proj.Distance < bestProj.Distance {
			best, bestProj, found = w, proj, true
		}
	}
	return best, bestProj, found
}

// sanitize drops session references to entities that no longer exist.
func (e *Editor) sanitize(sess protocol.Session) protocol.Session {
	var drawing []string
	for _, id := range sess.Drawing {
		if _, ok := e.store.Corner(id); ok {
			drawing = append(drawing, id)
		}
	}

	var selection []string
	for _, id := range sess.Selection {
		_, isCorner := e.store.Corner(id)
		_, isWall := e.store.Wall(id)
		_, isOpening := e.store.Opening(id)
		if isCorner || isWall || isOpening {
			selection = append(selection, id)
		}
	}
	return protocol.Session{Selection: selection, Drawing: drawing}
}

func replaceID(ids []string, from, to string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == from {
			id = to
		}
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
