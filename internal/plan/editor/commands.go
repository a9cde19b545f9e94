package editor

import (
	"math"

	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
)

// ============================================================
// Drawing
// ============================================================

// resolveCorner returns the corner a click at p lands on: an existing corner
// within the merge threshold, a new corner splitting a nearby wall, or a new
// free corner on the grid.
func (e *Editor) resolveCorner(p models.Point) (string, bool) {
	if c, ok := e.nearestCorner(p, e.policy.MergeThreshold, ""); ok {
		return c.ID, false
	}

	q := geometry.SnapToGrid(p, e.policy.GridSnap)
	if w, proj, ok := e.nearestWall(q, e.policy.MergeThreshold); ok {
		if c, ok := e.store.SplitWall(w.ID, proj.Point); ok {
			return c.ID, true
		}
	}
	return e.store.AddCorner(q.X, q.Y).ID, true
}

// DrawPoint extends the in-progress wall chain to p. Landing back on the
// chain's first corner closes the polygon and ends the drawing.
func (e *Editor) DrawPoint(sess protocol.Session, p models.Point) (protocol.Session, bool) {
	id, changed := e.resolveCorner(p)

	if n := len(sess.Drawing); n > 0 {
		last := sess.Drawing[n-1]
		if id == last {
			return sess, changed
		}
		if _, ok := e.store.Connect(last, id, e.wall); ok {
			changed = true
		}
		if id == sess.Drawing[0] {
			sess.Drawing = nil
			return sess, changed
		}
	}

	sess.Drawing = append(sess.Drawing, id)
	return sess, changed
}

func (e *Editor) EndDrawing(sess protocol.Session) protocol.Session {
	sess.Drawing = nil
	return sess
}

// DrawRectangle draws a closed four-wall room between two opposite corners.
func (e *Editor) DrawRectangle(a, b models.Point) bool {
	a = geometry.SnapToGrid(a, e.policy.GridSnap)
	b = geometry.SnapToGrid(b, e.policy.GridSnap)
	if math.Abs(a.X-b.X) < e.policy.GridSnap/2 || math.Abs(a.Y-b.Y) < e.policy.GridSnap/2 {
		return false
	}

	points := []models.Point{
		{X: a.X, Y: a.Y},
		{X: b.X, Y: a.Y},
		{X: b.X, Y: b.Y},
		{X: a.X, Y: b.Y},
	}
	ids := make([]string, 0, len(points))
	for _, p := range points {
		id, _ := e.resolveCorner(p)
		ids = append(ids, id)
	}
	e.store.ConnectLoop(ids, e.wall)
	return true
}

// ============================================================
// Corners & walls
// ============================================================

// MoveCorner finishes a drag. Dropping a corner onto another merges the two.
func (e *Editor) MoveCorner(sess protocol.Session, id string, p models.Point) (protocol.Session, bool) {
	if _, ok := e.store.Corner(id); !ok {
		return sess, false
	}
	p = geometry.SnapToGrid(p, e.policy.GridSnap)
	e.store.UpdateCorner(id, p.X, p.Y)

	if target, ok := e.nearestCorner(p, e.policy.MergeThreshold, id); ok {
		e.store.MergeCorners(id, target.ID)
		sess.Drawing = replaceID(sess.Drawing, id, target.ID)
		sess.Selection = replaceID(sess.Selection, id, target.ID)
	}
	return sess, true
}

func (e *Editor) SplitWall(wallID string, p models.Point) bool {
	a, b, ok := e.store.WallEndpoints(wallID)
	if !ok {
		return false
	}
	proj := geometry.ProjectOntoSegment(p, a, b)
	_, ok = e.store.SplitWall(wallID, proj.Point)
	return ok
}

func (e *Editor) UpdateWall(req protocol.RequestUpdateWall) bool {
	return e.store.UpdateWall(models.Wall{
		ID:        req.WallID,
		Thickness: req.Thickness,
		Height:    req.Height,
		Type:      models.WallType(req.WallType),
	})
}

// ============================================================
// Openings
// ============================================================

// PlaceOpening attaches a door or window to the nearest wall within the
// attach threshold.
func (e *Editor) PlaceOpening(req protocol.RequestPlaceOpening) (models.Opening, bool) {
	p := models.Point{X: req.X, Y: req.Y}
	w, proj, ok := e.nearestWall(p, e.policy.AttachThreshold)
	if !ok {
		return models.Opening{}, false
	}

	o := models.DefaultOpening(models.OpeningKind(req.Kind))
	o.WallID = w.ID
	o.Position = proj.T
	if req.Width > 0 {
		o.Width = req.Width
	}
	if req.Height > 0 {
		o.Height = req.Height
	}
	if req.Type != "" {
		o.Type = req.Type
	}
	return e.store.AddOpening(o)
}

func (e *Editor) MoveOpening(id string, p models.Point) bool {
	w, proj, ok := e.nearestWall(p, e.policy.AttachThreshold)
	if !ok {
		return false
	}
	return e.store.MoveOpening(id, w.ID, proj.T)
}

// ============================================================
// Selection
// ============================================================

// SelectBox selects every corner inside the rectangle and every wall that
// lies in or crosses it.
func (e *Editor) SelectBox(sess protocol.Session, a, b models.Point) protocol.Session {
	box := geometry.NewBox(a, b)
	var selection []string

	for _, c := range e.store.Corners() {
		if geometry.BoxContains(box, c.Point()) {
			selection = append(selection, c.ID)
		}
	}
	for _, w := range e.store.Walls() {
		pa, pb, ok := e.store.WallEndpoints(w.ID)
		if ok && geometry.SegmentTouchesBox(pa, pb, box) {
			selection = append(selection, w.ID)
		}
	}

	sess.Selection = selection
	return sess
}

// DeleteSelection removes the selected openings, then walls, then corners.
func (e *Editor) DeleteSelection(sess protocol.Session) (protocol.Session, bool) {
	changed := false
	for _, id := range sess.Selection {
		if e.store.DeleteOpening(id) {
			changed = true
		}
	}
	for _, id := range sess.Selection {
		if e.store.DeleteWall(id) {
			changed = true
		}
	}
	for _, id := range sess.Selection {
		if e.store.DeleteCorner(id) {
			changed = true
		}
	}
	sess.Selection = nil
	return sess, changed
}
