package graph

import (
	"sort"

	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/models"

	"github.com/google/uuid"
)

// ============================================================
// Graph Store
// ============================================================

// Store owns corners, walls and openings in flat maps keyed by id. Walls
// reference corners and openings reference walls by id only.
//
// Store is not safe for concurrent use; a plan has exactly one owner at a time.
type Store struct {
	corners  map[string]models.Corner
	walls    map[string]models.Wall
	openings map[string]models.Opening

	// order records insertion sequence so iteration is deterministic and
	// "first wall" rules follow drawing order.
	order map[string]uint64
	seq   uint64

	newID func() string
}

type Option func(*Store)

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		corners:  make(map[string]models.Corner),
		walls:    make(map[string]models.Wall),
		openings: make(map[string]models.Opening),
		order:    make(map[string]uint64),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) track(id string) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return s.order[ids[i]] < s.order[ids[j]]
	})
}

// ============================================================
// Queries
// ============================================================

func (s *Store) Corner(id string) (models.Corner, bool) {
	c, ok := s.corners[id]
	return c, ok
}

func (s *Store) Wall(id string) (models.Wall, bool) {
	w, ok := s.walls[id]
	return w, ok
}

func (s *Store) Opening(id string) (models.Opening, bool) {
	o, ok := s.openings[id]
	return o, ok
}

// Corners returns every corner in insertion order.
func (s *Store) Corners() []models.Corner {
	ids := make([]string, 0, len(s.corners))
	for id := range s.corners {
		ids = append(ids, id)
	}
	s.sortIDs(ids)

	out := make([]models.Corner, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.corners[id])
	}
	return out
}

// Walls returns every wall in insertion order.
func (s *Store) Walls() []models.Wall {
	ids := make([]string, 0, len(s.walls))
	for id := range s.walls {
		ids = append(ids, id)
	}
	s.sortIDs(ids)

	out := make([]models.Wall, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.walls[id])
	}
	return out
}

// Openings returns every door and window in insertion order.
func (s *Store) Openings() []models.Opening {
	ids := make([]string, 0, len(s.openings))
	for id := range s.openings {
		ids = append(ids, id)
	}
	s.sortIDs(ids)

	out := make([]models.Opening, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.openings[id])
	}
	return out
}

// WallsAt lists the walls touching a corner in insertion order.
func (s *Store) WallsAt(cornerID string) []models.Wall {
	var out []models.Wall
	for _, w := range s.Walls() {
		if w.Touches(cornerID) {
			out = append(out, w)
		}
	}
	return out
}

// OpeningsOn lists the openings hosted by a wall in insertion order.
func (s *Store) OpeningsOn(wallID string) []models.Opening {
	var out []models.Opening
	for _, o := range s.Openings() {
		if o.WallID == wallID {
			out = append(out, o)
		}
	}
	return out
}

// FindWallBetween finds the wall joining a and b in either direction.
func (s *Store) FindWallBetween(a, b string) (models.Wall, bool) {
	for _, w := range s.Walls() {
		if w.Connects(a, b) {
			return w, true
		}
	}
	return models.Wall{}, false
}

// WallEndpoints resolves the coordinates of a wall's start and end corners.
func (s *Store) WallEndpoints(wallID string) (models.Point, models.Point, bool) {
	w, ok := s.walls[wallID]
	if !ok {
		return models.Point{}, models.Point{}, false
	}
	a, okA := s.corners[w.StartCornerID]
	b, okB := s.corners[w.EndCornerID]
	if !okA || !okB {
		return models.Point{}, models.Point{}, false
	}
	return a.Point(), b.Point(), true
}

// WallLength returns 0 for unknown walls.
func (s *Store) WallLength(wallID string) float64 {
	a, b, ok := s.WallEndpoints(wallID)
	if !ok {
		return 0
	}
	return geometry.Distance(a, b)
}

// ============================================================
// Snapshots
// ============================================================

// Snapshot returns a detached copy of the graph. Rooms are left empty.
func (s *Store) Snapshot() models.Snapshot {
	return models.Snapshot{
		Corners:  s.Corners(),
		Walls:    s.Walls(),
		Openings: s.Openings(),
		Rooms:    []models.Room{},
	}
}

// Restore replaces the store's content with snap, keeping snap's ids and order.
func (s *Store) Restore(snap models.Snapshot) {
	s.corners = make(map[string]models.Corner, len(snap.Corners))
	s.walls = make(map[string]models.Wall, len(snap.Walls))
	s.openings = make(map[string]models.Opening, len(snap.Openings))
	s.order = make(map[string]uint64)
	s.seq = 0

	for _, c := range snap.Corners {
		s.PutCorner(c)
	}
	for _, w := range snap.Walls {
		s.PutWall(w)
	}
	for _, o := range snap.Openings {
		s.PutOpening(o)
	}
}

// ============================================================
// Corners
// ============================================================

func (s *Store) AddCorner(x, y float64) models.Corner {
	c := models.Corner{ID: s.newID(), X: x, Y: y}
	s.PutCorner(c)
	return c
}

// PutCorner inserts or replaces a corner under its own id.
func (s *Store) PutCorner(c models.Corner) {
	if c.ID == "" {
		c.ID = s.newID()
	}
	s.corners[c.ID] = c
	s.track(c.ID)
}

// UpdateCorner moves a corner. Openings on the attached walls are re-clamped.
func (s *Store) UpdateCorner(id string, x, y float64) bool {
	c, ok := s.corners[id]
	if !ok {
		return false
	}
	c.X, c.Y = x, y
	s.corners[id] = c

	for _, w := range s.WallsAt(id) {
		s.clampOpenings(w.ID)
	}
	return true
}

func (s *Store) removeCorner(id string) {
	delete(s.corners, id)
	delete(s.order, id)
}

// ============================================================
// Walls
// ============================================================

// AddWall stores a wall between two existing corners and assigns it an id
// when it has none. The caller is responsible for distinct endpoints and for
// not duplicating an existing pair; see Connect for the checked variant.
func (s *Store) AddWall(w models.Wall) (models.Wall, bool) {
	if _, ok := s.corners[w.StartCornerID]; !ok {
		return models.Wall{}, false
	}
	if _, ok := s.corners[w.EndCornerID]; !ok {
		return models.Wall{}, false
	}
	if w.ID == "" {
		w.ID = s.newID()
	}
	if w.Type == "" {
		w.Type = models.WallSolid
	}
	s.PutWall(w)
	return w, true
}

// PutWall inserts or replaces a wall under its own id without validation.
func (s *Store) PutWall(w models.Wall) {
	s.walls[w.ID] = w
	s.track(w.ID)
}

// Connect adds a wall from a to b using tmpl's properties, refusing
// self-loops and pairs that are already connected.
func (s *Store) Connect(a, b string, tmpl models.Wall) (models.Wall, bool) {
	if a == b {
		return models.Wall{}, false
	}
	if _, dup := s.FindWallBetween(a, b); dup {
		return models.Wall{}, false
	}
	w := tmpl
	w.ID = ""
	w.StartCornerID = a
	w.EndCornerID = b
	return s.AddWall(w)
}

// ConnectLoop joins consecutive corners of a closed loop, skipping pairs
// that are degenerate or already connected.
func (s *Store) ConnectLoop(cornerIDs []string, tmpl models.Wall) []models.Wall {
	if len(cornerIDs) < 2 {
		return nil
	}
	var added []models.Wall
	for i := range cornerIDs {
		a := cornerIDs[i]
		b := cornerIDs[(i+1)%len(cornerIDs)]
		if w, ok := s.Connect(a, b, tmpl); ok {
			added = append(added, w)
		}
	}
	return added
}

// UpdateWall copies thickness, height and type from w onto the stored wall
// with the same id. Endpoints are never changed here.
func (s *Store) UpdateWall(w models.Wall) bool {
	cur, ok := s.walls[w.ID]
	if !ok {
		return false
	}
	if w.Thickness > 0 {
		cur.Thickness = w.Thickness
	}
	if w.Height > 0 {
		cur.Height = w.Height
	}
	if w.Type.Valid() {
		cur.Type = w.Type
	}
	s.walls[w.ID] = cur
	return true
}

// DeleteWall removes a wall and every opening on it.
func (s *Store) DeleteWall(id string) bool {
	if _, ok := s.walls[id]; !ok {
		return false
	}
	s.removeWall(id, true)
	return true
}

func (s *Store) removeWall(id string, cascade bool) {
	if cascade {
		for _, o := range s.OpeningsOn(id) {
			s.removeOpening(o.ID)
		}
	}
	delete(s.walls, id)
	delete(s.order, id)
}
