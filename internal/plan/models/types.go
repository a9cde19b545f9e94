package models

// ============================================================
// Geometry primitives
// ============================================================

// Point is a position in plan space, measured in feet.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ============================================================
// Authoritative entities
// ============================================================

type Corner struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Elevation float64 `json:"elevation"`
}

func (c Corner) Point() Point {
	return Point{X: c.X, Y: c.Y}
}

type WallType string

const (
	WallSolid     WallType = "solid"
	WallVirtual   WallType = "virtual"
	WallPartition WallType = "partition"
)

// Valid reports whether t is one of the known wall types.
func (t WallType) Valid() bool {
	switch t {
	case WallSolid, WallVirtual, WallPartition:
		return true
	}
	return false
}

// Wall connects two distinct corners. Corners are referenced by id only.
type Wall struct {
	ID            string   `json:"id"`
	StartCornerID string   `json:"startCornerId"`
	EndCornerID   string   `json:"endCornerId"`
	Thickness     float64  `json:"thickness"`
	Height        float64  `json:"height"`
	Type          WallType `json:"wallType"`
}

// Other returns the endpoint of w opposite to cornerID.
func (w Wall) Other(cornerID string) string {
	if w.StartCornerID == cornerID {
		return w.EndCornerID
	}
	return w.StartCornerID
}

// Touches reports whether cornerID is one of w's endpoints.
func (w Wall) Touches(cornerID string) bool {
	return w.StartCornerID == cornerID || w.EndCornerID == cornerID
}

// Connects reports whether w joins a and b in either direction.
func (w Wall) Connects(a, b string) bool {
	return (w.StartCornerID == a && w.EndCornerID == b) ||
		(w.StartCornerID == b && w.EndCornerID == a)
}

// DefaultWall carries the properties new walls are drawn with.
func DefaultWall() Wall {
	return Wall{
		Thickness: 0.5,
		Height:    8,
		Type:      WallSolid,
	}
}

type OpeningKind string

const (
	OpeningDoor   OpeningKind = "door"
	OpeningWindow OpeningKind = "window"
)

// Opening is a door or window placed along a wall. Position is the fractional
// distance of the opening's centre from the wall's start corner.
type Opening struct {
	ID       string      `json:"id"`
	Kind     OpeningKind `json:"kind"`
	WallID   string      `json:"wallId"`
	Position float64     `json:"position"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Type     string      `json:"type"`
}

// DefaultOpening returns the stock dimensions for a kind of opening.
func DefaultOpening(kind OpeningKind) Opening {
	switch kind {
	case OpeningWindow:
		return Opening{Kind: OpeningWindow, Width: 3, Height: 4, Type: "standard"}
	default:
		return Opening{Kind: OpeningDoor, Width: 3, Height: 6.8, Type: "single"}
	}
}

// ============================================================
// Derived entities
// ============================================================

type RoomType string

const (
	RoomOther    RoomType = "other"
	RoomLiving   RoomType = "living"
	RoomBedroom  RoomType = "bedroom"
	RoomKitchen  RoomType = "kitchen"
	RoomBathroom RoomType = "bathroom"
	RoomDining   RoomType = "dining"
	RoomCloset   RoomType = "closet"
	RoomHallway  RoomType = "hallway"
	RoomLaundry  RoomType = "laundry"
)

// Room is a closed face traced from the corner/wall graph. Rooms are a view of
// the graph and are recomputed after every edit.
type Room struct {
	ID        string   `json:"id"`
	CornerIDs []string `json:"cornerIds"`
	WallIDs   []string `json:"wallIds"`
	Area      float64  `json:"area"`
	Centroid  Point    `json:"centroid"`
	Polygon   []Point  `json:"polygon"`
	Name      string   `json:"name"`
	Type      RoomType `json:"type"`
}

// ============================================================
// Snapshot
// ============================================================

// Snapshot is a detached copy of a plan. Slices are in insertion order.
type Snapshot struct {
	Corners  []Corner  `json:"corners"`
	Walls    []Wall    `json:"walls"`
	Openings []Opening `json:"openings"`
	Rooms    []Room    `json:"rooms"`
}
