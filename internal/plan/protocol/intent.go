package protocol

import "encoding/json"

// Intent types accepted by the editor.
const (
	IntentDrawPoint       = "draw_point"
	IntentEndDrawing      = "end_drawing"
	IntentDrawRectangle   = "draw_rectangle"
	IntentMoveCorner      = "move_corner"
	IntentDeleteCorner    = "delete_corner"
	IntentDeleteWall      = "delete_wall"
	IntentSplitWall       = "split_wall"
	IntentUpdateWall      = "update_wall"
	IntentPlaceOpening    = "place_opening"
	IntentMoveOpening     = "move_opening"
	IntentDeleteOpening   = "delete_opening"
	IntentSelectBox       = "select_box"
	IntentDeleteSelection = "delete_selection"
	IntentRenameRoom      = "rename_room"
)

type IntentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Session is the per-client UI state carried in and out of every intent.
type Session struct {
	Selection []string `json:"selection"`
	Drawing   []string `json:"drawing"`
}

type RequestDrawPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RequestDrawRectangle struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type RequestMoveCorner struct {
	CornerID string  `json:"cornerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type RequestDeleteCorner struct {
	CornerID string `json:"cornerId"`
}

type RequestDeleteWall struct {
	WallID string `json:"wallId"`
}

type RequestSplitWall struct {
	WallID string  `json:"wallId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type RequestUpdateWall struct {
	WallID    string  `json:"wallId"`
	Thickness float64 `json:"thickness,omitempty"`
	Height    float64 `json:"height,omitempty"`
	WallType  string  `json:"wallType,omitempty"`
}

type RequestPlaceOpening struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Type   string  `json:"type,omitempty"`
}

type RequestMoveOpening struct {
	OpeningID string  `json:"openingId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type RequestDeleteOpening struct {
	OpeningID string `json:"openingId"`
}

type RequestSelectBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type RequestRenameRoom struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
}
