package importer

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"floorplan/internal/plan/models"
)

// ============================================================
// XML Structures
// ============================================================

type svgDoc struct {
	XMLName xml.Name   `xml:"svg"`
	Rects   []svgRect  `xml:"rect"`
	Paths   []svgPath  `xml:"path"`
	Groups  []svgGroup `xml:"g"`
}

type svgGroup struct {
	ID     string     `xml:"id,attr"`
	Rects  []svgRect  `xml:"rect"`
	Paths  []svgPath  `xml:"path"`
	Groups []svgGroup `xml:"g"`
}

type svgRect struct {
	ID     string  `xml:"id,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type svgPath struct {
	ID string `xml:"id,attr"`
	D  string `xml:"d,attr"`
}

// ============================================================
// Elements
// ============================================================

type ElementKind string

const (
	KindWall   ElementKind = "wall"
	KindDoor   ElementKind = "door"
	KindWindow ElementKind = "window"
	KindRoom   ElementKind = "room"
)

// Element is one classified SVG shape, reduced to its outline in SVG units.
type Element struct {
	ID     string
	Kind   ElementKind
	Points []models.Point
}

// Bounds returns the axis-aligned bounding box of the outline.
func (e Element) Bounds() (lo, hi models.Point) {
	if len(e.Points) == 0 {
		return
	}
	lo, hi = e.Points[0], e.Points[0]
	for _, p := range e.Points[1:] {
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}
	return lo, hi
}

// Center is the middle of the bounding box.
func (e Element) Center() models.Point {
	lo, hi := e.Bounds()
	return models.Point{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
}

// ============================================================
// Parser
// ============================================================

// ParseSVG decodes the document and keeps the shapes whose id marks them as
// walls, doors, windows or room labels. Groups are walked recursively.
func ParseSVG(r io.Reader) ([]Element, error) {
	var doc svgDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode svg: %w", err)
	}

	var elements []Element
	collect := func(rects []svgRect, paths []svgPath) error {
		for _, rect := range rects {
			kind := classify(rect.ID)
			if kind == "" {
				continue
			}
			elements = append(elements, Element{
				ID:   rect.ID,
				Kind: kind,
				Points: []models.Point{
					{X: rect.X, Y: rect.Y},
					{X: rect.X + rect.Width, Y: rect.Y},
					{X: rect.X + rect.Width, Y: rect.Y + rect.Height},
					{X: rect.X, Y: rect.Y + rect.Height},
				},
			})
		}
		for _, path := range paths {
			kind := classify(path.ID)
			if kind == "" {
				continue
			}
			points, err := ParsePath(path.D)
			if err != nil {
				return fmt.Errorf("path %s: %w", path.ID, err)
			}
			if len(points) == 0 {
				continue
			}
			elements = append(elements, Element{ID: path.ID, Kind: kind, Points: points})
		}
		return nil
	}

	if err := collect(doc.Rects, doc.Paths); err != nil {
		return nil, err
	}
	var walk func(groups []svgGroup) error
	walk = func(groups []svgGroup) error {
		for _, g := range groups {
			if err := collect(g.Rects, g.Paths); err != nil {
				return err
			}
			if err := walk(g.Groups); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc.Groups); err != nil {
		return nil, err
	}
	return elements, nil
}

func classify(id string) ElementKind {
	switch {
	case strings.HasPrefix(id, "Wall_"):
		return KindWall
	case strings.HasPrefix(id, "Door_"):
		return KindDoor
	case strings.HasPrefix(id, "Window_"):
		return KindWindow
	case strings.HasPrefix(id, "Room_"),
		strings.HasSuffix(id, "_room"),
		strings.HasSuffix(id, "_Room"):
		return KindRoom
	}
	return ""
}

// roomName extracts the label from a room element id:
// "Room_Kitchen" and "Kitchen_room" both give "Kitchen".
func roomName(id string) string {
	name := strings.TrimPrefix(id, "Room_")
	name = strings.TrimSuffix(name, "_room")
	name = strings.TrimSuffix(name, "_Room")
	return strings.ReplaceAll(name, "_", " ")
}
