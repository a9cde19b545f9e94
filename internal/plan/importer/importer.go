// Package importer builds an editable plan from an SVG floor plan whose
// shapes are tagged by id (Wall_, Door_, Window_, Room_).
package importer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"

	"floorplan/internal/plan/editor"
	"floorplan/internal/plan/geometry"
	"floorplan/internal/plan/graph"
	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
)

// ErrNoWalls is returned when the document has no usable wall shapes.
var ErrNoWalls = errors.New("svg contains no walls")

// A wall end stopping this short of a crossing wall (in feet) is extended
// to meet it.
const connectTolerance = 1.5

// ============================================================
// Importer
// ============================================================

type Importer struct {
	pxPerFoot float64
	policy    editor.Policy
	storeOpts []graph.Option
}

// Report summarises what an import produced.
type Report struct {
	Walls    int      `json:"walls"`
	Openings int      `json:"openings"`
	Labels   int      `json:"labels"`
	Skipped  []string `json:"skipped"`
}

func New(pxPerFoot float64, policy editor.Policy, opts ...graph.Option) *Importer {
	if pxPerFoot <= 0 {
		pxPerFoot = 1
	}
	return &Importer{pxPerFoot: pxPerFoot, policy: policy, storeOpts: opts}
}

// Import parses r and returns an editor over the reconstructed graph.
func (im *Importer) Import(r io.Reader) (*editor.Editor, Report, error) {
	report := Report{Skipped: []string{}}

	elements, err := ParseSVG(r)
	if err != nil {
		return nil, report, fmt.Errorf("parse svg: %w", err)
	}

	var walls, openings, labels []Element
	for _, elem := range elements {
		if !finitePoints(elem.Points) {
			report.Skipped = append(report.Skipped, elem.ID)
			continue
		}
		switch elem.Kind {
		case KindWall:
			walls = append(walls, elem)
		case KindDoor, KindWindow:
			openings = append(openings, elem)
		case KindRoom:
			labels = append(labels, elem)
		}
	}

	var segments []wallSegment
	for _, w := range walls {
		if seg, ok := im.centreLine(w); ok {
			segments = append(segments, seg)
		} else {
			report.Skipped = append(report.Skipped, w.ID)
		}
	}
	if len(segments) == 0 {
		return nil, report, ErrNoWalls
	}

	store := graph.NewStore(im.storeOpts...)
	for _, seg := range splitSegments(segments) {
		a := im.findOrCreateCorner(store, seg.p1)
		b := im.findOrCreateCorner(store, seg.p2)
		tmpl := models.DefaultWall()
		if seg.thickness > 0 {
			tmpl.Thickness = seg.thickness
		}
		if _, ok := store.Connect(a, b, tmpl); ok {
			report.Walls++
		}
	}

	ed := editor.New(store, im.policy)

	for _, elem := range openings {
		if im.placeOpening(ed, elem) {
			report.Openings++
		} else {
			report.Skipped = append(report.Skipped, elem.ID)
		}
	}

	for _, elem := range labels {
		room, ok := ed.RoomAt(im.scale(elem.Center()))
		if !ok {
			report.Skipped = append(report.Skipped, elem.ID)
			continue
		}
		name := roomName(elem.ID)
		ed.RenameRoom(room.ID, name, guessRoomType(name))
		report.Labels++
	}

	log.Printf("[IMPORT] %d walls, %d openings, %d labels, %d skipped",
		report.Walls, report.Openings, report.Labels, len(report.Skipped))
	return ed, report, nil
}

// finitePoints rejects shapes carrying NaN or Inf coordinates, which
// strconv happily parses from attributes.
func finitePoints(points []models.Point) bool {
	for _, p := range points {
		if !geometry.Finite(p) {
			return false
		}
	}
	return true
}

func (im *Importer) scale(p models.Point) models.Point {
	return models.Point{X: p.X / im.pxPerFoot, Y: p.Y / im.pxPerFoot}
}

// centreLine reduces a wall outline to the centre line of its longer side.
func (im *Importer) centreLine(elem Element) (wallSegment, bool) {
	lo, hi := elem.Bounds()
	lo, hi = im.scale(lo), im.scale(hi)
	width := hi.X - lo.X
	height := hi.Y - lo.Y

	seg := wallSegment{id: elem.ID, thickness: math.Min(width, height)}
	switch {
	case width == 0 && height == 0:
		return seg, false
	case width >= height:
		midY := lo.Y + height/2
		seg.p1 = models.Point{X: lo.X, Y: midY}
		seg.p2 = models.Point{X: hi.X, Y: midY}
	default:
		midX := lo.X + width/2
		seg.p1 = models.Point{X: midX, Y: lo.Y}
		seg.p2 = models.Point{X: midX, Y: hi.Y}
	}
	return seg, true
}

func (im *Importer) findOrCreateCorner(store *graph.Store, p models.Point) string {
	best := ""
	bestDist := im.policy.MergeThreshold
	for _, c := range store.Corners() {
		if d := math.Hypot(c.X-p.X, c.Y-p.Y); d <= bestDist {
			best, bestDist = c.ID, d
		}
	}
	if best != "" {
		return best
	}
	return store.AddCorner(p.X, p.Y).ID
}

// placeOpening attaches a door or window at the centre of its outline. The
// opening width is the outline's longer side.
func (im *Importer) placeOpening(ed *editor.Editor, elem Element) bool {
	lo, hi := elem.Bounds()
	lo, hi = im.scale(lo), im.scale(hi)
	center := im.scale(elem.Center())

	kind := models.OpeningDoor
	if elem.Kind == KindWindow {
		kind = models.OpeningWindow
	}
	_, ok := ed.PlaceOpening(protocol.RequestPlaceOpening{
		Kind:  string(kind),
		X:     center.X,
		Y:     center.Y,
		Width: math.Max(hi.X-lo.X, hi.Y-lo.Y),
	})
	return ok
}

var roomKeywords = []struct {
	keyword string
	kind    models.RoomType
}{
	{"kitchen", models.RoomKitchen},
	{"bath", models.RoomBathroom},
	{"toilet", models.RoomBathroom},
	{"wc", models.RoomBathroom},
	{"bed", models.RoomBedroom},
	{"living", models.RoomLiving},
	{"lounge", models.RoomLiving},
	{"dining", models.RoomDining},
	{"closet", models.RoomCloset},
	{"wardrobe", models.RoomCloset},
	{"hall", models.RoomHallway},
	{"corridor", models.RoomHallway},
	{"laundry", models.RoomLaundry},
}

func guessRoomType(name string) models.RoomType {
	lower := strings.ToLower(name)
	for _, k := range roomKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.kind
		}
	}
	return models.RoomOther
}

// ============================================================
// Wall segments connection
// ============================================================

type wallSegment struct {
	id        string
	p1, p2    models.Point
	thickness float64
}

type segmentInfo struct {
	segment     wallSegment
	horizontal  bool
	start       float64
	end         float64
	constant    float64
	splitPoints []float64
}

// splitSegments cuts axis-aligned centre lines wherever a horizontal and a
// vertical line cross or nearly meet, so every junction becomes a corner.
func splitSegments(segments []wallSegment) []wallSegment {
	infos := make([]*segmentInfo, 0, len(segments))
	for _, seg := range segments {
		horizontal := math.Abs(seg.p1.Y-seg.p2.Y) <= math.Abs(seg.p1.X-seg.p2.X)
		start, end := seg.p1.X, seg.p2.X
		constant := seg.p1.Y
		if !horizontal {
			start, end = seg.p1.Y, seg.p2.Y
			constant = seg.p1.X
		}
		if start > end {
			start, end = end, start
		}
		infos = append(infos, &segmentInfo{
			segment:     seg,
			horizontal:  horizontal,
			start:       start,
			end:         end,
			constant:    constant,
			splitPoints: []float64{start, end},
		})
	}

	for i := 0; i < len(infos); i++ {
		for j := i + 1; j < len(infos); j++ {
			a, b := infos[i], infos[j]
			if a.horizontal == b.horizontal {
				continue
			}
			if a.horizontal {
				addIntersection(a, b)
			} else {
				addIntersection(b, a)
			}
		}
	}

	var result []wallSegment
	for _, info := range infos {
		points := append([]float64{}, info.splitPoints...)
		sort.Float64s(points)
		points = uniquePoints(points)

		for idx := 0; idx+1 < len(points); idx++ {
			start, end := points[idx], points[idx+1]
			seg := wallSegment{id: info.segment.id, thickness: info.segment.thickness}
			if info.horizontal {
				seg.p1 = models.Point{X: start, Y: info.constant}
				seg.p2 = models.Point{X: end, Y: info.constant}
			} else {
				seg.p1 = models.Point{X: info.constant, Y: start}
				seg.p2 = models.Point{X: info.constant, Y: end}
			}
			result = append(result, seg)
		}
	}
	return result
}

func addIntersection(h, v *segmentInfo) {
	vx, hy := v.constant, h.constant
	if vx < h.start-connectTolerance || vx > h.end+connectTolerance {
		return
	}
	if hy < v.start-connectTolerance || hy > v.end+connectTolerance {
		return
	}

	// Ends that stop short are extended to the crossing.
	h.splitPoints = append(h.splitPoints, vx)
	v.splitPoints = append(v.splitPoints, hy)
	h.start, h.end = math.Min(h.start, vx), math.Max(h.end, vx)
	v.start, v.end = math.Min(v.start, hy), math.Max(v.end, hy)
}

func uniquePoints(points []float64) []float64 {
	if len(points) == 0 {
		return points
	}
	out := points[:1]
	for _, p := range points[1:] {
		if math.Abs(p-out[len(out)-1]) > 1e-6 {
			out = append(out, p)
		}
	}
	return out
}
