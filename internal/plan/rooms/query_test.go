package rooms

import (
	"testing"

	"floorplan/internal/plan/models"
)

func TestFindRoomAtPoint(t *testing.T) {
	rooms := detect(twoSquares())

	tests := []struct {
		name      string
		p         models.Point
		wantFound bool
		wantMinX  float64
	}{
		{"left square", models.Point{X: 0.5, Y: 0.5}, true, 0},
		{"right square", models.Point{X: 1.5, Y: 0.5}, true, 1},
		{"outside", models.Point{X: 3, Y: 0.5}, false, 0},
		{"below", models.Point{X: 0.5, Y: -1}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := FindRoomAtPoint(tt.p, rooms)
			if ok != tt.wantFound {
				t.Fatalf("found = %v, want %v", ok, tt.wantFound)
			}
			if !ok {
				return
			}
			minX := r.Polygon[0].X
			for _, p := range r.Polygon {
				if p.X < minX {
					minX = p.X
				}
			}
			if minX != tt.wantMinX {
				t.Errorf("matched room starting at x=%.1f, want %.1f", minX, tt.wantMinX)
			}
		})
	}

	if _, ok := FindRoomAtPoint(models.Point{X: 0.5, Y: 0.5}, nil); ok {
		t.Error("FindRoomAtPoint on no rooms should find nothing")
	}
}

func TestFindRoomAtPointPrefersInnermost(t *testing.T) {
	s := newStore()
	polygonStore(s, [2]float64{0, 0}, [2]float64{10, 0}, [2]float64{10, 10}, [2]float64{0, 10})
	polygonStore(s, [2]float64{2, 2}, [2]float64{4, 2}, [2]float64{4, 4}, [2]float64{2, 4})

	r, ok := FindRoomAtPoint(models.Point{X: 3, Y: 3}, detect(s))
	if !ok {
		t.Fatal("no room found")
	}
	if r.Area != 4 {
		t.Errorf("got room with area %.1f, want the inner one (4)", r.Area)
	}
}

func TestReconcileExactID(t *testing.T) {
	prev := detect(twoSquares())
	prev[0].Name = "Office"
	prev[0].Type = models.RoomBedroom

	next := Reconcile(prev, detect(twoSquares()))
	if next[0].Name != "Office" || next[0].Type != models.RoomBedroom {
		t.Errorf("label not carried: %q/%q", next[0].Name, next[0].Type)
	}
	if next[1].Name != DefaultName {
		t.Errorf("unlabelled room got %q", next[1].Name)
	}
}

func TestReconcileAfterSplit(t *testing.T) {
	s := newStore()
	polygonStore(s, [2]float64{0, 0}, [2]float64{6, 0}, [2]float64{6, 4}, [2]float64{0, 4})
	prev := detect(s)
	prev[0].Name = "Kitchen"
	prev[0].Type = models.RoomKitchen

	bottom := s.Walls()[0]
	if _, ok := s.SplitWall(bottom.ID, models.Point{X: 3, Y: 0}); !ok {
		t.Fatal("split failed")
	}
	next := detect(s)
	if next[0].ID == prev[0].ID {
		t.Fatal("split should change the canonical id")
	}

	got := Reconcile(prev, next)
	if got[0].Name != "Kitchen" || got[0].Type != models.RoomKitchen {
		t.Errorf("label lost across split: %q/%q", got[0].Name, got[0].Type)
	}
	if next[0].Name != DefaultName {
		t.Error("Reconcile modified its input")
	}
}

func TestReconcileUsesEachLabelOnce(t *testing.T) {
	prev := []models.Room{{ID: "a,b,c,d", CornerIDs: []string{"a", "b", "c", "d"}, Name: "Den", Type: models.RoomLiving}}
	next := []models.Room{
		{ID: "a,b,c,e", CornerIDs: []string{"a", "b", "c", "e"}, Name: DefaultName},
		{ID: "a,b,c,d,f", CornerIDs: []string{"a", "b", "c", "d", "f"}, Name: DefaultName},
		{ID: "x,y,z", CornerIDs: []string{"x", "y", "z"}, Name: DefaultName},
	}

	got := Reconcile(prev, next)
	if got[1].Name != "Den" {
		t.Errorf("best overlap should win: got %q", got[1].Name)
	}
	if got[0].Name != DefaultName || got[2].Name != DefaultName {
		t.Errorf("label reused: %q, %q", got[0].Name, got[2].Name)
	}
}
