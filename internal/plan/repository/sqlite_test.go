package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"floorplan/internal/plan/models"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "plans.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return repo
}

func sampleSnapshot() models.Snapshot {
	wall := models.DefaultWall()
	return models.Snapshot{
		Corners: []models.Corner{
			{ID: "c3", X: 0, Y: 0},
			{ID: "c1", X: 10, Y: 0},
			{ID: "c2", X: 10, Y: 8, Elevation: 1.5},
		},
		Walls: []models.Wall{
			{ID: "w2", StartCornerID: "c3", EndCornerID: "c1", Thickness: wall.Thickness, Height: wall.Height, Type: models.WallSolid},
			{ID: "w1", StartCornerID: "c1", EndCornerID: "c2", Thickness: 0.25, Height: 9, Type: models.WallVirtual},
			{ID: "w3", StartCornerID: "c2", EndCornerID: "c3", Thickness: wall.Thickness, Height: wall.Height, Type: models.WallPartition},
		},
		Openings: []models.Opening{
			{ID: "o1", Kind: models.OpeningDoor, WallID: "w2", Position: 0.4, Width: 3, Height: 6.8, Type: "single"},
		},
		Rooms: []models.Room{
			{ID: "c1,c2,c3", CornerIDs: []string{"c3", "c1", "c2"}, Name: "Kitchen", Type: models.RoomKitchen},
		},
	}
}

func TestCreateGetList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, "Ground floor")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := repo.Create(ctx, "Attic"); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ground floor" || !got.CreatedAt.Equal(a.CreatedAt.Truncate(1e6)) {
		t.Errorf("got %+v, want %+v", got, a)
	}

	plans, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 2 {
		t.Errorf("plans = %d, want 2", len(plans))
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing plan: err = %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	plan, err := repo.Create(ctx, "Ground floor")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := sampleSnapshot()
	if err := repo.Save(ctx, plan.ID, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx, plan.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got.Corners) != 3 || got.Corners[0].ID != "c3" || got.Corners[2].Elevation != 1.5 {
		t.Errorf("corners = %+v", got.Corners)
	}
	for i, w := range got.Walls {
		if w != want.Walls[i] {
			t.Errorf("wall %d = %+v, want %+v", i, w, want.Walls[i])
		}
	}
	if len(got.Openings) != 1 || got.Openings[0] != want.Openings[0] {
		t.Errorf("openings = %+v", got.Openings)
	}
	if len(got.Rooms) != 1 {
		t.Fatalf("rooms = %+v", got.Rooms)
	}
	room := got.Rooms[0]
	if room.Name != "Kitchen" || room.Type != models.RoomKitchen || len(room.CornerIDs) != 3 {
		t.Errorf("room label = %+v", room)
	}
}

func TestSaveReplacesContents(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	plan, _ := repo.Create(ctx, "Ground floor")

	if err := repo.Save(ctx, plan.ID, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	smaller := models.Snapshot{Corners: []models.Corner{{ID: "only", X: 1, Y: 2}}}
	if err := repo.Save(ctx, plan.ID, smaller); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(ctx, plan.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Corners) != 1 || len(got.Walls) != 0 || len(got.Openings) != 0 || len(got.Rooms) != 0 {
		t.Errorf("stale rows left: %+v", got)
	}
}

func TestMissingPlan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"save", func() error { return repo.Save(ctx, "missing", sampleSnapshot()) }},
		{"load", func() error { _, err := repo.Load(ctx, "missing"); return err }},
		{"delete", func() error { return repo.Delete(ctx, "missing") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	plan, _ := repo.Create(ctx, "Ground floor")
	if err := repo.Save(ctx, plan.ID, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.Delete(ctx, plan.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Load(ctx, plan.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("load after delete: err = %v", err)
	}
}

func TestEachReportsStepErrors(t *testing.T) {
	repo := newTestRepo(t)

	// abs() of the smallest integer overflows while the second row is stepped.
	var got []int64
	err := repo.each(context.Background(), func(rows *sql.Rows) error {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return err
		}
		got = append(got, v)
		return nil
	}, `SELECT abs(v) FROM (SELECT 1 AS v UNION ALL SELECT -9223372036854775807 - 1)`)
	if err == nil {
		t.Fatalf("expected overflow error, scanned %v", got)
	}
}
