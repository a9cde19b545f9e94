package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"floorplan/internal/plan/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a plan id is not stored.
var ErrNotFound = errors.New("plan not found")

//go:embed schema.sql
var schema string

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init applies the schema. It is safe to call on every start.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ============================================================
// Plans
// ============================================================

func (r *Repository) Create(ctx context.Context, name string) (models.Plan, error) {
	now := r.now().UTC()
	p := models.Plan{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO plans (id, name, created_at, updated_at)
        VALUES (?, ?, ?, ?)
    `, p.ID, p.Name, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return models.Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id string) (models.Plan, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, created_at, updated_at
        FROM plans
        WHERE id = ?
    `, id)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Plan{}, ErrNotFound
	}
	return p, err
}

// List returns every plan, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]models.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, created_at, updated_at
        FROM plans
        ORDER BY updated_at DESC, id
    `)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := clearEntities(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (models.Plan, error) {
	var p models.Plan
	var created, updated int64
	if err := s.Scan(&p.ID, &p.Name, &created, &updated); err != nil {
		return models.Plan{}, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

// ============================================================
// Plan contents
// ============================================================

// Save replaces the stored corners, walls, openings and room labels of a
// plan with the contents of snap. Rooms are stored as labels only.
func (r *Repository) Save(ctx context.Context, planID string, snap models.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE plans SET updated_at = ? WHERE id = ?`, r.now().UTC().UnixMilli(), planID)
	if err != nil {
		return fmt.Errorf("touch plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := clearEntities(ctx, tx, planID); err != nil {
		return err
	}

	for i, c := range snap.Corners {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO corners (plan_id, id, seq, x, y, elevation)
            VALUES (?, ?, ?, ?, ?, ?)
        `, planID, c.ID, i, c.X, c.Y, c.Elevation); err != nil {
			return fmt.Errorf("insert corner %s: %w", c.ID, err)
		}
	}
	for i, w := range snap.Walls {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO walls (plan_id, id, seq, start_corner_id, end_corner_id, thickness, height, wall_type)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        `, planID, w.ID, i, w.StartCornerID, w.EndCornerID, w.Thickness, w.Height, string(w.Type)); err != nil {
			return fmt.Errorf("insert wall %s: %w", w.ID, err)
		}
	}
	for i, o := range snap.Openings {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO openings (plan_id, id, seq, kind, wall_id, position, width, height, type)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, planID, o.ID, i, string(o.Kind), o.WallID, o.Position, o.Width, o.Height, o.Type); err != nil {
			return fmt.Errorf("insert opening %s: %w", o.ID, err)
		}
	}
	for _, room := range snap.Rooms {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO room_labels (plan_id, room_id, corner_ids, name, room_type)
            VALUES (?, ?, ?, ?, ?)
        `, planID, room.ID, strings.Join(room.CornerIDs, ","), room.Name, string(room.Type)); err != nil {
			return fmt.Errorf("insert room label %s: %w", room.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads a plan back in its saved insertion order. The returned
// snapshot's Rooms carry only ids, corner sets and labels.
func (r *Repository) Load(ctx context.Context, planID string) (models.Snapshot, error) {
	if _, err := r.Get(ctx, planID); err != nil {
		return models.Snapshot{}, err
	}

	snap := models.Snapshot{
		Corners:  []models.Corner{},
		Walls:    []models.Wall{},
		Openings: []models.Opening{},
		Rooms:    []models.Room{},
	}

	err := r.each(ctx, func(rows *sql.Rows) error {
		var c models.Corner
		if err := rows.Scan(&c.ID, &c.X, &c.Y, &c.Elevation); err != nil {
			return err
		}
		snap.Corners = append(snap.Corners, c)
		return nil
	}, `SELECT id, x, y, elevation FROM corners WHERE plan_id = ? ORDER BY seq`, planID)
	if err != nil {
		return snap, fmt.Errorf("load corners: %w", err)
	}

	err = r.each(ctx, func(rows *sql.Rows) error {
		var w models.Wall
		var wallType string
		if err := rows.Scan(&w.ID, &w.StartCornerID, &w.EndCornerID, &w.Thickness, &w.Height, &wallType); err != nil {
			return err
		}
		w.Type = models.WallType(wallType)
		snap.Walls = append(snap.Walls, w)
		return nil
	}, `
        SELECT id, start_corner_id, end_corner_id, thickness, height, wall_type
        FROM walls WHERE plan_id = ? ORDER BY seq
    `, planID)
	if err != nil {
		return snap, fmt.Errorf("load walls: %w", err)
	}

	err = r.each(ctx, func(rows *sql.Rows) error {
		var o models.Opening
		var kind string
		if err := rows.Scan(&o.ID, &kind, &o.WallID, &o.Position, &o.Width, &o.Height, &o.Type); err != nil {
			return err
		}
		o.Kind = models.OpeningKind(kind)
		snap.Openings = append(snap.Openings, o)
		return nil
	}, `
        SELECT id, kind, wall_id, position, width, height, type
        FROM openings WHERE plan_id = ? ORDER BY seq
    `, planID)
	if err != nil {
		return snap, fmt.Errorf("load openings: %w", err)
	}

	err = r.each(ctx, func(rows *sql.Rows) error {
		var room models.Room
		var cornerIDs, roomType string
		if err := rows.Scan(&room.ID, &cornerIDs, &room.Name, &roomType); err != nil {
			return err
		}
		if cornerIDs != "" {
			room.CornerIDs = strings.Split(cornerIDs, ",")
		}
		room.Type = models.RoomType(roomType)
		snap.Rooms = append(snap.Rooms, room)
		return nil
	}, `
        SELECT room_id, corner_ids, name, room_type
        FROM room_labels WHERE plan_id = ? ORDER BY room_id
    `, planID)
	if err != nil {
		return snap, fmt.Errorf("load room labels: %w", err)
	}
	return snap, nil
}

// each runs query and hands every row to scan. Errors raised while stepping
// through the result are reported, not treated as the end of the rows.
func (r *Repository) each(ctx context.Context, scan func(*sql.Rows) error, query string, args ...any) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func clearEntities(ctx context.Context, tx *sql.Tx, planID string) error {
	for _, table := range []string{"corners", "walls", "openings", "room_labels"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE plan_id = ?", planID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// OpenSQLite opens (and creates if needed) the sqlite database at dbPath.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
