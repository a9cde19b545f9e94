// Package service keeps the open plans in memory, one editor per plan,
// and moves them to and from the repository.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"floorplan/internal/plan/editor"
	"floorplan/internal/plan/graph"
	"floorplan/internal/plan/importer"
	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
	"floorplan/internal/plan/repository"
)

var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrSourceNotFound = errors.New("plan has no source document")
)

// Repository is the persistence the registry needs.
type Repository interface {
	Create(ctx context.Context, name string) (models.Plan, error)
	Get(ctx context.Context, id string) (models.Plan, error)
	List(ctx context.Context) ([]models.Plan, error)
	Save(ctx context.Context, planID string, snap models.Snapshot) error
	Load(ctx context.Context, planID string) (models.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// ============================================================
// Open plan
// ============================================================

// OpenPlan is a plan loaded into memory. All edits to it are serialised.
type OpenPlan struct {
	mu     sync.Mutex
	plan   models.Plan
	editor *editor.Editor
	seq    uint64
}

func (p *OpenPlan) ID() string {
	return p.plan.ID
}

func (p *OpenPlan) Plan() models.Plan {
	return p.plan
}

// Apply runs one intent. The returned sequence number grows by one for
// every accepted intent.
func (p *OpenPlan) Apply(sess protocol.Session, env protocol.IntentEnvelope) (protocol.Session, models.Snapshot, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := p.editor.Apply(sess, env)
	if err != nil {
		return next, models.Snapshot{}, p.seq, err
	}
	p.seq++
	return next, p.editor.Snapshot(), p.seq, nil
}

// Snapshot returns the current plan contents and their sequence number.
func (p *OpenPlan) Snapshot() (models.Snapshot, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor.Snapshot(), p.seq
}

func (p *OpenPlan) Rooms() []models.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor.Rooms()
}

func (p *OpenPlan) RoomAt(pt models.Point) (models.Room, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor.RoomAt(pt)
}

// ============================================================
// Registry
// ============================================================

type Plans struct {
	mu       sync.Mutex
	repo     Repository
	files    *FileStorage
	importer *importer.Importer
	policy   editor.Policy
	open     map[string]*OpenPlan
}

func NewPlans(repo Repository, files *FileStorage, im *importer.Importer, policy editor.Policy) *Plans {
	return &Plans{
		repo:     repo,
		files:    files,
		importer: im,
		policy:   policy,
		open:     make(map[string]*OpenPlan),
	}
}

// Create stores a new empty plan and opens it.
func (s *Plans) Create(ctx context.Context, name string) (*OpenPlan, error) {
	plan, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	op := &OpenPlan{plan: plan, editor: editor.New(graph.NewStore(), s.policy)}
	s.register(op)
	log.Printf("[PLAN] created %s (%q)", plan.ID, plan.Name)
	return op, nil
}

// Get returns the open plan, loading it from the repository on first use.
func (s *Plans) Get(ctx context.Context, id string) (*OpenPlan, error) {
	s.mu.Lock()
	op, ok := s.open[id]
	s.mu.Unlock()
	if ok {
		return op, nil
	}

	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	snap, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	store := graph.NewStore()
	store.Restore(snap)
	ed := editor.New(store, s.policy)
	ed.RestoreLabels(snap.Rooms)

	op = &OpenPlan{plan: plan, editor: ed}
	log.Printf("[PLAN] loaded %s: %d corners, %d walls, %d openings",
		id, len(snap.Corners), len(snap.Walls), len(snap.Openings))
	return s.register(op), nil
}

func (s *Plans) List(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Save writes the open plan's current contents to the repository.
func (s *Plans) Save(ctx context.Context, id string) (uint64, error) {
	op, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	snap, seq := op.Snapshot()
	if err := s.repo.Save(ctx, id, snap); err != nil {
		return 0, mapNotFound(err)
	}
	log.Printf("[PLAN] saved %s at seq %d", id, seq)
	return seq, nil
}

// Import builds a plan from an SVG document, stores it and keeps the
// document as the plan's source.
func (s *Plans) Import(ctx context.Context, name string, r io.Reader) (*OpenPlan, importer.Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, importer.Report{}, fmt.Errorf("read document: %w", err)
	}

	ed, report, err := s.importer.Import(bytes.NewReader(data))
	if err != nil {
		return nil, report, err
	}

	plan, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, report, fmt.Errorf("create plan: %w", err)
	}
	if err := s.repo.Save(ctx, plan.ID, ed.Snapshot()); err != nil {
		if derr := s.repo.Delete(ctx, plan.ID); derr != nil {
			log.Printf("[PLAN] discard failed import %s: %v", plan.ID, derr)
		}
		return nil, report, fmt.Errorf("save imported plan: %w", err)
	}
	if s.files != nil {
		if err := s.files.WriteSource(plan.ID, data); err != nil {
			log.Printf("[PLAN] keep source for %s: %v", plan.ID, err)
		}
	}

	op := &OpenPlan{plan: plan, editor: ed}
	s.register(op)
	log.Printf("[PLAN] imported %s (%q)", plan.ID, plan.Name)
	return op, report, nil
}

// Delete closes the plan and removes it with its source document.
func (s *Plans) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}

	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()

	if s.files != nil {
		if err := s.files.RemovePlan(id); err != nil {
			log.Printf("[PLAN] remove files for %s: %v", id, err)
		}
	}
	log.Printf("[PLAN] deleted %s", id)
	return nil
}

// Source returns the document a plan was imported from.
func (s *Plans) Source(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	if s.files == nil {
		return nil, ErrSourceNotFound
	}
	return s.files.ReadSource(id)
}

// register keeps the first OpenPlan stored under an id; a concurrent
// loser gets the winner back.
func (s *Plans) register(op *OpenPlan) *OpenPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.open[op.ID()]; ok {
		return existing
	}
	s.open[op.ID()] = op
	return op
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}
