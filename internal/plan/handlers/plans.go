package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"floorplan/internal/plan/editor"
	"floorplan/internal/plan/importer"
	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
	"floorplan/internal/plan/service"

	"github.com/gofiber/fiber/v3"
)

// Publisher receives every accepted edit so live clients can follow it.
type Publisher interface {
	Publish(planID string, snap models.Snapshot, seq uint64)
}

// ============================================================
// Plan Handler
// ============================================================

type PlanHandler struct {
	plans     *service.Plans
	publisher Publisher
}

func NewPlanHandler(plans *service.Plans, publisher Publisher) *PlanHandler {
	return &PlanHandler{plans: plans, publisher: publisher}
}

// Mount registers the plan routes on r.
func (h *PlanHandler) Mount(r fiber.Router) {
	r.Get("/plans", h.ListPlans)
	r.Post("/plans", h.CreatePlan)
	r.Post("/plans/import", h.ImportPlan)
	r.Get("/plans/:id", h.GetPlan)
	r.Delete("/plans/:id", h.DeletePlan)
	r.Get("/plans/:id/source", h.GetSource)
	r.Post("/plans/:id/intents", h.ApplyIntent)
	r.Get("/plans/:id/rooms", h.GetRooms)
	r.Get("/plans/:id/rooms/at", h.GetRoomAt)
	r.Post("/plans/:id/save", h.SavePlan)
}

type createRequest struct {
	Name string `json:"name"`
}

type planResponse struct {
	Plan     models.Plan     `json:"plan"`
	Snapshot models.Snapshot `json:"snapshot"`
	Sequence uint64          `json:"seq"`
}

type intentRequest struct {
	Session protocol.Session        `json:"session"`
	Intent  protocol.IntentEnvelope `json:"intent"`
}

type intentResponse struct {
	Session  protocol.Session `json:"session"`
	Snapshot models.Snapshot  `json:"snapshot"`
	Sequence uint64           `json:"seq"`
}

type importResponse struct {
	planResponse
	Report importer.Report `json:"report"`
}

// ListPlans returns the stored plans.
func (h *PlanHandler) ListPlans(c fiber.Ctx) error {
	plans, err := h.plans.List(context.Background())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(plans)
}

// CreatePlan opens a new empty plan.
func (h *PlanHandler) CreatePlan(c fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Untitled plan"
	}

	op, err := h.plans.Create(context.Background(), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	snap, seq := op.Snapshot()
	return c.Status(http.StatusCreated).JSON(planResponse{Plan: op.Plan(), Snapshot: snap, Sequence: seq})
}

func (h *PlanHandler) GetPlan(c fiber.Ctx) error {
	op, err := h.plans.Get(context.Background(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	snap, seq := op.Snapshot()
	return c.JSON(planResponse{Plan: op.Plan(), Snapshot: snap, Sequence: seq})
}

func (h *PlanHandler) DeletePlan(c fiber.Ctx) error {
	if err := h.plans.Delete(context.Background(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ApplyIntent runs one editor intent against the plan.
func (h *PlanHandler) ApplyIntent(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req intentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	op, err := h.plans.Get(context.Background(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	sess, snap, seq, err := op.Apply(req.Session, req.Intent)
	if err != nil {
		log.Printf("[PLAN] intent %s rejected on %s: %v", req.Intent.Type, op.ID(), err)
		return writeError(c, err)
	}
	if h.publisher != nil {
		h.publisher.Publish(op.ID(), snap, seq)
	}
	return c.JSON(intentResponse{Session: sess, Snapshot: snap, Sequence: seq})
}

func (h *PlanHandler) GetRooms(c fiber.Ctx) error {
	op, err := h.plans.Get(context.Background(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(op.Rooms())
}

// GetRoomAt returns the innermost room containing ?x=&y=.
func (h *PlanHandler) GetRoomAt(c fiber.Ctx) error {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "x and y must be numbers"})
	}
	pt := models.Point{X: x, Y: y}

	op, err := h.plans.Get(context.Background(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	room, ok := op.RoomAt(pt)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no room at point"})
	}
	return c.JSON(room)
}

func (h *PlanHandler) SavePlan(c fiber.Ctx) error {
	seq, err := h.plans.Save(context.Background(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": "saved", "seq": seq})
}

// ImportPlan builds a plan from an SVG sent either as multipart "file" or
// as the raw request body.
func (h *PlanHandler) ImportPlan(c fiber.Ctx) error {
	log.Printf("[IMPORT] Content-Type: %s, Content-Length: %d", c.Get("Content-Type"), len(c.Body()))

	name := c.Query("name")
	var data []byte
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
		}
		if name == "" {
			name = strings.TrimSuffix(file.Filename, ".svg")
		}
	} else {
		data = c.Body()
	}
	if len(data) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "svg document required"})
	}
	if name == "" {
		name = "Imported plan"
	}

	op, report, err := h.plans.Import(context.Background(), name, strings.NewReader(string(data)))
	if err != nil {
		log.Printf("[IMPORT] failed: %v", err)
		if errors.Is(err, importer.ErrNoWalls) {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	snap, seq := op.Snapshot()
	return c.Status(http.StatusCreated).JSON(importResponse{
		planResponse: planResponse{Plan: op.Plan(), Snapshot: snap, Sequence: seq},
		Report:       report,
	})
}

// GetSource returns the SVG a plan was imported from.
func (h *PlanHandler) GetSource(c fiber.Ctx) error {
	data, err := h.plans.Source(context.Background(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.Send(data)
}

// ============================================================
// Helpers
// ============================================================

func writeError(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrSourceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, editor.ErrUnknownIntent),
		errors.Is(err, editor.ErrInvalidPayload),
		errors.Is(err, editor.ErrInvalidCoordinate):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("[PLAN] internal error: %v", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
