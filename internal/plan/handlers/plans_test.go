package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"floorplan/internal/plan/editor"
	"floorplan/internal/plan/importer"
	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
	"floorplan/internal/plan/repository"
	"floorplan/internal/plan/service"

	"github.com/gofiber/fiber/v3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type recordingPublisher struct {
	mu   sync.Mutex
	seqs []uint64
}

func (p *recordingPublisher) Publish(planID string, snap models.Snapshot, seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seqs = append(p.seqs, seq)
}

func newTestApp(t *testing.T) (*fiber.App, *recordingPublisher) {
	t.Helper()
	dir := t.TempDir()
	db, err := repository.OpenSQLite(filepath.Join(dir, "plans.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	policy := editor.DefaultPolicy()
	plans := service.NewPlans(repo, service.NewFileStorage(filepath.Join(dir, "source")), importer.New(10, policy), policy)
	pub := &recordingPublisher{}

	app := fiber.New()
	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", ReadinessProbe(db))
	app.Get("/docs/openapi.yaml", SwaggerSpec)
	NewPlanHandler(plans, pub).Mount(app)
	return app, pub
}

func do(t *testing.T, app *fiber.App, method, target string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return do(t, app, method, target, body, "application/json")
}

func createPlan(t *testing.T, app *fiber.App) planResponse {
	t.Helper()
	resp, data := doJSON(t, app, http.MethodPost, "/plans", createRequest{Name: "Ground floor"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var out planResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func intent(t *testing.T, kind string, payload any) protocol.IntentEnvelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return protocol.IntentEnvelope{Type: kind, Payload: raw}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	for _, path := range []string{"/health/live", "/health/ready", "/docs/openapi.yaml"} {
		resp, data := do(t, app, http.MethodGet, path, nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s = %d: %s", path, resp.StatusCode, data)
		}
	}
}

func TestCreateAndGetPlan(t *testing.T) {
	app, _ := newTestApp(t)
	created := createPlan(t, app)
	if created.Plan.ID == "" || created.Plan.Name != "Ground floor" {
		t.Fatalf("created = %+v", created.Plan)
	}

	resp, data := doJSON(t, app, http.MethodGet, "/plans/"+created.Plan.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d: %s", resp.StatusCode, data)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/plans/unknown", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown plan status = %d, want 404", resp.StatusCode)
	}

	resp, data = doJSON(t, app, http.MethodGet, "/plans", nil)
	var list []models.Plan
	if err := json.Unmarshal(data, &list); err != nil || len(list) != 1 {
		t.Errorf("list = %s (%v)", data, err)
	}
}

func TestApplyIntentAndQueryRooms(t *testing.T) {
	app, pub := newTestApp(t)
	plan := createPlan(t, app)
	base := "/plans/" + plan.Plan.ID

	resp, data := doJSON(t, app, http.MethodPost, base+"/intents", intentRequest{
		Intent: intent(t, protocol.IntentDrawRectangle, protocol.RequestDrawRectangle{X1: 0, Y1: 0, X2: 10, Y2: 8}),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("intent status = %d: %s", resp.StatusCode, data)
	}
	var out intentResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Sequence != 1 || len(out.Snapshot.Rooms) != 1 {
		t.Fatalf("seq = %d, rooms = %d", out.Sequence, len(out.Snapshot.Rooms))
	}
	if len(pub.seqs) != 1 || pub.seqs[0] != 1 {
		t.Errorf("published = %v, want [1]", pub.seqs)
	}

	resp, data = doJSON(t, app, http.MethodGet, base+"/rooms", nil)
	var rooms []models.Room
	if err := json.Unmarshal(data, &rooms); err != nil || len(rooms) != 1 {
		t.Fatalf("rooms = %s (%v)", data, err)
	}
	if rooms[0].Area != 80 {
		t.Errorf("area = %v, want 80", rooms[0].Area)
	}

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"inside", "?x=5&y=4", http.StatusOK},
		{"outside", "?x=50&y=4", http.StatusNotFound},
		{"not a number", "?x=five&y=4", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodGet, base+"/rooms/at"+tt.query, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, data)
			}
		})
	}
}

func TestApplyIntentErrors(t *testing.T) {
	app, pub := newTestApp(t)
	plan := createPlan(t, app)
	base := "/plans/" + plan.Plan.ID

	tests := []struct {
		name   string
		target string
		body   io.Reader
		status int
	}{
		{"empty body", base + "/intents", nil, http.StatusBadRequest},
		{"invalid json", base + "/intents", strings.NewReader("{"), http.StatusBadRequest},
		{"unknown intent", base + "/intents", strings.NewReader(`{"intent":{"type":"fly"}}`), http.StatusBadRequest},
		{"bad payload", base + "/intents", strings.NewReader(`{"intent":{"type":"draw_point","payload":{"x":"a"}}}`), http.StatusBadRequest},
		{"unknown plan", "/plans/nope/intents", strings.NewReader(`{"intent":{"type":"end_drawing"}}`), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, app, http.MethodPost, tt.target, tt.body, "application/json")
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, data)
			}
		})
	}
	if len(pub.seqs) != 0 {
		t.Errorf("rejected intents were published: %v", pub.seqs)
	}
}

func TestSavePlan(t *testing.T) {
	app, _ := newTestApp(t)
	plan := createPlan(t, app)

	resp, data := doJSON(t, app, http.MethodPost, "/plans/"+plan.Plan.ID+"/save", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("save status = %d: %s", resp.StatusCode, data)
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/plans/nope/save", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("save unknown status = %d, want 404", resp.StatusCode)
	}
}

func TestDeletePlan(t *testing.T) {
	app, _ := newTestApp(t)
	plan := createPlan(t, app)

	resp, data := doJSON(t, app, http.MethodDelete, "/plans/"+plan.Plan.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", resp.StatusCode, data)
	}
	resp, _ = doJSON(t, app, http.MethodGet, "/plans/"+plan.Plan.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodDelete, "/plans/"+plan.Plan.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

const importDoc = `<svg>
  <rect id="Wall_Top" x="0" y="0" width="200" height="5"/>
  <rect id="Wall_Bottom" x="0" y="195" width="200" height="5"/>
  <rect id="Wall_Left" x="0" y="0" width="5" height="200"/>
  <rect id="Wall_Right" x="195" y="0" width="5" height="200"/>
</svg>`

func TestImportPlan(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", "cottage.svg")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		part.Write([]byte(importDoc))
		w.Close()

		resp, data := do(t, app, http.MethodPost, "/plans/import", &buf, w.FormDataContentType())
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		var out importResponse
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Plan.Name != "cottage" || out.Report.Walls != 4 || len(out.Snapshot.Rooms) != 1 {
			t.Errorf("import = %+v", out)
		}

		resp, data = do(t, app, http.MethodGet, "/plans/"+out.Plan.ID+"/source", nil, "")
		if resp.StatusCode != http.StatusOK || string(data) != importDoc {
			t.Errorf("source status = %d", resp.StatusCode)
		}
	})

	t.Run("raw body", func(t *testing.T) {
		resp, data := do(t, app, http.MethodPost, "/plans/import?name=Barn", strings.NewReader(importDoc), "image/svg+xml")
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
	})

	t.Run("no walls", func(t *testing.T) {
		resp, _ := do(t, app, http.MethodPost, "/plans/import", strings.NewReader("<svg></svg>"), "image/svg+xml")
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("empty", func(t *testing.T) {
		resp, _ := do(t, app, http.MethodPost, "/plans/import", nil, "image/svg+xml")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}
