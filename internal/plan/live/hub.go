// Package live streams plan edits over websockets. Each connection sends
// intent envelopes and receives patch envelopes; every accepted edit is
// broadcast as a snapshot patch to all connections on the same plan.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
	"floorplan/internal/plan/service"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 3 * time.Second

// ============================================================
// Hub
// ============================================================

type channel struct {
	clients map[*websocket.Conn]struct{}
	lastSeq uint64
}

type Hub struct {
	mu       sync.Mutex
	plans    *service.Plans
	channels map[string]*channel
}

func NewHub(plans *service.Plans) *Hub {
	return &Hub{
		plans:    plans,
		channels: make(map[string]*channel),
	}
}

// Handler serves GET /plans/{id}/live.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /plans/{id}/live", h.serveLive)
	return mux
}

// join sends the current snapshot and session to conn and registers it.
// Both happen under the hub lock, so every later Publish reaches the client
// and none can slip in between the snapshot and the registration.
func (h *Hub) join(planID string, conn *websocket.Conn, op *service.OpenPlan, sess protocol.Session) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, seq := op.Snapshot()
	hello := []protocol.PatchEnvelope{
		{Sequence: seq, Type: protocol.PatchSnapshot, Payload: protocol.SnapshotChanged{PlanID: planID, Snapshot: snap}},
		{Sequence: seq, Type: protocol.PatchSession, Payload: protocol.SessionChanged{Session: sess}},
	}
	for _, env := range hello {
		if err := send(conn, env); err != nil {
			return seq, err
		}
	}
	h.addLocked(planID, conn, seq)
	return seq, nil
}

func (h *Hub) addLocked(planID string, conn *websocket.Conn, seq uint64) {
	ch, ok := h.channels[planID]
	if !ok {
		ch = &channel{clients: make(map[*websocket.Conn]struct{})}
		h.channels[planID] = ch
	}
	ch.clients[conn] = struct{}{}
	ch.lastSeq = max(ch.lastSeq, seq)
}

func (h *Hub) remove(planID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[planID]
	if !ok {
		return
	}
	delete(ch.clients, conn)
	if len(ch.clients) == 0 {
		delete(h.channels, planID)
	}
}

// Clients returns the number of connections following a plan.
func (h *Hub) Clients(planID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.channels[planID]; ok {
		return len(ch.clients)
	}
	return 0
}

// Publish broadcasts a snapshot patch to every client of the plan. Patches
// older than the last one sent are dropped so clients only see sequence
// numbers increase.
func (h *Hub) Publish(planID string, snap models.Snapshot, seq uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[planID]
	if !ok || seq <= ch.lastSeq {
		return
	}
	ch.lastSeq = seq

	env := protocol.PatchEnvelope{
		Sequence: seq,
		Type:     protocol.PatchSnapshot,
		Payload:  protocol.SnapshotChanged{PlanID: planID, Snapshot: snap},
	}
	for conn := range ch.clients {
		if err := send(conn, env); err != nil {
			log.Printf("[LIVE] dropping client on %s: %v", planID, err)
			_ = conn.Close(websocket.StatusNormalClosure, "")
			delete(ch.clients, conn)
		}
	}
}

// ============================================================
// Connection loop
// ============================================================

func (h *Hub) serveLive(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("id")
	op, err := h.plans.Get(r.Context(), planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Printf("[LIVE] load %s: %v", planID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("[LIVE] accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var sess protocol.Session
	seq, err := h.join(planID, conn, op, sess)
	if err != nil {
		return
	}
	defer h.remove(planID, conn)
	log.Printf("[LIVE] client joined %s", planID)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				log.Printf("[LIVE] read on %s: %v", planID, err)
			}
			return
		}

		var env protocol.IntentEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.reject(conn, seq, "", err)
			continue
		}

		next, snap, applied, err := op.Apply(sess, env)
		if err != nil {
			h.reject(conn, applied, env.Type, err)
			continue
		}
		sess, seq = next, applied

		if err := send(conn, protocol.PatchEnvelope{
			Sequence: seq,
			Type:     protocol.PatchSession,
			Payload:  protocol.SessionChanged{Session: sess},
		}); err != nil {
			return
		}
		h.Publish(planID, snap, seq)
	}
}

func (h *Hub) reject(conn *websocket.Conn, seq uint64, intent string, err error) {
	_ = send(conn, protocol.PatchEnvelope{
		Sequence: seq,
		Type:     protocol.PatchError,
		Payload:  protocol.IntentRejected{Intent: intent, Error: err.Error()},
	})
}

func send(conn *websocket.Conn, env protocol.PatchEnvelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, env)
}
