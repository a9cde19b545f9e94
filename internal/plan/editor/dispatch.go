package editor

import (
	"encoding/json"
	"fmt"

	"floorplan/internal/plan/models"
	"floorplan/internal/plan/protocol"
)

// ============================================================
// Intent dispatch
// ============================================================

// Apply decodes one intent, runs it and recomputes rooms when the graph
// changed. Intents that reference missing entities succeed without effect;
// only malformed envelopes and non-finite coordinates are rejected.
func (e *Editor) Apply(sess protocol.Session, env protocol.IntentEnvelope) (protocol.Session, error) {
	sess = e.sanitize(sess)

	changed := false
	switch env.Type {
	case protocol.IntentDrawPoint:
		var req protocol.RequestDrawPoint
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X, req.Y); err != nil {
			return sess, err
		}
		sess, changed = e.DrawPoint(sess, models.Point{X: req.X, Y: req.Y})

	case protocol.IntentEndDrawing:
		sess = e.EndDrawing(sess)

	case protocol.IntentDrawRectangle:
		var req protocol.RequestDrawRectangle
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X1, req.Y1, req.X2, req.Y2); err != nil {
			return sess, err
		}
		changed = e.DrawRectangle(models.Point{X: req.X1, Y: req.Y1}, models.Point{X: req.X2, Y: req.Y2})

	case protocol.IntentMoveCorner:
		var req protocol.RequestMoveCorner
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X, req.Y); err != nil {
			return sess, err
		}
		sess, changed = e.MoveCorner(sess, req.CornerID, models.Point{X: req.X, Y: req.Y})

	case protocol.IntentDeleteCorner:
		var req protocol.RequestDeleteCorner
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		changed = e.store.DeleteCorner(req.CornerID)

	case protocol.IntentDeleteWall:
		var req protocol.RequestDeleteWall
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		changed = e.store.DeleteWall(req.WallID)

	case protocol.IntentSplitWall:
		var req protocol.RequestSplitWall
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X, req.Y); err != nil {
			return sess, err
		}
		changed = e.SplitWall(req.WallID, models.Point{X: req.X, Y: req.Y})

	case protocol.IntentUpdateWall:
		var req protocol.RequestUpdateWall
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.Thickness, req.Height); err != nil {
			return sess, err
		}
		changed = e.UpdateWall(req)

	case protocol.IntentPlaceOpening:
		var req protocol.RequestPlaceOpening
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X, req.Y, req.Width, req.Height); err != nil {
			return sess, err
		}
		if o, ok := e.PlaceOpening(req); ok {
			sess.Selection = []string{o.ID}
			changed = true
		}

	case protocol.IntentMoveOpening:
		var req protocol.RequestMoveOpening
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X, req.Y); err != nil {
			return sess, err
		}
		changed = e.MoveOpening(req.OpeningID, models.Point{X: req.X, Y: req.Y})

	case protocol.IntentDeleteOpening:
		var req protocol.RequestDeleteOpening
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		changed = e.store.DeleteOpening(req.OpeningID)

	case protocol.IntentSelectBox:
		var req protocol.RequestSelectBox
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		if err := checkFinite(req.X1, req.Y1, req.X2, req.Y2); err != nil {
			return sess, err
		}
		sess = e.SelectBox(sess, models.Point{X: req.X1, Y: req.Y1}, models.Point{X: req.X2, Y: req.Y2})

	case protocol.IntentDeleteSelection:
		sess, changed = e.DeleteSelection(sess)

	case protocol.IntentRenameRoom:
		var req protocol.RequestRenameRoom
		if err := decode(env, &req); err != nil {
			return sess, err
		}
		e.RenameRoom(req.RoomID, req.Name, models.RoomType(req.Type))

	default:
		return sess, fmt.Errorf("%w: %q", ErrUnknownIntent, env.Type)
	}

	if changed {
		e.Recompute()
	}
	return sess, nil
}

func decode(env protocol.IntentEnvelope, v any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
	}
	return nil
}
