package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"word-arena/internal/game"
	"word-arena/internal/game/spatial"
	"word-arena/internal/spawn"
)

const (
	defaultEventLimit = 100
	maxWordLength     = 32
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":   stats.State,
		"running": stats.Running,
		"paused":  stats.Paused,
	})
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"engine": h.engine.Stats(),
	}
	if h.events != nil {
		resp["events"] = h.events.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListObjects serves the latest snapshot's objects. With x, y, w and h
// query parameters it returns only the objects intersecting that rectangle.
func (h *routerHandlers) handleListObjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("w") && !q.Has("h") {
		writeJSON(w, http.StatusOK, h.engine.Snapshot().Objects)
		return
	}

	rect, err := parseRect(q.Get("x"), q.Get("y"), q.Get("w"), q.Get("h"))
	if err != nil {
		writeError(w, "Invalid query rectangle", http.StatusBadRequest)
		return
	}

	found := h.engine.QueryRange(rect)
	out := make([]game.ObjectSnapshot, 0, len(found))
	for i := range found {
		out = append(out, found[i].Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func parseRect(xs, ys, ws, hs string) (spatial.Rect, error) {
	var vals [4]float64
	for i, s := range []string{xs, ys, ws, hs} {
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return spatial.Rect{}, err
		}
		vals[i] = v
	}
	return spatial.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func (h *routerHandlers) handleGetObject(w http.ResponseWriter, r *http.Request) {
	obj, ok := h.engine.GetObject(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Object not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, obj.Snapshot())
}

type createObjectRequest struct {
	ID     string          `json:"id"`
	Type   game.ObjectType `json:"type"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	VX     float64         `json:"vx"`
	VY     float64         `json:"vy"`
}

func (h *routerHandlers) handleCreateObject(w http.ResponseWriter, r *http.Request) {
	var req createObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !req.Type.Valid() {
		writeError(w, "Unknown object type", http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, "Width and height must be positive", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	obj := h.engine.NewObject(req.ID, req.Type, req.X, req.Y, req.Width, req.Height)
	obj.Velocity = game.Vec2{X: req.VX, Y: req.VY}
	snap := obj.Snapshot()

	if err := h.engine.TryAddObject(obj); err != nil {
		h.engine.ReleaseObject(obj)
		switch {
		case errors.Is(err, game.ErrDuplicateObject):
			writeError(w, "Object already exists", http.StatusConflict)
		case errors.Is(err, game.ErrObjectLimit):
			writeError(w, "Object limit reached", http.StatusServiceUnavailable)
		default:
			writeError(w, "Invalid object", http.StatusBadRequest)
		}
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *routerHandlers) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	if !h.engine.RemoveObject(chi.URLParam(r, "id")) {
		writeError(w, "Object not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *routerHandlers) handleEngineAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	switch action {
	case "start":
		h.engine.Start()
	case "pause":
		h.engine.Pause()
	case "resume":
		h.engine.Resume()
	case "stop":
		h.engine.Stop()
	case "gameover":
		h.engine.GameOver()
	default:
		writeError(w, "Unknown action", http.StatusNotFound)
		return
	}

	state := h.engine.Stats().State
	log.Printf("🎮 Engine %s requested via API, state now %s", action, state)
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.events.Recent(limit))
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.frames.EncodePNG(w); err != nil {
		log.Printf("❌ Frame encode failed: %v", err)
	}
}

func (h *routerHandlers) handleEnqueueWord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	word := strings.TrimSpace(req.Word)
	if word == "" || len(word) > maxWordLength {
		writeError(w, "Word must be 1-32 bytes", http.StatusBadRequest)
		return
	}

	if !h.words.Enqueue(spawn.Request{Word: word, Source: GetClientIP(r)}) {
		writeError(w, "Spawn queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}
