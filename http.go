package domedit

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/drag"
)

// Router returns the HTTP control surface. It moves plain data structures
// only: change sets and pointer events in, reports and rendered HTML out.
// The presentation layer that renders change lists and preview toggles
// lives elsewhere and talks to these endpoints.
func (e *Editor) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/document", e.handleDocument)
	r.Post("/changes/apply", e.handleApply)
	r.Post("/changes/revert/{variant}", e.handleRevert)

	r.Get("/preview", e.handlePreviewStatus)
	r.Put("/preview/{variant}", e.handleSetPreview)
	r.Delete("/preview", e.handleClearPreview)

	r.Post("/drag/begin", e.handleDragBegin)
	r.Post("/drag/move", e.handleDragMove)
	r.Post("/drag/drop", e.handleDragDrop)
	r.Post("/drag/cancel", e.handleDragCancel)

	return r
}

func (e *Editor) handleDocument(w http.ResponseWriter, _ *http.Request) {
	out, err := e.HTML()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

func (e *Editor) handleApply(w http.ResponseWriter, r *http.Request) {
	set, ok := decodeSet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.ApplySet(r.Context(), set))
}

func (e *Editor) handleRevert(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	writeJSON(w, http.StatusOK, e.RevertSet(r.Context(), variant))
}

func (e *Editor) handlePreviewStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"active": e.ActivePreview()})
}

func (e *Editor) handleSetPreview(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	var set change.Set
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
		return
	}
	if set.Variant == "" {
		set.Variant = variant
	}
	if err := set.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, e.SetPreview(r.Context(), variant, &set))
}

func (e *Editor) handleClearPreview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, e.ClearPreview(r.Context()))
}

func (e *Editor) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selector string `json:"selector"`
		drag.PointerEvent
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
		return
	}
	nodes, err := e.doc.QueryAll(req.Selector)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(nodes) != 1 {
		writeError(w, http.StatusNotFound,
			fmt.Errorf("selector %q matched %d elements, want 1", req.Selector, len(nodes)))
		return
	}
	if err := e.drag.Begin(nodes[0], req.PointerEvent); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dragging"})
}

func (e *Editor) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var ev drag.PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
		return
	}
	e.drag.Move(ev)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (e *Editor) handleDragDrop(w http.ResponseWriter, r *http.Request) {
	var ev drag.PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
		return
	}
	if err := e.drag.Drop(ev); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (e *Editor) handleDragCancel(w http.ResponseWriter, _ *http.Request) {
	e.drag.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func decodeSet(w http.ResponseWriter, r *http.Request) (*change.Set, bool) {
	var set change.Set
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
		return nil, false
	}
	if err := set.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return &set, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
