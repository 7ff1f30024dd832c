package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DavidS48/opening-simulator/internal/book"
	"github.com/DavidS48/opening-simulator/internal/db"
)

// Handler serves stored runs and openings as JSON for external reporting
// and plotting tools. It is read-only; runs are produced by the simulator
// binary, not over HTTP.
type Handler struct {
	store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /api/runs", h.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.handleRun)
	mux.HandleFunc("GET /api/openings", h.handleOpenings)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]runView, 0, len(rows))
	for _, row := range rows {
		view, err := newRunView(row)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		views = append(views, view)
	}
	writeJSON(w, views)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	row, err := h.store.RunByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	view, err := newRunView(row)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, view)
}

func (h *Handler) handleOpenings(w http.ResponseWriter, r *http.Request) {
	source := book.Source(r.URL.Query().Get("source"))
	if source != book.SourceOnline && source != book.SourceMasters {
		http.Error(w, "source must be online or masters", http.StatusBadRequest)
		return
	}
	pos, err := book.NormalizePosition(r.URL.Query().Get("fen"))
	if err != nil {
		http.Error(w, "invalid fen", http.StatusBadRequest)
		return
	}

	rows, err := h.store.OpeningsForPosition(r.Context(), source, pos)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	moves := make([]openingView, 0, len(rows))
	for _, row := range rows {
		moves = append(moves, openingView{Move: row.Move, Weight: row.Weight})
	}
	writeJSON(w, openingsView{
		Source:   string(source),
		Position: string(pos),
		Moves:    moves,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
