// Package api exposes a read-only HTTP status surface over the live
// registries: game listings, per-game snapshots and the archive of
// finished games. Snapshots are obtained through the workers' query
// channels, never by touching their state directly.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/registry"
	"github.com/mkrato/battleship-server/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	ServerName string
	Games      *registry.GameRegistry
	Storage    storage.Storage
}

// NewRouter creates the status API router
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(Recovery(cfg.Logger))
	api.Use(Logging(cfg.Logger))

	h := &handler{cfg: cfg}

	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/games", h.listGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{name}", h.getGame).Methods(http.MethodGet)
	api.HandleFunc("/history", h.history).Methods(http.MethodGet)

	return r
}

type handler struct {
	cfg RouterConfig
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": h.cfg.ServerName,
	})
}

func (h *handler) listGames(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.cfg.Games.Games(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}

	stateFilter := r.URL.Query().Get("state")
	result := make([]GameSummary, 0, len(summaries))
	for _, s := range summaries {
		if stateFilter != "" && string(s.State) != stateFilter {
			continue
		}
		result = append(result, GameSummaryFromRegistry(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": result})
}

func (h *handler) getGame(w http.ResponseWriter, r *http.Request) {
	name := model.GameName(mux.Vars(r)["name"])

	sess, err := h.cfg.Games.Lookup(r.Context(), name)
	if err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}

	view, err := sess.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	writeJSON(w, http.StatusOK, GameDetailFromView(view))
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	records, err := h.cfg.Storage.ListGameRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	result := make([]GameRecord, 0, len(records))
	for _, record := range records {
		result = append(result, GameRecordFromModel(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": result})
}
