package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/db"
	"github.com/LexiconIndonesia/data-miner-service/common/utils"
	"github.com/go-chi/chi/v5"
)

type HealthHandler struct {
	db     *db.DB
	router *chi.Mux
}

func NewHealthHandler(db *db.DB) *HealthHandler {
	h := &HealthHandler{
		db: db,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleHealthCheck)
	r.Get("/database", h.handleDatabaseHealth)

	h.router = r
	return h
}

func (h *HealthHandler) Router() *chi.Mux {
	return h.router
}

func (h *HealthHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "data-miner-service",
	}

	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *HealthHandler) handleDatabaseHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	if err := h.db.Ping(ctx); err != nil {
		response["status"] = "unhealthy"
		response["error"] = err.Error()
		utils.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	stats := h.db.Pool.Stat()
	response["database"] = map[string]interface{}{
		"total_conns": stats.TotalConns(),
		"idle_conns":  stats.IdleConns(),
		"max_conns":   stats.MaxConns(),
	}

	utils.WriteJSON(w, http.StatusOK, response)
}
