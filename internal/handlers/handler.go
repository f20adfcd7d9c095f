package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
)

// HealthHandler reports service liveness and backing store health
type HealthHandler struct {
	redisClient *redis.Client
	db          *sqlx.DB
	logger      primary.Logger
}

// NewHealthHandler creates a new health handler. Either store may be
// nil when the deployment does not use it.
func NewHealthHandler(redisClient *redis.Client, db *sqlx.DB, logger primary.Logger) *HealthHandler {
	return &HealthHandler{
		redisClient: redisClient,
		db:          db,
		logger:      logger,
	}
}

// RegisterRoutes registers the API routes for HealthHandler
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/health", h.GetHealth).Methods("GET")
}

// GetHealth handles health check requests
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	healthy := true

	if h.redisClient != nil {
		if err := h.redisClient.Ping(r.Context()).Err(); err != nil {
			h.logger.Error("Redis health check failed", "error", err)
			components["redis"] = "unavailable"
			healthy = false
		} else {
			components["redis"] = "ok"
		}
	}

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Error("Postgres health check failed", "error", err)
			components["postgres"] = "unavailable"
			healthy = false
		} else {
			components["postgres"] = "ok"
		}
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"components": components,
	})
}
