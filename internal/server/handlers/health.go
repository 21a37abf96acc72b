package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IndexStatus reports whether the knowledge index has been loaded.
type IndexStatus interface {
	Ready() bool
}

type HealthHandler struct {
	logger    *zap.Logger
	index     IndexStatus
	startTime time.Time
}

// NewHealthHandler takes a nil index when retrieval is disabled.
func NewHealthHandler(logger *zap.Logger, index IndexStatus) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		index:     index,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness stays 200 while the index is still building: predictions are
// served without retrieved context until it is ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
		Index:  "disabled",
	}

	if h.index != nil {
		resp.Index = "ready"
		if !h.index.Ready() {
			resp.Status = "degraded"
			resp.Index = "building"
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Health touches neither the index nor the model.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
