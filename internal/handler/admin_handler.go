package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estatehub/bff/internal/service"
	"estatehub/bff/pkg/response"
)

type AdminHandler struct {
	housekeeper *service.Housekeeper
	logger      *zap.Logger
}

func NewAdminHandler(housekeeper *service.Housekeeper, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		housekeeper: housekeeper,
		logger:      logger,
	}
}

type SweepRequest struct {
	Sections []string `json:"sections"`
}

type SweepResponse struct {
	Removed      map[string]int `json:"removed"`
	IdleSessions int            `json:"idle_sessions"`
}

// ListSections returns the cache namespaces that can be swept or cleared.
func (h *AdminHandler) ListSections(c *gin.Context) {
	response.Success(c, h.housekeeper.Sections())
}

// Sweep removes expired entries from the named namespaces, or all of them.
func (h *AdminHandler) Sweep(c *gin.Context) {
	userID, err := getOperatorFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req SweepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	removed, err := h.housekeeper.Sweep(c.Request.Context(), req.Sections...)
	if err != nil {
		respondError(c, err)
		return
	}
	idle := 0
	if len(req.Sections) == 0 {
		idle = h.housekeeper.SweepSessions()
	}

	h.logger.Info("cache swept by operator",
		zap.String("user_id", userID.String()),
		zap.Any("removed", removed),
		zap.Int("idle_sessions", idle),
	)
	response.Success(c, SweepResponse{Removed: removed, IdleSessions: idle})
}

// Clear removes one entry from a namespace.
func (h *AdminHandler) Clear(c *gin.Context) {
	userID, err := getOperatorFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	namespace, key := c.Param("namespace"), c.Param("key")
	if err := h.housekeeper.Clear(c.Request.Context(), namespace, key); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("cache entry cleared by operator",
		zap.String("user_id", userID.String()),
		zap.String("namespace", namespace),
		zap.String("key", key),
	)
	response.Success(c, gin.H{"cleared": true})
}
