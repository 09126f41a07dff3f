package handler

import (
	"github.com/gin-gonic/gin"

	"estatehub/bff/internal/service"
	"estatehub/bff/pkg/response"
)

type BannerHandler struct {
	banners service.BannerService
}

func NewBannerHandler(banners service.BannerService) *BannerHandler {
	return &BannerHandler{banners: banners}
}

type BannerEventRequest struct {
	Event string `json:"event" binding:"required,oneof=impression click"`
}

func (h *BannerHandler) List(c *gin.Context) {
	banners, err := h.banners.List(c.Request.Context(), c.Query("placement"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, banners)
}

// RecordEvent forwards an impression or click once per session.
func (h *BannerHandler) RecordEvent(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req BannerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	recorded, err := h.banners.RecordEvent(c.Request.Context(), session, c.Param("id"), req.Event)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"recorded": recorded})
}
