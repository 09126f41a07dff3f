package handler

import (
	"github.com/gin-gonic/gin"

	"estatehub/bff/internal/service"
	"estatehub/bff/pkg/response"
)

type GalleryHandler struct {
	gallery service.GalleryService
}

func NewGalleryHandler(gallery service.GalleryService) *GalleryHandler {
	return &GalleryHandler{gallery: gallery}
}

type FocusRequest struct {
	ListingID string   `json:"listing_id" binding:"required"`
	Images    []string `json:"images" binding:"required,min=1"`
	Center    int      `json:"center" binding:"min=0"`
}

type PreloadRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

// Focus moves the session's gallery viewer and warms the images around it.
func (h *GalleryHandler) Focus(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req FocusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	focus, err := h.gallery.Focus(session, req.ListingID, req.Images, req.Center)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, focus)
}

// Preload warms a batch of images and waits for every load to settle.
func (h *GalleryHandler) Preload(c *gin.Context) {
	var req PreloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	statuses, err := h.gallery.Preload(c.Request.Context(), req.URLs)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, statuses)
}

func (h *GalleryHandler) Status(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		response.BadRequest(c, "url is required")
		return
	}
	response.Success(c, h.gallery.Status(url))
}
