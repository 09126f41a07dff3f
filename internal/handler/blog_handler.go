package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estatehub/bff/internal/service"
	"estatehub/bff/pkg/response"
)

type BlogHandler struct {
	blog service.BlogService
}

func NewBlogHandler(blog service.BlogService) *BlogHandler {
	return &BlogHandler{blog: blog}
}

func (h *BlogHandler) List(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "page must be a positive integer")
			return
		}
		page = n
	}

	posts, err := h.blog.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, posts)
}

func (h *BlogHandler) Get(c *gin.Context) {
	post, err := h.blog.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, post)
}

// Feed serves the latest posts as RSS.
func (h *BlogHandler) Feed(c *gin.Context) {
	rss, err := h.blog.Feed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
