package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estatehub/bff/internal/handler/middleware"
	"estatehub/bff/internal/service"
	"estatehub/bff/internal/upstream"
	"estatehub/bff/pkg/response"
)

var (
	ErrNoOperator = errors.New("operator not found in context")
	ErrNoSession  = errors.New("session not found in context")
)

func getOperatorFromContext(c *gin.Context) (uuid.UUID, error) {
	v, _ := c.Get(middleware.ContextKeyOperatorID)
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoOperator
	}
	return id, nil
}

func getSessionFromContext(c *gin.Context) (string, error) {
	session := c.GetString(middleware.ContextKeySession)
	if session == "" {
		return "", ErrNoSession
	}
	return session, nil
}

// respondError maps service and upstream errors onto the response envelope.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrInvalidContextKey),
		errors.Is(err, service.ErrInvalidMessage),
		errors.Is(err, service.ErrInvalidBannerEvent),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, service.ErrTooManyImages):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrBlogPostNotFound),
		errors.Is(err, service.ErrUnknownCacheSection):
		response.NotFound(c, err.Error())
	case errors.Is(err, upstream.ErrRequestFailed),
		errors.Is(err, upstream.ErrNotFound):
		response.BadGateway(c, "listings service unavailable")
	default:
		response.InternalError(c, "internal server error")
	}
}
