package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estatehub/bff/pkg/response"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type SessionResponse struct {
	Session string `json:"session"`
}

// Create issues a visitor session id. State for it is created lazily on first use.
func (h *SessionHandler) Create(c *gin.Context) {
	response.Created(c, SessionResponse{Session: uuid.NewString()})
}
