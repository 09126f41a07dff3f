package handler

import (
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"estatehub/bff/internal/service"
	"estatehub/bff/internal/state"
	"estatehub/bff/pkg/response"
)

const sseHeartbeat = 25 * time.Second

type ContactHandler struct {
	contacts service.ContactService
}

func NewContactHandler(contacts service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

type RevealPhoneRequest struct {
	Context string `json:"context" binding:"required"`
}

type SendMessageRequest struct {
	Context string `json:"context" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

// State binds the session's contact slot to ?context= and returns its value.
func (h *ContactHandler) State(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	st, err := h.contacts.State(c.Request.Context(), session, c.Query("context"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, st)
}

// Events streams the session's contact state as server-sent events until the
// client goes away. Only the newest state is delivered to a slow reader.
func (h *ContactHandler) Events(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var (
		mu     sync.Mutex
		latest state.ContactState
	)
	signal := make(chan struct{}, 1)
	push := func(s state.ContactState) {
		mu.Lock()
		latest = s
		mu.Unlock()
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	initial, stop, err := h.contacts.Watch(session, c.Query("context"), push)
	if err != nil {
		respondError(c, err)
		return
	}
	defer stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", initial)
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", "")
			return true
		case <-signal:
			mu.Lock()
			s := latest
			mu.Unlock()
			c.SSEvent("state", s)
			return true
		}
	})
}

// RevealPhone returns the phone numbers for a listing or project, serving a
// cached copy when one is fresh.
func (h *ContactHandler) RevealPhone(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req RevealPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	numbers, err := h.contacts.RevealPhone(c.Request.Context(), session, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, numbers)
}

func (h *ContactHandler) SendMessage(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	err = h.contacts.SendMessage(c.Request.Context(), session, service.ContactMessageInput{
		ContextKey: req.Context,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Body:       req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"message_sent": true})
}
