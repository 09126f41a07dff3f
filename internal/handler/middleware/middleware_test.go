package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	jwtpkg "estatehub/bff/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, bad := range []string{"", "Bearer", "Bearer ", "Basic abc", "bearer abc"} {
		_, ok := bearerToken(bad)
		assert.False(t, ok, bad)
	}
}

func TestAdminChain(t *testing.T) {
	m := jwtpkg.NewManager("k", "iss", time.Hour)
	admin := uuid.New()

	r := gin.New()
	r.GET("/x", JWTAuth(m), AdminAuth([]string{admin.String(), "not-a-uuid"}), func(c *gin.Context) {
		id, _ := c.Get(ContextKeyOperatorID)
		c.String(http.StatusOK, id.(uuid.UUID).String())
	})

	call := func(id uuid.UUID) *httptest.ResponseRecorder {
		tok, err := m.GenerateAdminToken(id)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		return serve(r, req)
	}

	w := call(admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, admin.String(), w.Body.String())

	assert.Equal(t, http.StatusForbidden, call(uuid.New()).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestSession(t *testing.T) {
	r := gin.New()
	r.GET("/s/:session", Session(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeySession))
	})

	id := uuid.New()
	w := serve(r, httptest.NewRequest(http.MethodGet, "/s/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/s/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(logger), Recovery(logger))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zap.ErrorLevel, requests[0].Level)
	assert.Equal(t, zap.InfoLevel, requests[1].Level)
	assert.Equal(t, "/ok", requests[1].ContextMap()["route"])
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "buckets are per client")

	now = now.Add(time.Hour)
	assert.Equal(t, 2, rl.Sweep(time.Minute))
}
