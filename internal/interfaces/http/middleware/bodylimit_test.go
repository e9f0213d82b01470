package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newBodyLimitEngine(maxBytes int64) *gin.Engine {
	engine := gin.New()
	engine.Use(BodyLimit(maxBytes))
	engine.POST("/echo", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func TestBodyLimit(t *testing.T) {
	t.Run("allows small body", func(t *testing.T) {
		engine := newBodyLimitEngine(64)

		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small"))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		engine := newBodyLimitEngine(8)

		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_BAD_REQUEST")
	})
}
