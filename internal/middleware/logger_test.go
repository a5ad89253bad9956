package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/middleware"
)

func requestIDRouter(captured *string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) {
		*captured = c.GetString(middleware.ContextKeyRequestID)
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequestID_MintsOneWhenMissing(t *testing.T) {
	var captured string
	r := requestIDRouter(&captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	header := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, header)
	_, err := uuid.Parse(header)
	assert.NoError(t, err)
	assert.Equal(t, header, captured)
}

func TestRequestID_EchoesClientProvidedID(t *testing.T) {
	var captured string
	r := requestIDRouter(&captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "client-id-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "client-id-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "client-id-42", captured)
}
