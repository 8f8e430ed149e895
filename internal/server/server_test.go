package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/memohai/voicelink/internal/logger"
)

type pingHandler struct{}

func (pingHandler) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/boom", func(echo.Context) error { panic("kaboom") })
	e.POST("/echo", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
}

func serve(s *Server, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerHealthSkipsAuth(t *testing.T) {
	t.Parallel()

	s := NewServer(logger.Discard(), ":0", "s3cret", pingHandler{})
	rec := serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestServerRequiresBearer(t *testing.T) {
	t.Parallel()

	s := NewServer(logger.Discard(), ":0", "s3cret", pingHandler{})
	rec := serve(s, http.MethodPost, "/boom", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServerRecoversPanics(t *testing.T) {
	t.Parallel()

	s := NewServer(logger.Discard(), ":0", "s3cret", pingHandler{})
	rec := serve(s, http.MethodPost, "/boom", "Bearer s3cret")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, rec.Body.String())
}

func TestServerRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	s := NewServer(logger.Discard(), ":0", "s3cret", pingHandler{})
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 65*1024)))
	req.Header.Set(echo.HeaderAuthorization, "Bearer s3cret")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"payload_too_large"}`, rec.Body.String())

	rec = serve(s, http.MethodPost, "/echo", "Bearer s3cret")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
