package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/voicelink/internal/bind"
	"github.com/memohai/voicelink/internal/links"
)

// BindHandler registers pending link codes and reports link status.
type BindHandler struct {
	service *bind.Service
	links   links.Reader
	logger  *slog.Logger
}

// NewBindHandler creates a BindHandler.
func NewBindHandler(log *slog.Logger, service *bind.Service, reader links.Reader) *BindHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BindHandler{
		service: service,
		links:   reader,
		logger:  log.With(slog.String("handler", "bind")),
	}
}

// Register registers bind routes.
func (h *BindHandler) Register(e *echo.Echo) {
	e.POST("/link/register", h.RegisterCode)
	e.GET("/links/:uuid", h.Status)
}

type registerRequest struct {
	Code string `json:"code"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type linkStatusResponse struct {
	UUID   string `json:"uuid"`
	ChatID string `json:"chatId"`
}

// RegisterCode stores a pending link code issued by the game server.
func (h *BindHandler) RegisterCode(c echo.Context) error {
	var req registerRequest
	if err := decodeBody(c, &req); err != nil {
		return writeBodyError(c, err, codeMissingFields)
	}
	if _, err := h.service.Register(req.Code, req.UUID, req.Name); err != nil {
		if errors.Is(err, bind.ErrMissingFields) {
			return writeError(c, http.StatusBadRequest, codeMissingFields)
		}
		h.logger.Error("register code failed", slog.Any("error", err))
		return writeError(c, http.StatusInternalServerError, codeLinkFailed)
	}
	return writeOK(c)
}

// Status reports which chat user a uuid is linked to.
func (h *BindHandler) Status(c echo.Context) error {
	uuid := strings.TrimSpace(c.Param("uuid"))
	chatID, ok := h.links.Get(uuid)
	if uuid == "" || !ok {
		return writeError(c, http.StatusNotFound, codeNotLinked)
	}
	return c.JSON(http.StatusOK, linkStatusResponse{UUID: uuid, ChatID: chatID})
}
