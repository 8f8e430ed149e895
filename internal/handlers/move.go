package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/voicelink/internal/voice"
)

// MoveHandler exposes single and batch voice moves.
type MoveHandler struct {
	dispatcher *voice.Dispatcher
	logger     *slog.Logger
}

// NewMoveHandler creates a MoveHandler.
func NewMoveHandler(log *slog.Logger, dispatcher *voice.Dispatcher) *MoveHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MoveHandler{
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "move")),
	}
}

// Register registers move routes.
func (h *MoveHandler) Register(e *echo.Echo) {
	e.POST("/move", h.Move)
	e.POST("/dispatch", h.Dispatch)
}

type dispatchRequest struct {
	Moves json.RawMessage `json:"moves"`
}

type dispatchResponse struct {
	OK bool `json:"ok"`
	voice.Tally
}

// Move relocates one linked user.
func (h *MoveHandler) Move(c echo.Context) error {
	var req voice.MoveRequest
	if err := decodeBody(c, &req); err != nil {
		return writeBodyError(c, err, codeMissingFields)
	}

	outcome, err := h.dispatcher.Move(c.Request().Context(), req)
	if errors.Is(err, voice.ErrMissingFields) {
		return writeError(c, http.StatusBadRequest, codeMissingFields)
	}
	switch outcome {
	case voice.OutcomeMoved:
		return writeOK(c)
	case voice.OutcomeNotLinked:
		return writeError(c, http.StatusNotFound, codeNotLinked)
	case voice.OutcomeNotInVoice:
		return writeError(c, http.StatusConflict, codeNotInVoice)
	case voice.OutcomeInvalidChannel:
		return writeError(c, http.StatusBadRequest, codeInvalidChannel)
	default:
		h.logger.Error("move error", slog.String("uuid", req.UUID), slog.Any("error", err))
		return writeError(c, http.StatusInternalServerError, codeMoveFailed)
	}
}

// Dispatch relocates a batch of users and returns the outcome tally.
func (h *MoveHandler) Dispatch(c echo.Context) error {
	var req dispatchRequest
	if err := decodeBody(c, &req); err != nil {
		return writeBodyError(c, err, codeMissingMoves)
	}
	moves, ok := parseMoves(req.Moves)
	if !ok {
		return writeError(c, http.StatusBadRequest, codeMissingMoves)
	}

	tally, err := h.dispatcher.Dispatch(c.Request().Context(), moves)
	if err != nil {
		if errors.Is(err, voice.ErrMissingMoves) {
			return writeError(c, http.StatusBadRequest, codeMissingMoves)
		}
		h.logger.Error("dispatch error", slog.Any("error", err))
		return writeError(c, http.StatusInternalServerError, codeDispatchFailed)
	}
	return c.JSON(http.StatusOK, dispatchResponse{OK: true, Tally: tally})
}

// parseMoves accepts only a non-empty JSON array. Items that are not objects
// with string fields become empty requests, which the dispatcher skips.
func parseMoves(raw json.RawMessage) ([]voice.MoveRequest, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	moves := make([]voice.MoveRequest, len(items))
	for i, item := range items {
		var m voice.MoveRequest
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		moves[i] = m
	}
	return moves, true
}
