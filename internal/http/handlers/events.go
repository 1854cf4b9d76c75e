package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/http/response"
	"github.com/yungbote/cloudsim-backend/internal/services"
)

const maxBodyBytes = 1 << 20

type EventHandler struct {
	turns services.TurnEventService
}

func NewEventHandler(turns services.TurnEventService) *EventHandler {
	return &EventHandler{turns: turns}
}

type transitionRequest struct {
	Before game.Snapshot `json:"before"`
	After  game.Snapshot `json:"after"`
}

// POST /api/games/:gameId/events/next
func (h *EventHandler) NextEvent(c *gin.Context) {
	var snap game.Snapshot
	if !bindJSON(c, &snap) {
		return
	}
	if !matchGameID(c, &snap.GameID) {
		return
	}
	out, err := h.turns.NextEvent(c.Request.Context(), snap)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"outcome": out})
}

// POST /api/games/:gameId/events/:eventId/choices/:index
func (h *EventHandler) ResolveChoice(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_choice_index", err)
		return
	}
	out, err := h.turns.ResolveChoice(c.Request.Context(), c.Param("gameId"), c.Param("eventId"), index)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": out})
}

// POST /api/games/:gameId/transitions/validate
func (h *EventHandler) ValidateTransition(c *gin.Context) {
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}
	if !matchGameID(c, &req.After.GameID) {
		return
	}
	if req.Before.GameID == "" {
		req.Before.GameID = req.After.GameID
	}
	out, err := h.turns.ValidateTransition(c.Request.Context(), req.Before, req.After)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	status := http.StatusOK
	if !out.Verdict.Valid {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"verdict": out.Verdict, "anomaly": out.Anomaly})
}

func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

// matchGameID fills an empty body game id from the path and rejects a
// mismatch.
func matchGameID(c *gin.Context, bodyID *string) bool {
	pathID := c.Param("gameId")
	if pathID == "" {
		return true
	}
	if *bodyID == "" {
		*bodyID = pathID
		return true
	}
	if *bodyID != pathID {
		response.RespondError(c, http.StatusBadRequest, "game_id_mismatch",
			fmt.Errorf("body gameId %q does not match path %q", *bodyID, pathID))
		return false
	}
	return true
}
