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

type IntegrityHandler struct {
	integrity services.IntegrityService
}

func NewIntegrityHandler(integrity services.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{integrity: integrity}
}

type verifyRequest struct {
	Snapshot game.Snapshot `json:"snapshot"`
	Hash     string        `json:"hash" binding:"required"`
}

// POST /api/snapshots/validate
func (h *IntegrityHandler) ValidateSnapshot(c *gin.Context) {
	var snap game.Snapshot
	if !bindJSON(c, &snap) {
		return
	}
	v := h.integrity.ValidateSnapshot(c.Request.Context(), snap)
	status := http.StatusOK
	if !v.Valid {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"verdict": v})
}

// POST /api/snapshots/hash
func (h *IntegrityHandler) Hash(c *gin.Context) {
	var snap game.Snapshot
	if !bindJSON(c, &snap) {
		return
	}
	sum, err := h.integrity.ComputeHash(c.Request.Context(), snap)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"hash": sum})
}

// POST /api/snapshots/verify
func (h *IntegrityHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	ok, err := h.integrity.VerifyHash(c.Request.Context(), req.Snapshot, req.Hash)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"valid": ok})
}

// GET /api/games/:gameId/anomaly
func (h *IntegrityHandler) Anomaly(c *gin.Context) {
	response.RespondOK(c, gin.H{"report": h.integrity.Report(c.Request.Context(), c.Param("gameId"))})
}

// GET /api/games/:gameId/incidents?limit=
func (h *IntegrityHandler) Incidents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n <= 0 {
			err = fmt.Errorf("limit must be positive, got %d", n)
		}
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	list, err := h.integrity.Incidents(c.Request.Context(), c.Param("gameId"), limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "incidents_unavailable", err)
		return
	}
	response.RespondOK(c, gin.H{"incidents": list})
}
