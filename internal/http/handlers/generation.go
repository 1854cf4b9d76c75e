package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cloudsim-backend/internal/http/response"
	"github.com/yungbote/cloudsim-backend/internal/modules/generation"
)

type GenerationStats interface {
	Enabled() bool
	Stats() generation.PipelineStats
}

type GenerationHandler struct {
	pipeline GenerationStats
}

func NewGenerationHandler(pipeline GenerationStats) *GenerationHandler {
	return &GenerationHandler{pipeline: pipeline}
}

// GET /api/generation/cache/stats
func (h *GenerationHandler) CacheStats(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"enabled": h.pipeline.Enabled(),
		"stats":   h.pipeline.Stats(),
	})
}
