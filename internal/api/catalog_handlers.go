package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Catalog listing handlers. The tables are immutable, so these are plain
// reads with no filtering or pagination.

// handleListGPUs lists the known GPU profiles
func (s *Server) handleListGPUs(c *gin.Context) {
	gpus := s.catalog.GPUs()
	c.JSON(http.StatusOK, gin.H{
		"gpus":  gpus,
		"count": len(gpus),
	})
}

// handleListPrecisions lists the precision table
func (s *Server) handleListPrecisions(c *gin.Context) {
	precisions := s.catalog.Precisions()
	c.JSON(http.StatusOK, gin.H{
		"precisions": precisions,
		"count":      len(precisions),
	})
}

// handleListMethods lists the fine-tuning method profiles
func (s *Server) handleListMethods(c *gin.Context) {
	methods := s.catalog.Methods()
	c.JSON(http.StatusOK, gin.H{
		"methods": methods,
		"count":   len(methods),
	})
}

// handleListArchitectures lists the parameter-count buckets
func (s *Server) handleListArchitectures(c *gin.Context) {
	architectures := s.catalog.Architectures()
	c.JSON(http.StatusOK, gin.H{
		"architectures": architectures,
		"count":         len(architectures),
	})
}

// handleListModels lists the registered model presets
func (s *Server) handleListModels(c *gin.Context) {
	presets := s.presets.All()
	c.JSON(http.StatusOK, gin.H{
		"models": presets,
		"count":  len(presets),
	})
}

// handleGetModel returns a single model preset by id
func (s *Server) handleGetModel(c *gin.Context) {
	id := c.Param("id")

	preset, ok := s.presets.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     fmt.Sprintf("model preset not found: %s", id),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	c.JSON(http.StatusOK, preset)
}
