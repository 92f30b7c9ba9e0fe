package registry

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for registry reads
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new registry handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers registry routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	registry := router.Group("/registry")
	{
		registry.GET("", h.listRecords)
		registry.GET("/export", h.exportRecords)
		registry.GET("/:id", h.getRecord)
		registry.GET("/:id/download-url", h.getDownloadURL)
	}
}

// listRecords handles GET /api/v1/registry
func (h *Handler) listRecords(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	filter.Page = h.getIntParam(c, "page", 1)
	filter.PageSize = h.getIntParam(c, "page_size", 0)

	result, err := h.service.ListRecords(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list verified records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getRecord handles GET /api/v1/registry/:id
func (h *Handler) getRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid record id"})
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
			return
		}
		h.logger.Error("Failed to get verified record", zap.Error(err), zap.String("record_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "record": record})
}

// getDownloadURL handles GET /api/v1/registry/:id/download-url
func (h *Handler) getDownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid record id"})
		return
	}

	result, err := h.service.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrNoArchivedObject):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		default:
			h.logger.Error("Failed to presign download URL", zap.Error(err), zap.String("record_id", id.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// exportRecords handles GET /api/v1/registry/export
func (h *Handler) exportRecords(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	format := ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.service.ExportRecords(c.Request.Context(), filter, format)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "INVALID_FORMAT", "message": err.Error()})
			return
		}
		h.logger.Error("Failed to export registry", zap.Error(err), zap.String("format", string(format)))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// parseFilter reads the shared lane, entity and level filters. Responds
// with a 400 and returns false when the lane value is unknown.
func (h *Handler) parseFilter(c *gin.Context) (ListFilter, bool) {
	var filter ListFilter

	if lane := c.Query("lane"); lane != "" {
		if !IsValidLane(lane) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid lane"})
			return filter, false
		}
		filter.Lane = lane
	}

	if entityID := c.Query("entity_id"); entityID != "" {
		if id, err := uuid.Parse(entityID); err == nil {
			filter.EntityID = &id
		}
	}

	if level := c.Query("verification_level"); level != "" {
		filter.VerificationLevel = level
	}

	return filter, true
}

// getIntParam gets an integer query parameter with a default value
func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
