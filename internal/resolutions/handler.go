package resolutions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	resolutions := rg.Group("/resolutions")
	{
		resolutions.POST("/render", h.Render)
	}
}

// Render handles POST /api/v1/resolutions/render
func (h *Handler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
		return
	}
	if req.RecordID == "" || req.EnvelopeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "record_id and envelope_id are required"})
		return
	}

	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid record_id"})
		return
	}
	envelopeID, err := uuid.Parse(req.EnvelopeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid envelope_id"})
		return
	}

	result, err := h.service.RenderResolution(c.Request.Context(), recordID, envelopeID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		case errors.Is(err, ErrRecordNotFound),
			errors.Is(err, ErrEntityNotFound),
			errors.Is(err, ErrEnvelopeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		default:
			h.logger.Error("Failed to render resolution",
				zap.String("record_id", req.RecordID),
				zap.String("envelope_id", req.EnvelopeID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"ok":      false,
				"error":   "failed to render resolution",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
