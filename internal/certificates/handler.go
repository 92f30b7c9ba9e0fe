package certificates

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
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
	certificates := rg.Group("/certificates")
	{
		certificates.GET("", h.Issue)
		certificates.POST("", h.Issue)
	}
}

// Issue handles GET and POST /api/v1/certificates
func (h *Handler) Issue(c *gin.Context) {
	var req CertificateRequest
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"ok":      false,
				"error":   "BAD_JSON",
				"message": "request body must be a JSON object",
			})
			return
		}
	} else if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":      false,
			"error":   "BAD_QUERY",
			"message": err.Error(),
		})
		return
	}

	cert, err := h.service.IssueCertificate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.FileName))
	c.Data(http.StatusOK, "application/pdf", cert.PDF)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var resolveErr *ResolutionError
	switch {
	case errors.Is(err, ErrMissingIdentifier):
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":      false,
			"error":   "MISSING_IDENTIFIER",
			"message": "provide hash, envelope_id, or ledger_id",
		})
	case errors.As(err, &resolveErr):
		status := http.StatusBadRequest
		if resolveErr.NotRegistered() {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"ok":      false,
			"error":   resolveErr.Code,
			"message": "record resolution failed",
			"details": resolveErr.Payload,
		})
	case errors.Is(err, ErrResolverRPC):
		h.logger.Error("Certificate resolver call failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":      false,
			"error":   "RESOLVER_RPC_FAILED",
			"message": "record resolution is unavailable",
			"details": err.Error(),
		})
	default:
		h.logger.Error("Failed to issue certificate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":      false,
			"error":   "CERTIFICATE_FAILED",
			"message": "failed to issue certificate",
			"details": err.Error(),
		})
	}
}
