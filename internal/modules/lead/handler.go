package lead

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"divemanager/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.capture)
}

func (h *Handler) capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "A valid email is required")
		return
	}

	l, err := h.service.Capture(c.Request.Context(), c.GetInt64("tenant_id"), req)
	if err != nil {
		if errors.Is(err, ErrAlreadyCaptured) {
			// don't leak whether an email is known; answer as if captured
			response.Success(c, http.StatusOK, gin.H{"captured": true})
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to capture lead")
		return
	}
	response.Success(c, http.StatusCreated, l)
}
