package settings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/settings/cancellation-policy", h.getPolicy)
	rg.PUT("/admin/settings/cancellation-policy", h.updatePolicy)
}

func (h *Handler) getPolicy(c *gin.Context) {
	policy, err := h.service.GetCancellationPolicy(c.Request.Context(), c.GetInt64("tenant_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load cancellation policy")
		return
	}
	response.Success(c, http.StatusOK, policy)
}

func (h *Handler) updatePolicy(c *gin.Context) {
	var policy domain.CancellationPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid policy payload")
		return
	}

	if err := h.service.UpdateCancellationPolicy(c.Request.Context(), c.GetInt64("tenant_id"), policy); err != nil {
		if errors.Is(err, ErrInvalidPolicy) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update cancellation policy")
		return
	}
	response.Success(c, http.StatusOK, policy)
}
