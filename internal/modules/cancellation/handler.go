package cancellation

import (
	"errors"
	"net/http"
	"strconv"

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

// RegisterPortalRoutes exposes self-service cancellation: members cancel
// their own bookings, never with a window override.
func (h *Handler) RegisterPortalRoutes(rg *gin.RouterGroup) {
	rg.POST("/portal/bookings/:id/cancel", h.cancel(false))
}

// RegisterStaffRoutes exposes admin cancellation with the override.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/bookings/:id/cancel", h.cancel(true))
}

func (h *Handler) cancel(staff bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
			return
		}

		var req CancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required")
			return
		}
		req.AllowOverride = staff
		req.InitiatedBy = c.GetString("role") + ":" + strconv.FormatInt(c.GetInt64("member_id"), 10)
		if !staff {
			req.MemberID = c.GetInt64("member_id")
		}

		tenantID := c.GetInt64("tenant_id")
		result, err := h.service.Cancel(c.Request.Context(), tenantID, bookingID, req)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			case errors.Is(err, domain.ErrInvalidStatusTransition):
				response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking can no longer be cancelled")
			case errors.Is(err, ErrCancellationWindowExpired):
				response.Error(c, http.StatusUnprocessableEntity, "WINDOW_EXPIRED", "The cancellation window for this booking has passed")
			case errors.Is(err, ErrPersistenceConflict):
				response.Error(c, http.StatusConflict, "CONFLICT", "Booking was modified concurrently, please retry")
			default:
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel booking")
			}
			return
		}

		response.Success(c, http.StatusOK, result)
	}
}
