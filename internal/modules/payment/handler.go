package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"divemanager/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/bookings/:id/payments", h.recordPayment)
	rg.GET("/admin/bookings/:id/payments", h.listPayments)
}

func (h *Handler) recordPayment(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment payload")
		return
	}

	b, err := h.service.RecordManualPayment(c.Request.Context(), c.GetInt64("tenant_id"), bookingID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, ErrInvalidAmount):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Payment amount must be positive")
		case errors.Is(err, ErrOverpayment):
			response.Error(c, http.StatusUnprocessableEntity, "OVERPAYMENT", "Payment exceeds the outstanding balance")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record payment")
		}
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) listPayments(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	payments, err := h.service.ListForBooking(c.Request.Context(), c.GetInt64("tenant_id"), bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payments")
		return
	}
	response.Success(c, http.StatusOK, payments)
}
