package booking

import (
	"context"
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

// RegisterStaffRoutes wires the staff-facing lifecycle endpoints.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/bookings", h.create)
	rg.GET("/admin/bookings/:id", h.getByID)
	rg.POST("/admin/bookings/:id/check-in", h.transition(h.service.CheckIn))
	rg.POST("/admin/bookings/:id/complete", h.transition(h.service.Complete))
	rg.POST("/admin/bookings/:id/no-show", h.transition(h.service.MarkNoShow))
}

// RegisterPortalRoutes exposes read-only booking lookup to members.
// Members only ever see their own bookings.
func (h *Handler) RegisterPortalRoutes(rg *gin.RouterGroup) {
	rg.GET("/portal/bookings/:id", h.getOwnByID)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking payload")
		return
	}

	b, err := h.service.Create(c.Request.Context(), c.GetInt64("tenant_id"), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, ErrDuplicateNumber):
			response.Error(c, http.StatusConflict, "DUPLICATE", "Booking number already taken")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
		}
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), c.GetInt64("tenant_id"), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) getOwnByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), c.GetInt64("tenant_id"), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	// A booking owned by someone else looks like a missing one.
	if b.MemberID != c.GetInt64("member_id") {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) transition(op func(ctx context.Context, tenantID, id int64) (*domain.Booking, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
			return
		}

		b, err := op(c.Request.Context(), c.GetInt64("tenant_id"), id)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			case errors.Is(err, domain.ErrInvalidStatusTransition):
				response.Error(c, http.StatusConflict, "INVALID_STATE", "Transition not allowed from the current status")
			case errors.Is(err, domain.ErrCheckInNotToday):
				response.Error(c, http.StatusUnprocessableEntity, "NOT_TODAY", "Check-in is only allowed on the booking date")
			case errors.Is(err, domain.ErrBookingNotStarted):
				response.Error(c, http.StatusUnprocessableEntity, "NOT_STARTED", "Booking date has not passed yet")
			default:
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update booking")
			}
			return
		}
		response.Success(c, http.StatusOK, b)
	}
}
