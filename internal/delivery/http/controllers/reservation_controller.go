package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hogar360/internal/delivery/http/helpers"
	"hogar360/internal/delivery/http/middleware"
	"hogar360/internal/domain"
)

// ReserveRequest is the request body for POST /slots/{slotID}/reservations.
// The buyer identity is an opaque string (typically an email); it is
// trimmed but not linked to any account.
type ReserveRequest struct {
	BuyerEmail string `json:"buyer_email"`
}

// Validate implements helpers.Validator.
func (r *ReserveRequest) Validate() []string {
	r.BuyerEmail = strings.TrimSpace(r.BuyerEmail)
	if r.BuyerEmail == "" {
		return []string{"buyer_email is required"}
	}
	return nil
}

// ReserveSuccessResponse is the success response envelope for POST /slots/{slotID}/reservations (201).
type ReserveSuccessResponse struct {
	Data  *domain.Reservation `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// OccupancyResponse is the data payload for GET /slots/{slotID}/occupancy.
type OccupancyResponse struct {
	SlotID   string `json:"slot_id"`
	Reserved int    `json:"reserved"`
	Capacity int    `json:"capacity"`
}

// ListReservationsResponse is the data payload for GET /slots/{slotID}/reservations.
type ListReservationsResponse struct {
	Reservations []*domain.Reservation `json:"reservations"`
}

type ReservationController struct {
	Logger  *slog.Logger
	Service domain.ReservationService
}

func NewReservationController(logger *slog.Logger, svc domain.ReservationService) *ReservationController {
	return &ReservationController{
		Logger:  logger,
		Service: svc,
	}
}

// Reserve godoc
// @Summary Book a visit
// @Description Reserves one of the 2 seats in a slot for the given buyer. Fails once the slot has started, is full, or the buyer already holds a reservation for it.
// @Tags reservations
// @Accept json
// @Produce json
// @Param slotID path string true "Slot ID (UUID)"
// @Param reservation body ReserveRequest true "Buyer identity"
// @Success 201 {object} controllers.ReserveSuccessResponse "data contains the created reservation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_expired | slot_full | duplicate_reservation"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID}/reservations [post]
func (c *ReservationController) Reserve(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")
	if slotID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slotID")
		return
	}
	if !uuidRegex.MatchString(slotID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid slotID")
		return
	}
	var req ReserveRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	res, err := c.Service.Reserve(r.Context(), slotID, req.BuyerEmail)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrSlotExpired):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeSlotExpired, err.Error())
		case errors.Is(err, domain.ErrSlotFull):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeSlotFull, err.Error())
		case errors.Is(err, domain.ErrDuplicateReservation):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeDuplicateReservation, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// Occupancy godoc
// @Summary Current occupancy of a slot
// @Description Returns how many of the slot's seats are reserved, for "1/2 booked" displays.
// @Tags reservations
// @Produce json
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains slot_id, reserved, capacity"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID}/occupancy [get]
func (c *ReservationController) Occupancy(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")
	if slotID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slotID")
		return
	}
	if !uuidRegex.MatchString(slotID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid slotID")
		return
	}

	count, err := c.Service.CountForSlot(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, OccupancyResponse{
		SlotID:   slotID,
		Reserved: count,
		Capacity: domain.SlotCapacity,
	})
}

// ListForSlot godoc
// @Summary List reservations held against a slot
// @Description Returns the reservations for one of the authenticated seller's slots, oldest first.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains reservations"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID}/reservations [get]
func (c *ReservationController) ListForSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")
	if slotID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slotID")
		return
	}
	if !uuidRegex.MatchString(slotID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid slotID")
		return
	}
	sellerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	reservations, err := c.Service.ListForSlot(r.Context(), slotID, sellerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "slot belongs to another seller")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListReservationsResponse{Reservations: reservations})
}
