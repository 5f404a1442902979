package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"hogar360/internal/delivery/http/helpers"
	"hogar360/internal/delivery/http/middleware"
	"hogar360/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// CreateSlotRequest is the request body for POST /slots.
type CreateSlotRequest struct {
	PropertyID string    `json:"property_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// Validate implements helpers.Validator.
func (c CreateSlotRequest) Validate() []string {
	var errs []string
	if c.PropertyID == "" {
		errs = append(errs, "property_id is required")
	}
	if c.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if c.EndsAt.IsZero() {
		errs = append(errs, "ends_at is required")
	}
	return errs
}

// CreateSlotSuccessResponse is the success response envelope for POST /slots (201).
type CreateSlotSuccessResponse struct {
	Data  *domain.Slot      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListSlotsResponse is the data payload for GET /slots.
type ListSlotsResponse struct {
	Slots      []*domain.Slot         `json:"slots"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// SearchAvailableResponse is the data payload for GET /visits/available.
type SearchAvailableResponse struct {
	Slots      []*domain.AvailableSlot `json:"slots"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// DeleteSlotResponse is the data payload for DELETE /slots/{slotID}.
type DeleteSlotResponse struct {
	Status string `json:"status"`
}

type SlotController struct {
	Logger  *slog.Logger
	Service domain.SlotService
}

func NewSlotController(logger *slog.Logger, svc domain.SlotService) *SlotController {
	return &SlotController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateSlot godoc
// @Summary Publish a visit slot
// @Description Creates a visit time window for one of the seller's properties. The start must lie within the next 21 days and the window may not overlap any of the seller's existing slots.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slot body CreateSlotRequest true "Slot data"
// @Success 201 {object} controllers.CreateSlotSuccessResponse "data contains the created slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots [post]
func (c *SlotController) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sellerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	slot, err := c.Service.CreateSlot(r.Context(), sellerID, req.PropertyID, req.StartsAt, req.EndsAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "property not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "property belongs to another seller")
		case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrOutOfWindow), errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrSlotConflict):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, slot)
}

// ListMySlots godoc
// @Summary List the seller's own slots
// @Description Returns the authenticated seller's slots, newest start first, including past ones. Paginated via page and page_size.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains slots and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots [get]
func (c *SlotController) ListMySlots(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p := helpers.ParsePagination(r)

	slots, total, err := c.Service.ListSellerSlots(r.Context(), sellerID, p)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListSlotsResponse{
		Slots:      slots,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// DeleteSlot godoc
// @Summary Delete a visit slot
// @Description Removes one of the seller's slots. Reservations held against the slot are deleted with it.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID} [delete]
func (c *SlotController) DeleteSlot(w http.ResponseWriter, r *http.Request) {
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

	if err := c.Service.DeleteSlot(r.Context(), slotID, sellerID); err != nil {
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
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteSlotResponse{Status: "deleted"})
}

// SearchAvailable godoc
// @Summary Search available visit slots
// @Description Returns slots that have not yet started, newest start first, with live occupancy. Filterable by city and by a start-time range.
// @Tags visits
// @Produce json
// @Param city_id query string false "City ID"
// @Param from query string false "Earliest slot start (RFC3339)"
// @Param to query string false "Latest slot start (RFC3339)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains slots and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /visits/available [get]
func (c *SlotController) SearchAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SlotFilter{CityID: q.Get("city_id")}
	if s := q.Get("from"); s != "" {
		from, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid from: must be RFC3339")
			return
		}
		filter.From = &from
	}
	if s := q.Get("to"); s != "" {
		to, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid to: must be RFC3339")
			return
		}
		filter.To = &to
	}
	p := helpers.ParsePagination(r)

	slots, total, err := c.Service.SearchAvailable(r.Context(), filter, p)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SearchAvailableResponse{
		Slots:      slots,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}
