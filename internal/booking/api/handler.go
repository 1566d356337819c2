package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/auth"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/booking"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/utils"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	BookingService *booking.Service
	Logger         *logger.Logger
}

func NewHandler(bookingService *booking.Service, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: bookingService,
		Logger:         log,
	}
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateBooking: user=%s event=%s quantity=%d", userID, req.EventID, req.Quantity))

	created, err := h.BookingService.CreateBooking(userID, req)
	if err != nil {
		h.writeBookingError(w, "CreateBooking", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Booking created", created))
}

// GetBooking handles GET /api/bookings/{bookingId}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	bookingID := chi.URLParam(r, "bookingId")

	found, err := h.BookingService.GetBooking(bookingID, userID)
	if err != nil {
		h.writeBookingError(w, "GetBooking", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking found", found))
}

// ListBookings handles GET /api/bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	bookings, err := h.BookingService.ListBookings(userID)
	if err != nil {
		h.writeBookingError(w, "ListBookings", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bookings listed", bookings))
}

// CancelBooking handles DELETE /api/bookings/{bookingId}.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	bookingID := chi.URLParam(r, "bookingId")

	var body struct {
		Reason string `json:"reason"`
	}
	// Reason is optional; an empty body is fine
	_ = json.NewDecoder(r.Body).Decode(&body)

	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingId=%s user=%s", bookingID, userID))

	if err := h.BookingService.CancelBooking(bookingID, userID, body.Reason); err != nil {
		h.writeBookingError(w, "CancelBooking", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking cancelled", nil))
}

// GetEventCapacity handles GET /api/events/{eventId}/capacity.
func (h *Handler) GetEventCapacity(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	info, err := h.BookingService.GetEventCapacityInfo(eventID)
	if err != nil {
		h.writeBookingError(w, "GetEventCapacity", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Capacity info", info))
}

// writeBookingError maps domain errors onto HTTP statuses.
func (h *Handler) writeBookingError(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))

	switch {
	case errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrUserNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
	case errors.Is(err, models.ErrCapacityExceeded):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Capacity exceeded", err.Error()))
	case errors.Is(err, models.ErrAlreadyCancelled),
		errors.Is(err, models.ErrCannotCancelCheckedIn):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("Cannot cancel booking", err.Error()))
	case errors.Is(err, models.ErrInvalidQuantity):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
	case errors.Is(err, models.ErrEventBusy):
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Service busy", err.Error()))
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal error", err.Error()))
	}
}
