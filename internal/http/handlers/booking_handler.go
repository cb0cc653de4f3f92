package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prodlast/cospace-backend/internal/domain"
	mw "github.com/prodlast/cospace-backend/internal/http/middleware"
	"github.com/prodlast/cospace-backend/internal/http/response"
)

type statusResponse struct {
	Status bool `json:"status"`
}

type qrResponse struct {
	QrCode string `json:"qrCode"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	user := mw.UserFrom(r)

	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	booking, err := h.bookings.Create(r.Context(), user.ID, &req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, booking)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.JSON(w, http.StatusNotFound, statusResponse{Status: false})
		return
	}

	if err := h.bookings.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBookingNotActive) {
			response.JSON(w, http.StatusNotFound, statusResponse{Status: false})
			return
		}
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, statusResponse{Status: true})
}

func (h *Handlers) qr(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	code, err := h.bookings.GenerateCode(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, qrResponse{QrCode: code})
}

func (h *Handlers) qrCheck(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "id")

	ok, err := h.bookings.ValidateCode(r.Context(), code)
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.JSON(w, http.StatusNotFound, statusResponse{Status: false})
		return
	}
	response.JSON(w, http.StatusOK, statusResponse{Status: true})
}

func (h *Handlers) redeem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	booking, err := h.bookings.Redeem(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.JSON(w, http.StatusNotFound, statusResponse{Status: false})
			return
		}
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

func (h *Handlers) listByPlace(w http.ResponseWriter, r *http.Request) {
	placeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.NotFound(w, "invalid place id")
		return
	}

	bookings, err := h.bookings.ListByPlace(r.Context(), placeID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *Handlers) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.NotFound(w, "invalid user id")
		return
	}

	bookings, err := h.bookings.ListByUser(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	response.JSON(w, http.StatusOK, bookings)
}
