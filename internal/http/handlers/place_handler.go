package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/http/response"
)

func (h *Handlers) createPlace(w http.ResponseWriter, r *http.Request) {
	var req domain.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	place, err := h.places.Create(r.Context(), &req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, place)
}

func (h *Handlers) listPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.places.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if places == nil {
		places = []domain.Place{}
	}
	response.JSON(w, http.StatusOK, places)
}
