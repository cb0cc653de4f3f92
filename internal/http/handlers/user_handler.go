package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/http/response"
	"github.com/prodlast/cospace-backend/pkg/logger"
)

func (h *Handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	token, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		response.Error(w, err)
		return
	}

	logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "email", user.Email)
	response.JSON(w, http.StatusCreated, domain.JwtResponse{Token: token})
}

func (h *Handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, "User not found")
			return
		}
		response.Error(w, err)
		return
	}

	// Issuing rotates the marker: every previously issued token dies here.
	token, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		response.Error(w, err)
		return
	}

	logger.InfoContext(r.Context(), "user signed in", "user_id", user.ID)
	response.JSON(w, http.StatusOK, domain.JwtResponse{Token: token})
}
