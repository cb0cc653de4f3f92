package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prodlast/cospace-backend/internal/domain"
	mw "github.com/prodlast/cospace-backend/internal/http/middleware"
	"github.com/prodlast/cospace-backend/internal/http/response"
	"github.com/prodlast/cospace-backend/internal/service"
)

type Handlers struct {
	users    service.UserService
	tokens   service.TokenService
	bookings service.BookingService
	places   service.PlaceService
}

func New(
	users service.UserService,
	tokens service.TokenService,
	bookings service.BookingService,
	places service.PlaceService,
) *Handlers {
	return &Handlers{
		users:    users,
		tokens:   tokens,
		bookings: bookings,
		places:   places,
	}
}

// Routes assembles the /api subtree. The limiter may be nil (tests, dev
// without redis); auth is required.
func (h *Handlers) Routes(authn *mw.Authenticator, limiter *mw.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/ping", h.ping)
	r.Get("/pong", h.pong)

	r.Route("/user", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Limit("user"))
		}
		r.Post("/sign-up", h.signUp)
		r.Post("/sign-in", h.signIn)
	})

	r.Route("/booking", func(r chi.Router) {
		// Public: code check at point of use (door scanner).
		r.Get("/{id}/qr/check", h.qrCheck)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireJWT)
			r.Post("/create", h.createBooking)
			r.Post("/{id}/cancel", h.cancelBooking)
			r.Get("/{id}/qr", h.qr)
			r.Get("/{id}/user", h.listByUser)
			r.With(mw.RequireRole(domain.RoleAdmin)).Get("/{id}/place", h.listByPlace)
			r.With(mw.RequireRole(domain.RoleAdmin)).Post("/code/{code}/redeem", h.redeem)
		})
	})

	r.Route("/place", func(r chi.Router) {
		r.Use(authn.RequireJWT)
		r.Get("/list", h.listPlaces)
		r.With(mw.RequireRole(domain.RoleAdmin)).Post("/create", h.createPlace)
	})

	return r
}

func (h *Handlers) ping(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "PING")
}

func (h *Handlers) pong(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "PONG")
}
