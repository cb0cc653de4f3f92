package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/http/handlers"
	mw "github.com/prodlast/cospace-backend/internal/http/middleware"
	"github.com/prodlast/cospace-backend/internal/service"
	"github.com/prodlast/cospace-backend/pkg/config"
	"github.com/prodlast/cospace-backend/pkg/events"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (m *mockUserRepo) Create(_ context.Context, login, email, passwordHash, role string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, domain.ErrEmailExists
		}
	}
	u := &domain.User{
		ID:           uuid.New(),
		Login:        login,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		TokenUUID:    uuid.New(),
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateTokenUUID(_ context.Context, id uuid.UUID, marker uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.TokenUUID = marker
	return nil
}

type mockPlaceRepo struct {
	places map[uuid.UUID]*domain.Place
}

func (m *mockPlaceRepo) Create(_ context.Context, placeType domain.PlaceType, capacity int, description string) (*domain.Place, error) {
	p := &domain.Place{
		ID:          uuid.New(),
		Type:        placeType,
		Capacity:    capacity,
		Description: description,
		CreatedAt:   time.Now(),
	}
	m.places[p.ID] = p
	return p, nil
}

func (m *mockPlaceRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Place, error) {
	return m.places[id], nil
}

func (m *mockPlaceRepo) List(_ context.Context) ([]domain.Place, error) {
	var out []domain.Place
	for _, p := range m.places {
		out = append(out, *p)
	}
	return out, nil
}

type mockBookingRepo struct {
	bookings map[uuid.UUID]*domain.Booking
}

func (m *mockBookingRepo) Create(_ context.Context, userID, placeID uuid.UUID, startAt, endAt time.Time) (*domain.Booking, error) {
	b := &domain.Booking{
		ID:        uuid.New(),
		UserID:    userID,
		PlaceID:   placeID,
		StartAt:   startAt,
		EndAt:     endAt,
		Status:    domain.BookingActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.bookings[b.ID] = b
	return b, nil
}

func (m *mockBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.bookings[id], nil
}

func (m *mockBookingRepo) FindByCode(_ context.Context, code string) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.VerificationCode != nil && *b.VerificationCode == code {
			return b, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, id uuid.UUID) (bool, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status != domain.BookingActive {
		return false, nil
	}
	b.Status = domain.BookingCancelled
	return true, nil
}

func (m *mockBookingRepo) SetVerificationCode(_ context.Context, id uuid.UUID, code string) (bool, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status != domain.BookingActive {
		return false, nil
	}
	b.VerificationCode = &code
	return true, nil
}

func (m *mockBookingRepo) RedeemByCode(_ context.Context, code string) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.VerificationCode != nil && *b.VerificationCode == code && b.Status == domain.BookingActive {
			b.Status = domain.BookingRedeemed
			return b, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) ExistsOverlap(_ context.Context, placeID uuid.UUID, startAt, endAt time.Time) (bool, error) {
	for _, b := range m.bookings {
		if b.PlaceID == placeID && b.Status == domain.BookingActive &&
			b.StartAt.Before(endAt) && b.EndAt.After(startAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepo) ListByPlaceID(_ context.Context, placeID uuid.UUID) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.PlaceID == placeID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// ---------- Test server ----------

type api struct {
	srv      *httptest.Server
	users    *mockUserRepo
	places   *mockPlaceRepo
	bookings *mockBookingRepo
}

func newAPI(t *testing.T) *api {
	t.Helper()

	userRepo := &mockUserRepo{users: make(map[uuid.UUID]*domain.User)}
	placeRepo := &mockPlaceRepo{places: make(map[uuid.UUID]*domain.Place)}
	bookingRepo := &mockBookingRepo{bookings: make(map[uuid.UUID]*domain.Booking)}

	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour}

	h := handlers.New(
		service.NewUserService(userRepo),
		service.NewTokenService(userRepo, authCfg),
		service.NewBookingService(bookingRepo, placeRepo, userRepo, events.NoopEventBus{}),
		service.NewPlaceService(placeRepo),
	)
	authn := mw.NewAuthenticator(userRepo, authCfg.JWTSecret)

	r := chi.NewRouter()
	r.Mount("/api", h.Routes(authn, nil))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &api{srv: srv, users: userRepo, places: placeRepo, bookings: bookingRepo}
}

func (a *api) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, raw
}

func (a *api) signUp(t *testing.T, login, email, password string) string {
	t.Helper()

	res, raw := a.do(t, http.MethodPost, "/api/user/sign-up", "", map[string]string{
		"login": login, "email": email, "password": password,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("sign-up status = %d, body %s", res.StatusCode, raw)
	}
	var out domain.JwtResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Token == "" {
		t.Fatalf("sign-up response %s: %v", raw, err)
	}
	return out.Token
}

func (a *api) addPlace(t *testing.T) *domain.Place {
	t.Helper()
	p, err := a.places.Create(context.Background(), domain.PlaceMeetingRoom, 6, "board room")
	if err != nil {
		t.Fatalf("seed place: %v", err)
	}
	return p
}

// ---------- Tests ----------

func TestPing(t *testing.T) {
	a := newAPI(t)

	res, body := a.do(t, http.MethodGet, "/api/ping", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
	if string(body) != "PING" {
		t.Errorf("body = %q, want PING", body)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	a := newAPI(t)
	a.signUp(t, "alice", "alice@example.com", "s3cret-pass")

	res, _ := a.do(t, http.MethodPost, "/api/user/sign-up", "", map[string]string{
		"login": "bob", "email": "alice@example.com", "password": "other-pass1",
	})
	if res.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", res.StatusCode)
	}
}

func TestSignInUnknownUser(t *testing.T) {
	a := newAPI(t)

	res, _ := a.do(t, http.MethodPost, "/api/user/sign-in", "", map[string]string{
		"email": "ghost@example.com", "password": "whatever1",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", res.StatusCode)
	}
}

func TestSignInRotationRevokesOldToken(t *testing.T) {
	a := newAPI(t)
	a.addPlace(t)

	oldToken := a.signUp(t, "alice", "alice@example.com", "s3cret-pass")

	res, raw := a.do(t, http.MethodPost, "/api/user/sign-in", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d, body %s", res.StatusCode, raw)
	}
	var out domain.JwtResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("sign-in response: %v", err)
	}

	// The pre-rotation token is dead even though it is unexpired.
	res, _ = a.do(t, http.MethodGet, "/api/place/list", oldToken, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("old token status = %d, want 401", res.StatusCode)
	}

	res, _ = a.do(t, http.MethodGet, "/api/place/list", out.Token, nil)
	if res.StatusCode != http.StatusOK {
		t.Errorf("new token status = %d, want 200", res.StatusCode)
	}
}

func TestBookingLifecycleEndToEnd(t *testing.T) {
	a := newAPI(t)
	place := a.addPlace(t)

	a.signUp(t, "alice", "alice@example.com", "s3cret-pass")

	res, raw := a.do(t, http.MethodPost, "/api/user/sign-in", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d", res.StatusCode)
	}
	var jwt domain.JwtResponse
	if err := json.Unmarshal(raw, &jwt); err != nil {
		t.Fatalf("sign-in response: %v", err)
	}
	token := jwt.Token

	// Create booking 2024-01-01 10:00 -> 11:00
	res, raw = a.do(t, http.MethodPost, "/api/booking/create", token, map[string]any{
		"placeId": place.ID,
		"startAt": "2024-01-01T10:00:00Z",
		"endAt":   "2024-01-01T11:00:00Z",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", res.StatusCode, raw)
	}
	var booking domain.Booking
	if err := json.Unmarshal(raw, &booking); err != nil {
		t.Fatalf("create response: %v", err)
	}
	if booking.Status != domain.BookingActive {
		t.Fatalf("status = %s, want ACTIVE", booking.Status)
	}

	// Generate code
	res, raw = a.do(t, http.MethodGet, fmt.Sprintf("/api/booking/%s/qr", booking.ID), token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("qr status = %d, body %s", res.StatusCode, raw)
	}
	var qr struct {
		QrCode string `json:"qrCode"`
	}
	if err := json.Unmarshal(raw, &qr); err != nil || qr.QrCode == "" {
		t.Fatalf("qr response %s: %v", raw, err)
	}

	// Public check: valid while ACTIVE
	res, raw = a.do(t, http.MethodGet, fmt.Sprintf("/api/booking/%s/qr/check", qr.QrCode), "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("qr check status = %d, body %s", res.StatusCode, raw)
	}
	var st struct {
		Status bool `json:"status"`
	}
	if err := json.Unmarshal(raw, &st); err != nil || !st.Status {
		t.Fatalf("qr check body %s: %v", raw, err)
	}

	// Cancel
	res, raw = a.do(t, http.MethodPost, fmt.Sprintf("/api/booking/%s/cancel", booking.ID), token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", res.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &st); err != nil || !st.Status {
		t.Fatalf("cancel body %s: %v", raw, err)
	}

	// Second cancel fails with 404 {status:false}
	res, raw = a.do(t, http.MethodPost, fmt.Sprintf("/api/booking/%s/cancel", booking.ID), token, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("second cancel status = %d, want 404", res.StatusCode)
	}
	if err := json.Unmarshal(raw, &st); err != nil || st.Status {
		t.Errorf("second cancel body %s: %v", raw, err)
	}

	// Code no longer checks out
	res, raw = a.do(t, http.MethodGet, fmt.Sprintf("/api/booking/%s/qr/check", qr.QrCode), "", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("qr check after cancel status = %d, want 404", res.StatusCode)
	}
	if err := json.Unmarshal(raw, &st); err != nil || st.Status {
		t.Errorf("qr check after cancel body %s: %v", raw, err)
	}
}

func TestBookingCreateRejectsInvertedInterval(t *testing.T) {
	a := newAPI(t)
	place := a.addPlace(t)
	token := a.signUp(t, "alice", "alice@example.com", "s3cret-pass")

	res, _ := a.do(t, http.MethodPost, "/api/booking/create", token, map[string]any{
		"placeId": place.ID,
		"startAt": "2024-01-01T11:00:00Z",
		"endAt":   "2024-01-01T10:00:00Z",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestBookingRequiresToken(t *testing.T) {
	a := newAPI(t)
	place := a.addPlace(t)

	res, _ := a.do(t, http.MethodPost, "/api/booking/create", "", map[string]any{
		"placeId": place.ID,
		"startAt": "2024-01-01T10:00:00Z",
		"endAt":   "2024-01-01T11:00:00Z",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", res.StatusCode)
	}
}

func TestListByPlaceRequiresAdmin(t *testing.T) {
	a := newAPI(t)
	place := a.addPlace(t)
	token := a.signUp(t, "alice", "alice@example.com", "s3cret-pass")

	res, _ := a.do(t, http.MethodGet, fmt.Sprintf("/api/booking/%s/place", place.ID), token, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("user token status = %d, want 403", res.StatusCode)
	}

	// Promote and sign in again for an admin token.
	for _, u := range a.users.users {
		u.Role = domain.RoleAdmin
	}
	res, raw := a.do(t, http.MethodPost, "/api/user/sign-in", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d", res.StatusCode)
	}
	var jwt domain.JwtResponse
	if err := json.Unmarshal(raw, &jwt); err != nil {
		t.Fatalf("sign-in response: %v", err)
	}

	res, _ = a.do(t, http.MethodGet, fmt.Sprintf("/api/booking/%s/place", place.ID), jwt.Token, nil)
	if res.StatusCode != http.StatusOK {
		t.Errorf("admin token status = %d, want 200", res.StatusCode)
	}
}

func TestRedeemEndpoint(t *testing.T) {
	a := newAPI(t)
	place := a.addPlace(t)
	token := a.signUp(t, "alice", "alice@example.com", "s3cret-pass")

	res, raw := a.do(t, http.MethodPost, "/api/booking/create", token, map[string]any{
		"placeId": place.ID,
		"startAt": "2024-01-01T10:00:00Z",
		"endAt":   "2024-01-01T11:00:00Z",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", res.StatusCode)
	}
	var booking domain.Booking
	if err := json.Unmarshal(raw, &booking); err != nil {
		t.Fatalf("create response: %v", err)
	}

	_, raw = a.do(t, http.MethodGet, fmt.Sprintf("/api/booking/%s/qr", booking.ID), token, nil)
	var qr struct {
		QrCode string `json:"qrCode"`
	}
	if err := json.Unmarshal(raw, &qr); err != nil {
		t.Fatalf("qr response: %v", err)
	}

	// Redemption is admin-gated.
	res, _ = a.do(t, http.MethodPost, "/api/booking/code/"+qr.QrCode+"/redeem", token, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("user redeem status = %d, want 403", res.StatusCode)
	}

	for _, u := range a.users.users {
		u.Role = domain.RoleAdmin
	}
	res, raw = a.do(t, http.MethodPost, "/api/user/sign-in", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d", res.StatusCode)
	}
	var jwt domain.JwtResponse
	if err := json.Unmarshal(raw, &jwt); err != nil {
		t.Fatalf("sign-in response: %v", err)
	}

	res, raw = a.do(t, http.MethodPost, "/api/booking/code/"+qr.QrCode+"/redeem", jwt.Token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("redeem status = %d, body %s", res.StatusCode, raw)
	}
	var redeemed domain.Booking
	if err := json.Unmarshal(raw, &redeemed); err != nil {
		t.Fatalf("redeem response: %v", err)
	}
	if redeemed.Status != domain.BookingRedeemed {
		t.Errorf("status = %s, want REDEEMED", redeemed.Status)
	}

	// Spent code: second redeem 404 {status:false}
	res, _ = a.do(t, http.MethodPost, "/api/booking/code/"+qr.QrCode+"/redeem", jwt.Token, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("second redeem status = %d, want 404", res.StatusCode)
	}
}

func TestPlaceCreateValidation(t *testing.T) {
	a := newAPI(t)
	a.signUp(t, "admin", "admin@example.com", "s3cret-pass")
	for _, u := range a.users.users {
		u.Role = domain.RoleAdmin
	}
	res, raw := a.do(t, http.MethodPost, "/api/user/sign-in", "", map[string]string{
		"email": "admin@example.com", "password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d", res.StatusCode)
	}
	var jwt domain.JwtResponse
	if err := json.Unmarshal(raw, &jwt); err != nil {
		t.Fatalf("sign-in response: %v", err)
	}

	res, _ = a.do(t, http.MethodPost, "/api/place/create", jwt.Token, map[string]any{
		"type": "MEETING_ROOM", "capacity": 0, "description": "broken",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("zero capacity status = %d, want 400", res.StatusCode)
	}

	res, raw = a.do(t, http.MethodPost, "/api/place/create", jwt.Token, map[string]any{
		"type": "meeting_room", "capacity": 8, "description": "large room",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create place status = %d, body %s", res.StatusCode, raw)
	}
	var place domain.Place
	if err := json.Unmarshal(raw, &place); err != nil {
		t.Fatalf("place response: %v", err)
	}
	if place.Type != domain.PlaceMeetingRoom {
		t.Errorf("type = %s, want MEETING_ROOM (normalized)", place.Type)
	}
}
