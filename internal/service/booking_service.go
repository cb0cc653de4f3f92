package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/repo/postgres"
	"github.com/prodlast/cospace-backend/pkg/events"
	"github.com/prodlast/cospace-backend/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, userID uuid.UUID, req *domain.BookingRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	GenerateCode(ctx context.Context, id uuid.UUID) (string, error)
	ValidateCode(ctx context.Context, code string) (bool, error)
	Redeem(ctx context.Context, code string) (*domain.Booking, error)
	ListByPlace(ctx context.Context, placeID uuid.UUID) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

type bookingService struct {
	bookingRepo postgres.BookingRepo
	placeRepo   postgres.PlaceRepo
	userRepo    postgres.UserRepo
	eventBus    events.Publisher
}

func NewBookingService(
	bookingRepo postgres.BookingRepo,
	placeRepo postgres.PlaceRepo,
	userRepo postgres.UserRepo,
	eventBus events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		placeRepo:   placeRepo,
		userRepo:    userRepo,
		eventBus:    eventBus,
	}
}

func (s *bookingService) Create(ctx context.Context, userID uuid.UUID, req *domain.BookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	place, err := s.placeRepo.FindByID(ctx, req.PlaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check place: %w", err)
	}
	if place == nil {
		return nil, domain.ErrNotFound
	}

	// Fast-path check; the exclusion constraint in the database is the
	// authoritative guard against two concurrent overlapping creates.
	overlap, err := s.bookingRepo.ExistsOverlap(ctx, req.PlaceID, req.StartAt, req.EndAt)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if overlap {
		return nil, domain.ErrPlaceUnavailable
	}

	booking, err := s.bookingRepo.Create(ctx, userID, req.PlaceID, req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, booking)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id uuid.UUID) error {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return domain.ErrNotFound
	}
	if booking.IsTerminal() {
		return domain.ErrBookingNotActive
	}

	ok, err := s.bookingRepo.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		// Lost the race with another cancel or a redemption.
		return domain.ErrBookingNotActive
	}

	event := events.BookingCancelledEvent{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		UserEmail:   s.userEmail(ctx, booking.UserID),
		CancelledAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "booking_id", booking.ID)
	}
	return nil
}

// GenerateCode is idempotent: the stored code is returned as long as the
// booking stays ACTIVE.
func (s *bookingService) GenerateCode(ctx context.Context, id uuid.UUID) (string, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return "", domain.ErrNotFound
	}
	if booking.Status != domain.BookingActive {
		return "", domain.ErrBookingNotActive
	}
	if booking.VerificationCode != nil {
		return *booking.VerificationCode, nil
	}

	code := uuid.NewString()
	ok, err := s.bookingRepo.SetVerificationCode(ctx, id, code)
	if err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	if !ok {
		return "", domain.ErrBookingNotActive
	}
	return code, nil
}

// ValidateCode is a read-only check: true only while the booking holding
// the code is ACTIVE. Consuming the code is Redeem.
func (s *bookingService) ValidateCode(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	booking, err := s.bookingRepo.FindByCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to look up code: %w", err)
	}
	return booking != nil && booking.Status == domain.BookingActive, nil
}

func (s *bookingService) Redeem(ctx context.Context, code string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.RedeemByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem code: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}

	event := events.BookingRedeemedEvent{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		UserEmail:  s.userEmail(ctx, booking.UserID),
		PlaceID:    booking.PlaceID,
		RedeemedAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingRedeemed, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking redeemed event", "error", err, "booking_id", booking.ID)
	}
	return booking, nil
}

func (s *bookingService) ListByPlace(ctx context.Context, placeID uuid.UUID) ([]domain.Booking, error) {
	place, err := s.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check place: %w", err)
	}
	if place == nil {
		return nil, domain.ErrNotFound
	}
	return s.bookingRepo.ListByPlaceID(ctx, placeID)
}

func (s *bookingService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return s.bookingRepo.ListByUserID(ctx, userID)
}

func (s *bookingService) publishCreated(ctx context.Context, b *domain.Booking) {
	event := events.BookingCreatedEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		PlaceID:   b.PlaceID,
		StartAt:   b.StartAt,
		EndAt:     b.EndAt,
		CreatedAt: b.CreatedAt,
	}
	if user, err := s.userRepo.FindByID(ctx, b.UserID); err == nil && user != nil {
		event.UserEmail = user.Email
		event.UserLogin = user.Login
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", b.ID)
	}
}

func (s *bookingService) userEmail(ctx context.Context, userID uuid.UUID) string {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return ""
	}
	return user.Email
}
