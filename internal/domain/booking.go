package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "ACTIVE"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingRedeemed  BookingStatus = "REDEEMED"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingActive, BookingCancelled, BookingRedeemed:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// Booking lifecycle: ACTIVE -> CANCELLED and ACTIVE -> REDEEMED, both terminal.
type Booking struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"userId"`
	PlaceID          uuid.UUID     `json:"placeId"`
	StartAt          time.Time     `json:"startAt"`
	EndAt            time.Time     `json:"endAt"`
	Status           BookingStatus `json:"status"`
	VerificationCode *string       `json:"verificationCode,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingRedeemed
}

type BookingRequest struct {
	PlaceID uuid.UUID `json:"placeId"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

func (r *BookingRequest) Validate() error {
	if r.PlaceID == uuid.Nil {
		return Validationf("placeId is required")
	}
	if r.StartAt.IsZero() || r.EndAt.IsZero() {
		return Validationf("startAt and endAt are required")
	}
	if !r.StartAt.Before(r.EndAt) {
		return Validationf("startAt must be before endAt")
	}
	return nil
}
