package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PlaceType string

const (
	PlaceWorkplace      PlaceType = "WORKPLACE"
	PlaceMeetingRoom    PlaceType = "MEETING_ROOM"
	PlaceConferenceHall PlaceType = "CONFERENCE_HALL"
)

func ParsePlaceType(s string) (PlaceType, bool) {
	switch PlaceType(s) {
	case PlaceWorkplace, PlaceMeetingRoom, PlaceConferenceHall:
		return PlaceType(s), true
	default:
		return "", false
	}
}

// Place is created administratively and immutable afterwards.
type Place struct {
	ID          uuid.UUID `json:"id"`
	Type        PlaceType `json:"type"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PlaceRequest struct {
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

func (r *PlaceRequest) Normalize() {
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	r.Description = strings.TrimSpace(r.Description)
}

func (r *PlaceRequest) Validate() error {
	if _, ok := ParsePlaceType(r.Type); !ok {
		return Validationf("unknown place type %q", r.Type)
	}
	if r.Capacity <= 0 {
		return Validationf("capacity must be positive")
	}
	if r.Description == "" {
		return Validationf("description must not be blank")
	}
	return nil
}
