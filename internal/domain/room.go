package domain

import (
	"context"
	"time"
)

// Room is a bookable space with optional per-slot pricing. A slot price
// of zero means no slot-specific price is configured and the generic
// Price applies.
type Room struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Capacity       int       `bson:"capacity" json:"capacity"`
	Price          float64   `bson:"price" json:"price"`
	MorningPrice   float64   `bson:"morning_price,omitempty" json:"morningPrice,omitempty"`
	AfternoonPrice float64   `bson:"afternoon_price,omitempty" json:"afternoonPrice,omitempty"`
	NightPrice     float64   `bson:"night_price,omitempty" json:"nightPrice,omitempty"`
	AllDayPrice    float64   `bson:"all_day_price,omitempty" json:"allDayPrice,omitempty"`
	IsActive       bool      `bson:"is_active" json:"isActive"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// SlotPrice returns the configured price for a slot, or zero when the
// room has no slot-specific price.
func (r *Room) SlotPrice(slot TimeSlot) float64 {
	switch slot {
	case SlotMorning:
		return r.MorningPrice
	case SlotAfternoon:
		return r.AfternoonPrice
	case SlotNight:
		return r.NightPrice
	case SlotFullDay:
		return r.AllDayPrice
	}
	return 0
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	ListActive(ctx context.Context) ([]*Room, error)
}
