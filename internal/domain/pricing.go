package domain

import "math"

// positivePrice reports whether p is a usable price value.
func positivePrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}

// ResolvePrice determines the per-occurrence price for a room and slot.
// The fallback order is: explicit price from the request, the room's
// slot-specific price, then the room's generic price. A price that is
// absent, non-positive or NaN falls through to the next source.
func ResolvePrice(explicit float64, room *Room, slot TimeSlot) (float64, error) {
	if positivePrice(explicit) {
		return explicit, nil
	}
	if p := room.SlotPrice(slot); positivePrice(p) {
		return p, nil
	}
	if positivePrice(room.Price) {
		return room.Price, nil
	}
	return 0, NewValidationError("price", "no price configured for room "+room.ID)
}
