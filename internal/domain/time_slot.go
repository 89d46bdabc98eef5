package domain

// TimeSlot names a bookable block of the day.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotNight     TimeSlot = "night"
	SlotFullDay   TimeSlot = "full-day"
)

// slot clock times used when a request does not carry explicit times.
var slotTimes = map[TimeSlot][2]string{
	SlotMorning:   {"09:00", "12:00"},
	SlotAfternoon: {"14:00", "17:00"},
	SlotNight:     {"19:00", "22:00"},
	SlotFullDay:   {"09:00", "22:00"},
}

// IsValid reports whether the slot is one of the known values.
func (s TimeSlot) IsValid() bool {
	_, ok := slotTimes[s]
	return ok
}

// DefaultTimes returns the canonical start and end clock times for the
// slot ("HH:MM"). Falls back to the full-day window for unknown slots.
func (s TimeSlot) DefaultTimes() (start, end string) {
	times, ok := slotTimes[s]
	if !ok {
		times = slotTimes[SlotFullDay]
	}
	return times[0], times[1]
}
