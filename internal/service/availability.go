package service

import (
	"context"
	"fmt"

	"github.com/deskhive/deskhive/internal/domain"
)

// AvailabilityRequest asks which rooms can host a recurring plan.
type AvailabilityRequest struct {
	Weekdays  []string        `json:"weekdays"`
	TimeSlot  domain.TimeSlot `json:"timeSlot"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
}

// RoomAvailability is one room's fit for the requested recurrence.
// Partial availability lists the dates the room cannot take.
type RoomAvailability struct {
	RoomID        string          `json:"roomId"`
	RoomName      string          `json:"roomName"`
	Availability  string          `json:"availability"`
	Price         float64         `json:"price"`
	TimeSlot      domain.TimeSlot `json:"timeSlot"`
	BlockedDates  []string        `json:"blockedDates,omitempty"`
	BookableDates int             `json:"bookableDates"`
}

// AvailableRooms classifies every active room against the requested
// recurrence: full (every date free), partial (some dates blocked), or
// excluded entirely when no date is free.
func (s *RecurringService) AvailableRooms(ctx context.Context, req *AvailabilityRequest) ([]RoomAvailability, error) {
	if len(req.Weekdays) == 0 {
		return nil, domain.NewValidationError("weekdays", "at least one weekday required")
	}
	if !req.TimeSlot.IsValid() {
		return nil, domain.NewValidationError("timeSlot", "unknown time slot "+string(req.TimeSlot))
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return nil, domain.NewValidationError("startDate", err.Error())
	}

	openEnded := req.EndDate == ""
	var end domain.Date
	if !openEnded {
		end, err = domain.ParseDate(req.EndDate)
		if err != nil {
			return nil, domain.NewValidationError("endDate", err.Error())
		}
		if end.Before(start) {
			return nil, domain.NewValidationError("endDate", "end date before start date")
		}
	}

	dates := candidateDates(start, end, openEnded, req.Weekdays)
	if len(dates) == 0 {
		return nil, domain.NewValidationError("weekdays", "no matching dates in the requested range")
	}

	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	var results []RoomAvailability
	for _, room := range rooms {
		price, err := domain.ResolvePrice(0, room, req.TimeSlot)
		if err != nil {
			// Rooms without a price for this slot are not offered.
			continue
		}

		var blocked []string
		for _, d := range dates {
			taken, err := s.bookings.ExistsActive(ctx, room.ID, d.String(), req.TimeSlot)
			if err != nil {
				return nil, fmt.Errorf("failed to check availability: %w", err)
			}
			if taken {
				blocked = append(blocked, d.String())
			}
		}
		if len(blocked) == len(dates) {
			continue
		}

		availability := domain.AvailabilityFull
		if len(blocked) > 0 {
			availability = domain.AvailabilityPartial
		}
		results = append(results, RoomAvailability{
			RoomID:        room.ID,
			RoomName:      room.Name,
			Availability:  availability,
			Price:         price,
			TimeSlot:      req.TimeSlot,
			BlockedDates:  blocked,
			BookableDates: len(dates) - len(blocked),
		})
	}
	return results, nil
}
