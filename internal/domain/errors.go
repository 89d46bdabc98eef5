package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("access forbidden: you don't own this resource")
)

// ValidationError marks a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports booking collisions on a room and slot. Dates
// holds every requested date the room could not take.
type ConflictError struct {
	RoomID   string
	Dates    []Date
	TimeSlot TimeSlot
}

func (e *ConflictError) Error() string {
	days := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		days[i] = d.String()
	}
	return fmt.Sprintf("room %s already booked on %s (%s)", e.RoomID, strings.Join(days, ", "), e.TimeSlot)
}
