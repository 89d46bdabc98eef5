package domain

import (
	"context"
	"time"
)

// Booking payment status values
const (
	BookingPaymentPending  = "pending"
	BookingPaymentPaid     = "paid"
	BookingPaymentRefunded = "refunded"
	BookingPaymentFailed   = "failed"
)

// Booking lifecycle status values
const (
	BookingStatusUpcoming  = "upcoming"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking is one reserved room-date-slot occurrence. Occurrences
// materialized from a recurring plan carry IsRecurring and the id of
// their group.
type Booking struct {
	ID                string    `bson:"_id,omitempty" json:"id"`
	UserID            string    `bson:"user_id" json:"userId"`
	RoomID            string    `bson:"room_id" json:"roomId"`
	Date              string    `bson:"date" json:"date"` // ISO YYYY-MM-DD
	DayOfWeek         string    `bson:"day_of_week" json:"dayOfWeek"`
	TimeSlot          TimeSlot  `bson:"time_slot" json:"timeSlot"`
	StartTime         string    `bson:"start_time" json:"startTime"`
	EndTime           string    `bson:"end_time" json:"endTime"`
	Price             float64   `bson:"price" json:"price"`
	PaymentStatus     string    `bson:"payment_status" json:"paymentStatus"`
	Status            string    `bson:"status" json:"status"`
	IsRecurring       bool      `bson:"is_recurring" json:"isRecurring"`
	RecurrenceGroupID string    `bson:"recurrence_group_id,omitempty" json:"recurrenceGroupId,omitempty"`
	ExternalInvoiceID string    `bson:"external_invoice_id,omitempty" json:"externalInvoiceId,omitempty"`
	// Checkout-session and payment ids from the billing provider, set
	// when the booking is paid through a hosted checkout flow.
	ExternalSessionID string    `bson:"external_session_id,omitempty" json:"externalSessionId,omitempty"`
	ExternalPaymentID string    `bson:"external_payment_id,omitempty" json:"externalPaymentId,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// BookingRepository persists booking occurrences.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Booking, error)
	// ExistsActive reports whether a non-cancelled booking already holds
	// the room on the given date and slot.
	ExistsActive(ctx context.Context, roomID string, date string, slot TimeSlot) (bool, error)
	UpdateStatusByIDs(ctx context.Context, ids []string, status string) error
	UpdatePaymentStatusByIDs(ctx context.Context, ids []string, paymentStatus string) error
	// FindByExternalInvoiceID resolves a single (non-recurring) booking by
	// the invoice id assigned at the billing provider.
	FindByExternalInvoiceID(ctx context.Context, externalInvoiceID string) (*Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, paymentStatus string) error
	DeleteByIDs(ctx context.Context, ids []string) error
}
