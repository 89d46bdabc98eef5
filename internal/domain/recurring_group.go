package domain

import (
	"context"
	"time"
)

// Recurring group status values
const (
	GroupStatusActive    = "active"
	GroupStatusCancelled = "cancelled"
	GroupStatusCompleted = "completed"
)

// Group-level payment status values. The group becomes paid only once
// every month bucket is paid.
const (
	GroupPaymentPending = "pending"
	GroupPaymentPaid    = "paid"
)

// Month bucket payment status values
const (
	BucketPaymentPending   = "pending"
	BucketPaymentPaid      = "paid"
	BucketPaymentFailed    = "failed"
	BucketPaymentCancelled = "cancelled"
)

// Room availability classification inside a recurring plan.
const (
	AvailabilityFull    = "full"
	AvailabilityPartial = "partial"
)

// RoomSelection is one room participating in a recurring plan, with the
// availability classification computed at creation time.
type RoomSelection struct {
	RoomID       string   `bson:"room_id" json:"roomId"`
	RoomName     string   `bson:"room_name" json:"roomName"`
	Availability string   `bson:"availability" json:"availability"`
	TimeSlot     TimeSlot `bson:"time_slot" json:"timeSlot"`
	StartTime    string   `bson:"start_time" json:"startTime"`
	EndTime      string   `bson:"end_time" json:"endTime"`
	Price        float64  `bson:"price" json:"price"`
}

// MonthBucket groups the bookings of one calendar month for billing.
// Exactly one invoice is raised per bucket.
type MonthBucket struct {
	Month             string   `bson:"month" json:"month"` // YYYY-MM
	BookingIDs        []string `bson:"booking_ids" json:"bookingIds"`
	Price             float64  `bson:"price" json:"price"`
	ExternalInvoiceID string   `bson:"external_invoice_id,omitempty" json:"externalInvoiceId,omitempty"`
	InvoiceID         string   `bson:"invoice_id,omitempty" json:"invoiceId,omitempty"`
	PaymentStatus     string   `bson:"payment_status" json:"paymentStatus"`
	// ItemsPushed records that the bucket's charges were already sent to
	// the billing provider as pending line items, so invoicing the bucket
	// later must not add them again.
	ItemsPushed bool `bson:"items_pushed,omitempty" json:"-"`
}

// RecurringBookingGroup is the aggregate root of a recurring plan: the
// recurrence definition, the selected rooms, and the per-month billing
// buckets. Open-ended groups get their next month materialized by the
// monthly job until cancelled.
type RecurringBookingGroup struct {
	ID              string          `bson:"_id,omitempty" json:"id"`
	UserID          string          `bson:"user_id" json:"userId"`
	Weekdays        []string        `bson:"weekdays" json:"weekdays"`
	TimeSlot        TimeSlot        `bson:"time_slot" json:"timeSlot"`
	StartDate       string          `bson:"start_date" json:"startDate"` // ISO YYYY-MM-DD
	EndDate         string          `bson:"end_date,omitempty" json:"endDate,omitempty"`
	IsOpenEnded     bool            `bson:"is_open_ended" json:"isOpenEnded"`
	Rooms           []RoomSelection `bson:"rooms" json:"rooms"`
	MonthlyBookings []MonthBucket   `bson:"monthly_bookings" json:"monthlyBookings"`
	Status          string          `bson:"status" json:"status"`
	PaymentStatus   string          `bson:"payment_status" json:"paymentStatus"`
	NextBillingDate *time.Time      `bson:"next_billing_date,omitempty" json:"nextBillingDate,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updatedAt"`
}

// Bucket returns the bucket for a month key, or nil.
func (g *RecurringBookingGroup) Bucket(month string) *MonthBucket {
	for i := range g.MonthlyBookings {
		if g.MonthlyBookings[i].Month == month {
			return &g.MonthlyBookings[i]
		}
	}
	return nil
}

// BucketByInvoiceID returns the bucket carrying the given provider
// invoice id, or nil.
func (g *RecurringBookingGroup) BucketByInvoiceID(externalInvoiceID string) *MonthBucket {
	for i := range g.MonthlyBookings {
		if g.MonthlyBookings[i].ExternalInvoiceID == externalInvoiceID {
			return &g.MonthlyBookings[i]
		}
	}
	return nil
}

// AllBucketsPaid reports whether every bucket has been paid. Cancelled
// buckets do not count against completion.
func (g *RecurringBookingGroup) AllBucketsPaid() bool {
	if len(g.MonthlyBookings) == 0 {
		return false
	}
	seen := false
	for i := range g.MonthlyBookings {
		switch g.MonthlyBookings[i].PaymentStatus {
		case BucketPaymentPaid:
			seen = true
		case BucketPaymentCancelled:
		default:
			return false
		}
	}
	return seen
}

// AllBookingIDs flattens the booking ids of every bucket.
func (g *RecurringBookingGroup) AllBookingIDs() []string {
	var ids []string
	for i := range g.MonthlyBookings {
		ids = append(ids, g.MonthlyBookings[i].BookingIDs...)
	}
	return ids
}

// RecurringGroupRepository persists recurring booking groups.
type RecurringGroupRepository interface {
	Create(ctx context.Context, group *RecurringBookingGroup) (*RecurringBookingGroup, error)
	GetByID(ctx context.Context, id string) (*RecurringBookingGroup, error)
	Update(ctx context.Context, group *RecurringBookingGroup) error
	ListByUser(ctx context.Context, userID string) ([]*RecurringBookingGroup, error)
	// ListActiveOpenEnded returns the active open-ended groups, the
	// population the month-boundary jobs operate on.
	ListActiveOpenEnded(ctx context.Context) ([]*RecurringBookingGroup, error)
	// FindByBucketInvoiceID resolves the group owning a bucket with the
	// given provider invoice id.
	FindByBucketInvoiceID(ctx context.Context, externalInvoiceID string) (*RecurringBookingGroup, error)
	Delete(ctx context.Context, id string) error
}

// TxnRunner executes fn inside a multi-document transaction. The
// context passed to fn carries the session; repositories called with it
// participate in the transaction.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
