package domain

import (
	"context"
	"time"
)

// Invoice status values
const (
	InvoiceStatusCreated   = "created"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice is the local record of an invoice raised at the billing
// provider. It references either a single booking or a recurring group
// month bucket, never both.
type Invoice struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"user_id" json:"userId"`
	BookingID  string    `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	GroupID    string    `bson:"group_id,omitempty" json:"groupId,omitempty"`
	Month      string    `bson:"month,omitempty" json:"month,omitempty"`
	ExternalID string    `bson:"external_id" json:"externalId"`
	Amount     float64   `bson:"amount" json:"amount"`
	Currency   string    `bson:"currency" json:"currency"`
	Status     string    `bson:"status" json:"status"`
	DueDate    time.Time `bson:"due_date" json:"dueDate"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// Validate enforces that the invoice targets exactly one of a booking
// or a recurring group.
func (i *Invoice) Validate() error {
	if i.BookingID == "" && i.GroupID == "" {
		return NewValidationError("bookingId", "invoice must reference a booking or a group")
	}
	if i.BookingID != "" && i.GroupID != "" {
		return NewValidationError("bookingId", "invoice cannot reference both a booking and a group")
	}
	return nil
}

// InvoiceRepository persists local invoice records.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) (*Invoice, error)
	GetByExternalID(ctx context.Context, externalID string) (*Invoice, error)
	UpdateStatusByExternalID(ctx context.Context, externalID, status string) error
	CancelByGroup(ctx context.Context, groupID string) error
	DeleteByGroup(ctx context.Context, groupID string) error
}
