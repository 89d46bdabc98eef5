package domain

import (
	"context"
	"time"
)

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a platform account that owns bookings and receives invoices.
type User struct {
	ID                 string    `bson:"_id,omitempty" json:"id"`
	Name               string    `bson:"name" json:"name"`
	Email              string    `bson:"email" json:"email"`
	Role               string    `bson:"role" json:"role"`
	ExternalCustomerID string    `bson:"external_customer_id,omitempty" json:"externalCustomerId,omitempty"`
	CreatedAt          time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updatedAt"`
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SetExternalCustomerID records the billing provider customer id
	// created lazily on first invoice.
	SetExternalCustomerID(ctx context.Context, id, customerID string) error
}
