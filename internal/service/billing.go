package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/deskhive/deskhive/internal/infrastructure/stripe"
)

// GatewayInvoice is the provider-side invoice as seen by the services.
type GatewayInvoice struct {
	ID        string
	Status    string
	AmountDue int64
	HostedURL string
	DueDate   time.Time
}

// GatewayError is a structured billing provider failure. Services
// branch on Code, never on message text.
type GatewayError struct {
	Code    string
	Type    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("billing gateway: %s (%s): %s", e.Type, e.Code, e.Message)
}

// IsBenignVoidError reports whether a void attempt failed because the
// invoice is already beyond voiding (paid, voided, not open, or gone).
// These outcomes are acceptable during cancellation and must not abort
// it; any other gateway failure must.
func IsBenignVoidError(err error) bool {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return false
	}
	switch gwErr.Code {
	case stripe.CodeResourceMissing,
		stripe.CodeInvoiceAlreadyPaid,
		stripe.CodeInvoiceAlreadyVoid,
		stripe.CodeInvoiceNotOpen:
		return true
	}
	return false
}

// BillingGateway abstracts the payment provider's invoicing API.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, name, email string) (customerID string, err error)
	// CreateInvoice opens a draft invoice carrying the given line items
	// and returns it still in draft.
	CreateInvoice(ctx context.Context, customerID, description string, items []LineItem) (*GatewayInvoice, error)
	// FinalizeInvoice moves a draft to open, triggering customer delivery.
	FinalizeInvoice(ctx context.Context, invoiceID string) (*GatewayInvoice, error)
	VoidInvoice(ctx context.Context, invoiceID string) error
	// AddPendingLineItem records a line item not attached to any invoice;
	// the provider sweeps pending items into the customer's next invoice.
	AddPendingLineItem(ctx context.Context, customerID string, item LineItem) error
}

// LineItem is one charge on an invoice. AmountCents is in the smallest
// currency unit.
type LineItem struct {
	Description string
	AmountCents int64
}

// Cents converts a decimal price to the smallest currency unit.
func Cents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// StripeGateway implements BillingGateway on the Stripe API.
type StripeGateway struct {
	client       *stripe.Client
	currency     string
	daysUntilDue int
}

// NewStripeGateway wraps a Stripe client as a BillingGateway.
func NewStripeGateway(client *stripe.Client, currency string, daysUntilDue int) *StripeGateway {
	return &StripeGateway{client: client, currency: currency, daysUntilDue: daysUntilDue}
}

// translate converts a stripe.APIError into a GatewayError so callers
// never depend on the provider package.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *stripe.APIError
	if errors.As(err, &apiErr) {
		return &GatewayError{Code: apiErr.Code, Type: apiErr.Type, Message: apiErr.Message}
	}
	return err
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	customer, err := g.client.CreateCustomer(ctx, name, email)
	if err != nil {
		return "", translate(err)
	}
	return customer.ID, nil
}

func (g *StripeGateway) CreateInvoice(ctx context.Context, customerID, description string, items []LineItem) (*GatewayInvoice, error) {
	for _, item := range items {
		if _, err := g.client.CreateInvoiceItem(ctx, customerID, "", g.currency, item.Description, item.AmountCents); err != nil {
			return nil, translate(err)
		}
	}
	invoice, err := g.client.CreateInvoice(ctx, customerID, g.currency, description, g.daysUntilDue)
	if err != nil {
		return nil, translate(err)
	}
	return toGatewayInvoice(invoice), nil
}

func (g *StripeGateway) FinalizeInvoice(ctx context.Context, invoiceID string) (*GatewayInvoice, error) {
	invoice, err := g.client.FinalizeInvoice(ctx, invoiceID)
	if err != nil {
		return nil, translate(err)
	}
	return toGatewayInvoice(invoice), nil
}

func (g *StripeGateway) VoidInvoice(ctx context.Context, invoiceID string) error {
	return translate(g.client.VoidInvoice(ctx, invoiceID))
}

func (g *StripeGateway) AddPendingLineItem(ctx context.Context, customerID string, item LineItem) error {
	_, err := g.client.CreateInvoiceItem(ctx, customerID, "", g.currency, item.Description, item.AmountCents)
	return translate(err)
}

func toGatewayInvoice(inv *stripe.Invoice) *GatewayInvoice {
	gi := &GatewayInvoice{
		ID:        inv.ID,
		Status:    inv.Status,
		AmountDue: inv.AmountDue,
		HostedURL: inv.HostedInvoiceURL,
	}
	if inv.DueDate > 0 {
		gi.DueDate = time.Unix(inv.DueDate, 0).UTC()
	}
	return gi
}

// MockBillingGateway is used when no provider credentials are
// configured. It keeps invoices in memory and mimics the provider's
// benign void responses.
type MockBillingGateway struct {
	mu       sync.Mutex
	invoices map[string]*GatewayInvoice
	pending  map[string][]LineItem
}

// NewMockBillingGateway creates an in-memory gateway.
func NewMockBillingGateway() *MockBillingGateway {
	return &MockBillingGateway{
		invoices: make(map[string]*GatewayInvoice),
		pending:  make(map[string][]LineItem),
	}
}

func (m *MockBillingGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	id := "cus_mock_" + ulid.Make().String()
	log.Printf("[MockBilling] Created customer %s for %s", id, email)
	return id, nil
}

func (m *MockBillingGateway) CreateInvoice(ctx context.Context, customerID, description string, items []LineItem) (*GatewayInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, item := range items {
		total += item.AmountCents
	}
	for _, item := range m.pending[customerID] {
		total += item.AmountCents
	}
	delete(m.pending, customerID)

	invoice := &GatewayInvoice{
		ID:        "in_mock_" + ulid.Make().String(),
		Status:    "draft",
		AmountDue: total,
		DueDate:   time.Now().UTC().Add(14 * 24 * time.Hour),
	}
	m.invoices[invoice.ID] = invoice
	log.Printf("[MockBilling] Created invoice %s (%d cents) for %s", invoice.ID, total, customerID)
	return invoice, nil
}

func (m *MockBillingGateway) FinalizeInvoice(ctx context.Context, invoiceID string) (*GatewayInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	invoice, ok := m.invoices[invoiceID]
	if !ok {
		return nil, &GatewayError{Code: stripe.CodeResourceMissing, Type: "invalid_request_error", Message: "no such invoice: " + invoiceID}
	}
	invoice.Status = "open"
	return invoice, nil
}

func (m *MockBillingGateway) VoidInvoice(ctx context.Context, invoiceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	invoice, ok := m.invoices[invoiceID]
	if !ok {
		return &GatewayError{Code: stripe.CodeResourceMissing, Type: "invalid_request_error", Message: "no such invoice: " + invoiceID}
	}
	switch invoice.Status {
	case "void":
		return &GatewayError{Code: stripe.CodeInvoiceAlreadyVoid, Type: "invalid_request_error", Message: "invoice already void"}
	case "paid":
		return &GatewayError{Code: stripe.CodeInvoiceAlreadyPaid, Type: "invalid_request_error", Message: "invoice already paid"}
	}
	invoice.Status = "void"
	return nil
}

func (m *MockBillingGateway) AddPendingLineItem(ctx context.Context, customerID string, item LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[customerID] = append(m.pending[customerID], item)
	return nil
}
