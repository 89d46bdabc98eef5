package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error codes returned by the Stripe API that the billing layer makes
// decisions on.
const (
	CodeResourceMissing    = "resource_missing"
	CodeInvoiceAlreadyPaid = "invoice_already_paid"
	CodeInvoiceAlreadyVoid = "invoice_already_void"
	CodeInvoiceNotOpen     = "invoice_not_open"
)

// Config holds Stripe API configuration.
type Config struct {
	SecretKey     string // sk_... secret API key
	WebhookSecret string // whsec_... endpoint signing secret
	BaseURL       string // defaults to https://api.stripe.com
}

// Client is a minimal Stripe API client covering customers and
// invoicing. Requests are form-encoded per the Stripe wire format.
type Client struct {
	config     Config
	httpClient *http.Client
}

// APIError is a structured error returned by the Stripe API.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (%s): %s", e.Type, e.Code, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Customer is a Stripe customer object.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Invoice is a Stripe invoice object, reduced to the fields we read.
type Invoice struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customer"`
	Status           string `json:"status"` // draft, open, paid, void, uncollectible
	AmountDue        int64  `json:"amount_due"`
	Currency         string `json:"currency"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	DueDate          int64  `json:"due_date"` // unix seconds
}

// InvoiceItem is a Stripe invoice line item.
type InvoiceItem struct {
	ID          string `json:"id"`
	CustomerID  string `json:"customer"`
	InvoiceID   string `json:"invoice"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

// NewClient creates a Stripe API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// call executes one form-encoded API request and decodes the response
// into out. Non-2xx responses are returned as *APIError.
func (c *Client) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Error.Message == "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Type:       "api_error",
				Message:    fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
			}
		}
		apiErr := envelope.Error
		apiErr.StatusCode = resp.StatusCode
		log.Printf("[Stripe] %s %s failed: %s (%s)", method, path, apiErr.Code, apiErr.Message)
		return &apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// CreateCustomer creates a Stripe customer.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (*Customer, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)

	var customer Customer
	if err := c.call(ctx, http.MethodPost, "/v1/customers", form, &customer); err != nil {
		return nil, err
	}
	log.Printf("[Stripe] Created customer %s for %s", customer.ID, email)
	return &customer, nil
}

// CreateInvoice creates a draft invoice that collects pending invoice
// items via send_invoice collection.
func (c *Client) CreateInvoice(ctx context.Context, customerID, currency, description string, daysUntilDue int) (*Invoice, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("currency", currency)
	form.Set("description", description)
	form.Set("collection_method", "send_invoice")
	form.Set("days_until_due", strconv.Itoa(daysUntilDue))
	form.Set("pending_invoice_items_behavior", "include")

	var invoice Invoice
	if err := c.call(ctx, http.MethodPost, "/v1/invoices", form, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CreateInvoiceItem adds a line item. With invoiceID set the item lands
// on that invoice; empty, it stays pending until the next invoice is
// created for the customer.
func (c *Client) CreateInvoiceItem(ctx context.Context, customerID, invoiceID, currency, description string, amount int64) (*InvoiceItem, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("currency", currency)
	form.Set("description", description)
	form.Set("amount", strconv.FormatInt(amount, 10))
	if invoiceID != "" {
		form.Set("invoice", invoiceID)
	}

	var item InvoiceItem
	if err := c.call(ctx, http.MethodPost, "/v1/invoiceitems", form, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// FinalizeInvoice moves a draft invoice to open, which emails it to the
// customer under send_invoice collection.
func (c *Client) FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var invoice Invoice
	if err := c.call(ctx, http.MethodPost, "/v1/invoices/"+invoiceID+"/finalize", url.Values{}, &invoice); err != nil {
		return nil, err
	}
	log.Printf("[Stripe] Finalized invoice %s (%d %s due)", invoice.ID, invoice.AmountDue, invoice.Currency)
	return &invoice, nil
}

// VoidInvoice voids an open invoice.
func (c *Client) VoidInvoice(ctx context.Context, invoiceID string) error {
	return c.call(ctx, http.MethodPost, "/v1/invoices/"+invoiceID+"/void", url.Values{}, nil)
}

// GetInvoice fetches an invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var invoice Invoice
	if err := c.call(ctx, http.MethodGet, "/v1/invoices/"+invoiceID, nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// VerifyWebhookSignature checks a Stripe-Signature header against the
// endpoint secret. The header carries a unix timestamp and one or more
// v1 signatures; the signed payload is "<timestamp>.<body>" and the
// signature is HMAC-SHA256 under the endpoint secret. Signatures older
// than tolerance are rejected to limit replay.
func (c *Client) VerifyWebhookSignature(payload []byte, header string, now time.Time, tolerance time.Duration) error {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp: %w", err)
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return fmt.Errorf("signature timestamp outside tolerance")
		}
	}

	mac := hmac.New(sha256.New, []byte(c.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
