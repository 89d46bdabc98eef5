package handler

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskhive/deskhive/internal/service"
)

// signatureTolerance bounds how old a webhook signature may be.
const signatureTolerance = 5 * time.Minute

// SignatureVerifier checks a webhook payload against its signature
// header.
type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, header string, now time.Time, tolerance time.Duration) error
}

// WebhookHandler receives billing provider events.
type WebhookHandler struct {
	recurring *service.RecurringService
	verifier  SignatureVerifier
}

// NewWebhookHandler creates a new WebhookHandler. A nil verifier skips
// signature checks (mock billing mode).
func NewWebhookHandler(recurring *service.RecurringService, verifier SignatureVerifier) *WebhookHandler {
	return &WebhookHandler{recurring: recurring, verifier: verifier}
}

// webhookEvent is the provider event envelope, reduced to the fields
// the reconciliation needs.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// BillingWebhook handles POST /api/webhooks/billing
// Public endpoint; authenticity comes from the signature header. The
// provider retries on non-2xx, so every recognized-but-unactionable
// event is still acknowledged.
func (h *WebhookHandler) BillingWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if h.verifier != nil {
		header := c.Get("Stripe-Signature")
		if err := h.verifier.VerifyWebhookSignature(body, header, time.Now().UTC(), signatureTolerance); err != nil {
			log.Printf("[Webhook] Signature verification failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid signature",
			})
		}
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[Webhook] Failed to parse event: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid event payload",
		})
	}

	log.Printf("[Webhook] Received %s for invoice %s", event.Type, event.Data.Object.ID)

	var status string
	switch event.Type {
	case "invoice.paid", "invoice.payment_succeeded":
		status = "paid"
	case "invoice.payment_failed":
		status = "failed"
	default:
		// Not an invoice lifecycle event we track.
		return c.JSON(fiber.Map{"received": true})
	}

	if err := h.recurring.ReconcileInvoice(c.UserContext(), event.Data.Object.ID, status); err != nil {
		log.Printf("[Webhook] Reconciliation failed for %s: %v", event.Data.Object.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to process event",
		})
	}
	return c.JSON(fiber.Map{"received": true})
}
