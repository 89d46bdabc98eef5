package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/deskhive/deskhive/internal/domain"
	"github.com/deskhive/deskhive/internal/service"
)

// RecurringHandler handles recurring booking API endpoints.
type RecurringHandler struct {
	recurring *service.RecurringService
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurring *service.RecurringService) *RecurringHandler {
	return &RecurringHandler{recurring: recurring}
}

// callerID pulls the authenticated user id set by the auth middleware.
func callerID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("userID").(string)
	return userID, ok && userID != ""
}

// writeDomainError maps domain errors to HTTP responses.
func writeDomainError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   ve.Message,
			"field":   ve.Field,
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   conflict.Error(),
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not found",
		})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "forbidden",
		})
	}
	log.Printf("[RecurringHandler] Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
	})
}

// Create handles POST /api/recurring-bookings
func (h *RecurringHandler) Create(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	var req service.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	req.UserID = userID

	group, err := h.recurring.CreateGroup(c.UserContext(), &req)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    group,
	})
}

// Get handles GET /api/recurring-bookings/:id
func (h *RecurringHandler) Get(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	group, err := h.recurring.GetGroup(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    group,
	})
}

// List handles GET /api/recurring-bookings
func (h *RecurringHandler) List(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	groups, err := h.recurring.ListGroups(c.UserContext(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    groups,
	})
}

// CancelRequest carries the optional cancellation effective date.
type CancelRequest struct {
	EffectiveDate string `json:"effectiveDate"`
}

// Cancel handles POST /api/recurring-bookings/:id/cancel
func (h *RecurringHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	var req CancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid request body",
			})
		}
	}

	var effective domain.Date
	if req.EffectiveDate != "" {
		var err error
		effective, err = domain.ParseDate(req.EffectiveDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid effectiveDate",
			})
		}
	}

	userRole, _ := c.Locals("userRole").(string)
	if err := h.recurring.CancelGroup(c.UserContext(), c.Params("id"), userID, userRole, effective); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "recurring booking cancelled",
	})
}

// Delete handles DELETE /api/recurring-bookings/:id
// Admin only (enforced by route middleware): hard-deletes the group
// with its bookings and invoices.
func (h *RecurringHandler) Delete(c *fiber.Ctx) error {
	if err := h.recurring.DeleteGroup(c.UserContext(), c.Params("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "recurring booking deleted",
	})
}

// AvailableRooms handles POST /api/recurring-bookings/available-rooms
func (h *RecurringHandler) AvailableRooms(c *fiber.Ctx) error {
	if _, ok := callerID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	var req service.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	rooms, err := h.recurring.AvailableRooms(c.UserContext(), &req)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    rooms,
	})
}
