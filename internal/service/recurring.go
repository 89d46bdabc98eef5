package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deskhive/deskhive/internal/domain"
)

// billingCutoffDay is the day of month after which a new plan's
// next-month bucket is invoiced immediately instead of waiting for the
// monthly invoicing run.
const billingCutoffDay = 16

// RecurringService owns the recurring booking lifecycle: creating a
// plan, materializing its occurrences, invoicing its month buckets, and
// tearing it down.
type RecurringService struct {
	groups   domain.RecurringGroupRepository
	bookings domain.BookingRepository
	invoices domain.InvoiceRepository
	users    domain.UserRepository
	rooms    domain.RoomRepository
	txn      domain.TxnRunner
	gateway  BillingGateway
	notifier Notifier
	currency string
	now      func() time.Time
}

// NewRecurringService wires the recurring booking service.
func NewRecurringService(
	groups domain.RecurringGroupRepository,
	bookings domain.BookingRepository,
	invoices domain.InvoiceRepository,
	users domain.UserRepository,
	rooms domain.RoomRepository,
	txn domain.TxnRunner,
	gateway BillingGateway,
	notifier Notifier,
	currency string,
) *RecurringService {
	return &RecurringService{
		groups:   groups,
		bookings: bookings,
		invoices: invoices,
		users:    users,
		rooms:    rooms,
		txn:      txn,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Used by the month-boundary
// jobs and by tests.
func (s *RecurringService) WithClock(now func() time.Time) *RecurringService {
	s.now = now
	return s
}

// RoomRequest selects one room for a recurring plan. Price and times
// are optional; absent values fall back to room and slot defaults.
type RoomRequest struct {
	RoomID    string  `json:"roomId"`
	Price     float64 `json:"price"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
}

// CreateGroupRequest describes a new recurring plan. An empty EndDate
// makes the plan open-ended.
type CreateGroupRequest struct {
	UserID    string          `json:"userId"`
	Weekdays  []string        `json:"weekdays"`
	TimeSlot  domain.TimeSlot `json:"timeSlot"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Rooms     []RoomRequest   `json:"rooms"`
}

func (r *CreateGroupRequest) validate() (start domain.Date, end domain.Date, err error) {
	if r.UserID == "" {
		return start, end, domain.NewValidationError("userId", "required")
	}
	if len(r.Weekdays) == 0 {
		return start, end, domain.NewValidationError("weekdays", "at least one weekday required")
	}
	for _, w := range r.Weekdays {
		if _, ok := domain.WeekdayNumber(w); !ok {
			return start, end, domain.NewValidationError("weekdays", "unknown weekday "+w)
		}
	}
	if !r.TimeSlot.IsValid() {
		return start, end, domain.NewValidationError("timeSlot", "unknown time slot "+string(r.TimeSlot))
	}
	if len(r.Rooms) == 0 {
		return start, end, domain.NewValidationError("rooms", "at least one room required")
	}
	start, err = domain.ParseDate(r.StartDate)
	if err != nil {
		return start, end, domain.NewValidationError("startDate", err.Error())
	}
	if r.EndDate != "" {
		end, err = domain.ParseDate(r.EndDate)
		if err != nil {
			return start, end, domain.NewValidationError("endDate", err.Error())
		}
		if end.Before(start) {
			return start, end, domain.NewValidationError("endDate", "end date before start date")
		}
	}
	return start, end, nil
}

// candidateDates enumerates the plan's occurrence dates. Open-ended
// plans materialize only the start month's remainder plus the full next
// month; the monthly job extends them afterwards.
func candidateDates(start, end domain.Date, openEnded bool, weekdays []string) []domain.Date {
	if !openEnded {
		return domain.DatesInRange(start, end, weekdays)
	}
	current := domain.DatesInRange(start, start.MonthKey().LastDay(), weekdays)
	next := start.MonthKey().Next()
	return append(current, domain.DatesInRange(next.FirstDay(), next.LastDay(), weekdays)...)
}

// CreateGroup creates a recurring plan: validates the request,
// classifies room availability, materializes the booking occurrences,
// raises or stages the billing charges, and persists the aggregate in
// one transaction.
func (s *RecurringService) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*domain.RecurringBookingGroup, error) {
	start, end, err := req.validate()
	if err != nil {
		return nil, err
	}
	openEnded := req.EndDate == ""

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	dates := candidateDates(start, end, openEnded, req.Weekdays)
	if len(dates) == 0 {
		return nil, domain.NewValidationError("weekdays", "no matching dates in the requested range")
	}

	selections, occupancy, err := s.resolveRooms(ctx, req, dates)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var group *domain.RecurringBookingGroup
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		group = &domain.RecurringBookingGroup{
			UserID:        req.UserID,
			Weekdays:      req.Weekdays,
			TimeSlot:      req.TimeSlot,
			StartDate:     start.String(),
			IsOpenEnded:   openEnded,
			Rooms:         selections,
			Status:        domain.GroupStatusActive,
			PaymentStatus: domain.GroupPaymentPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if !openEnded {
			group.EndDate = end.String()
		}

		created, err := s.groups.Create(ctx, group)
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		group = created

		if err := s.materializeDates(ctx, group, dates, occupancy); err != nil {
			return err
		}

		if err := s.billAtCreation(ctx, user, group, now); err != nil {
			return err
		}

		group.UpdatedAt = now
		if err := s.groups.Update(ctx, group); err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.sendConfirmation(user, group)
	return group, nil
}

// resolveRooms loads and prices each requested room and classifies its
// availability over the candidate dates. A room with no free date at
// all is rejected. The returned occupancy set holds the dates each room
// cannot take, so materialization skips them.
func (s *RecurringService) resolveRooms(ctx context.Context, req *CreateGroupRequest, dates []domain.Date) ([]domain.RoomSelection, map[string]bool, error) {
	occupancy := make(map[string]bool)
	selections := make([]domain.RoomSelection, 0, len(req.Rooms))

	for _, rr := range req.Rooms {
		room, err := s.rooms.GetByID(ctx, rr.RoomID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load room %s: %w", rr.RoomID, err)
		}
		if !room.IsActive {
			return nil, nil, domain.NewValidationError("rooms", "room "+room.ID+" is not active")
		}

		price, err := domain.ResolvePrice(rr.Price, room, req.TimeSlot)
		if err != nil {
			return nil, nil, err
		}

		startTime, endTime := rr.StartTime, rr.EndTime
		if startTime == "" || endTime == "" {
			startTime, endTime = req.TimeSlot.DefaultTimes()
		}

		free := 0
		for _, d := range dates {
			taken, err := s.bookings.ExistsActive(ctx, room.ID, d.String(), req.TimeSlot)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to check availability: %w", err)
			}
			if taken {
				occupancy[occupancyKey(room.ID, d.String())] = true
			} else {
				free++
			}
		}
		if free == 0 {
			return nil, nil, &domain.ConflictError{RoomID: room.ID, Dates: dates, TimeSlot: req.TimeSlot}
		}

		availability := domain.AvailabilityFull
		if free < len(dates) {
			availability = domain.AvailabilityPartial
		}
		selections = append(selections, domain.RoomSelection{
			RoomID:       room.ID,
			RoomName:     room.Name,
			Availability: availability,
			TimeSlot:     req.TimeSlot,
			StartTime:    startTime,
			EndTime:      endTime,
			Price:        price,
		})
	}
	return selections, occupancy, nil
}

func occupancyKey(roomID, date string) string {
	return roomID + "|" + date
}

// materializeDates creates one booking per free (room, date) pair and
// groups them into month buckets on the aggregate.
func (s *RecurringService) materializeDates(ctx context.Context, group *domain.RecurringBookingGroup, dates []domain.Date, occupancy map[string]bool) error {
	now := s.now()
	buckets := make(map[string]*domain.MonthBucket)
	var order []string

	for _, d := range dates {
		monthKey := d.MonthKey().String()
		bucket, ok := buckets[monthKey]
		if !ok {
			bucket = &domain.MonthBucket{Month: monthKey, PaymentStatus: domain.BucketPaymentPending}
			buckets[monthKey] = bucket
			order = append(order, monthKey)
		}

		for _, sel := range group.Rooms {
			if occupancy[occupancyKey(sel.RoomID, d.String())] {
				continue
			}
			booking := &domain.Booking{
				UserID:            group.UserID,
				RoomID:            sel.RoomID,
				Date:              d.String(),
				DayOfWeek:         d.WeekdayName(),
				TimeSlot:          sel.TimeSlot,
				StartTime:         sel.StartTime,
				EndTime:           sel.EndTime,
				Price:             sel.Price,
				PaymentStatus:     domain.BookingPaymentPending,
				Status:            domain.BookingStatusUpcoming,
				IsRecurring:       true,
				RecurrenceGroupID: group.ID,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			created, err := s.bookings.Create(ctx, booking)
			if err != nil {
				return fmt.Errorf("failed to create booking for %s: %w", d, err)
			}
			bucket.BookingIDs = append(bucket.BookingIDs, created.ID)
			bucket.Price += sel.Price
		}
	}

	for _, key := range order {
		bucket := buckets[key]
		if len(bucket.BookingIDs) == 0 {
			continue
		}
		group.MonthlyBookings = append(group.MonthlyBookings, *bucket)
	}
	if len(group.MonthlyBookings) == 0 {
		return domain.NewValidationError("rooms", "no bookable dates remain after conflicts")
	}
	return nil
}

// billAtCreation raises the creation-time charges. A fixed-term plan's
// whole range is its current period, so every bucket is invoiced right
// away. For open-ended plans the current month's bucket is invoiced
// immediately; the next-month bucket is also invoiced immediately when
// today is past the billing cutoff (after the 16th or on the month's
// last day), and before the cutoff its charges are staged as pending
// line items for the invoicing job to sweep.
func (s *RecurringService) billAtCreation(ctx context.Context, user *domain.User, group *domain.RecurringBookingGroup, now time.Time) error {
	currentMonth := domain.MonthOf(now)
	pastCutoff := now.Day() > billingCutoffDay || domain.DateOf(now) == currentMonth.LastDay()

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return err
	}

	for i := range group.MonthlyBookings {
		bucket := &group.MonthlyBookings[i]

		if !group.IsOpenEnded {
			if err := s.invoiceBucket(ctx, user, customerID, group, bucket); err != nil {
				return err
			}
			continue
		}

		bucketMonth, err := domain.ParseMonth(bucket.Month)
		if err != nil {
			return fmt.Errorf("corrupt bucket month %q: %w", bucket.Month, err)
		}

		switch {
		case !bucketMonth.FirstDay().After(currentMonth.LastDay()):
			// Current (or past-dated) month: invoice right away.
			if err := s.invoiceBucket(ctx, user, customerID, group, bucket); err != nil {
				return err
			}
		case bucketMonth == currentMonth.Next() && pastCutoff:
			// The invoicing run for next month has already happened.
			if err := s.invoiceBucket(ctx, user, customerID, group, bucket); err != nil {
				return err
			}
		case bucketMonth == currentMonth.Next():
			if err := s.gateway.AddPendingLineItem(ctx, customerID, bucketLineItem(bucket)); err != nil {
				return fmt.Errorf("failed to stage charges for %s: %w", bucket.Month, err)
			}
			bucket.ItemsPushed = true
		}
		// Buckets further out wait for their own invoicing run.
	}
	return nil
}

func bucketLineItem(bucket *domain.MonthBucket) LineItem {
	return LineItem{
		Description: fmt.Sprintf("Recurring bookings %s (%d sessions)", bucket.Month, len(bucket.BookingIDs)),
		AmountCents: Cents(bucket.Price),
	}
}

// ensureCustomer returns the user's billing customer id, creating it at
// the provider on first use.
func (s *RecurringService) ensureCustomer(ctx context.Context, user *domain.User) (string, error) {
	if user.ExternalCustomerID != "" {
		return user.ExternalCustomerID, nil
	}
	customerID, err := s.gateway.CreateCustomer(ctx, user.Name, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to create billing customer: %w", err)
	}
	if err := s.users.SetExternalCustomerID(ctx, user.ID, customerID); err != nil {
		return "", fmt.Errorf("failed to store customer id: %w", err)
	}
	user.ExternalCustomerID = customerID
	return customerID, nil
}

// invoiceBucket raises and finalizes the provider invoice for one month
// bucket and records the local invoice. Charges already staged as
// pending line items are swept in by the provider, not re-added.
func (s *RecurringService) invoiceBucket(ctx context.Context, user *domain.User, customerID string, group *domain.RecurringBookingGroup, bucket *domain.MonthBucket) error {
	if bucket.ExternalInvoiceID != "" {
		return nil
	}

	var items []LineItem
	if !bucket.ItemsPushed {
		items = []LineItem{bucketLineItem(bucket)}
	}
	description := fmt.Sprintf("Recurring bookings %s", bucket.Month)

	invoice, err := s.gateway.CreateInvoice(ctx, customerID, description, items)
	if err != nil {
		return fmt.Errorf("failed to create invoice for %s: %w", bucket.Month, err)
	}
	finalized, err := s.gateway.FinalizeInvoice(ctx, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize invoice %s: %w", invoice.ID, err)
	}

	now := s.now()
	record := &domain.Invoice{
		UserID:     user.ID,
		GroupID:    group.ID,
		Month:      bucket.Month,
		ExternalID: finalized.ID,
		Amount:     bucket.Price,
		Currency:   s.currency,
		Status:     domain.InvoiceStatusSent,
		DueDate:    finalized.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := record.Validate(); err != nil {
		return err
	}
	created, err := s.invoices.Create(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to record invoice: %w", err)
	}

	bucket.ExternalInvoiceID = finalized.ID
	bucket.InvoiceID = created.ID
	bucket.ItemsPushed = true
	log.Printf("[Recurring] Invoiced bucket %s of group %s: %s", bucket.Month, group.ID, finalized.ID)
	return nil
}

// GetGroup loads a group, enforcing ownership.
func (s *RecurringService) GetGroup(ctx context.Context, groupID, userID string) (*domain.RecurringBookingGroup, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return group, nil
}

// ListGroups returns the caller's recurring plans.
func (s *RecurringService) ListGroups(ctx context.Context, userID string) ([]*domain.RecurringBookingGroup, error) {
	return s.groups.ListByUser(ctx, userID)
}

// CancelGroup stops a plan from effectiveDate onward: bookings on or
// after the effective date are cancelled, every bucket invoice is
// voided at the provider, and every local invoice record closes with
// the group. A bucket's own payment status flips to cancelled only
// once none of its bookings remain active. A void that fails because
// the invoice is already settled or gone is tolerated; any other
// provider failure aborts the whole cancellation. Admins may cancel
// any group, members only their own.
func (s *RecurringService) CancelGroup(ctx context.Context, groupID, userID, userRole string, effectiveDate domain.Date) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.UserID != userID && userRole != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if group.Status == domain.GroupStatusCancelled {
		return domain.NewValidationError("groupId", "group already cancelled")
	}
	if effectiveDate.IsZero() {
		effectiveDate = domain.DateOf(s.now())
	}

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range group.MonthlyBookings {
			bucket := &group.MonthlyBookings[i]

			members, err := s.bookings.GetByIDs(ctx, bucket.BookingIDs)
			if err != nil {
				return fmt.Errorf("failed to load bucket bookings: %w", err)
			}
			var cancelIDs []string
			remaining := 0
			for _, b := range members {
				if !b.IsActive() {
					continue
				}
				if b.Date >= effectiveDate.String() {
					cancelIDs = append(cancelIDs, b.ID)
				} else {
					remaining++
				}
			}
			if len(cancelIDs) > 0 {
				if err := s.bookings.UpdateStatusByIDs(ctx, cancelIDs, domain.BookingStatusCancelled); err != nil {
					return fmt.Errorf("failed to cancel bookings: %w", err)
				}
			}
			if len(bucket.BookingIDs) > 0 && remaining == 0 {
				bucket.PaymentStatus = domain.BucketPaymentCancelled
			}

			if err := s.voidBucketInvoice(ctx, bucket); err != nil {
				return err
			}
		}

		if err := s.invoices.CancelByGroup(ctx, group.ID); err != nil {
			return fmt.Errorf("failed to cancel invoices: %w", err)
		}

		group.Status = domain.GroupStatusCancelled
		group.NextBillingDate = nil
		group.UpdatedAt = s.now()
		if err := s.groups.Update(ctx, group); err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		log.Printf("[Recurring] Cancelled group %s effective %s", group.ID, effectiveDate)
		return nil
	})
}

// voidBucketInvoice voids a bucket's provider invoice, swallowing the
// benign outcomes (already paid, already void, not open, missing).
func (s *RecurringService) voidBucketInvoice(ctx context.Context, bucket *domain.MonthBucket) error {
	if bucket.ExternalInvoiceID == "" {
		return nil
	}
	if err := s.gateway.VoidInvoice(ctx, bucket.ExternalInvoiceID); err != nil {
		if IsBenignVoidError(err) {
			log.Printf("[Recurring] Void of %s skipped: %v", bucket.ExternalInvoiceID, err)
			return nil
		}
		return fmt.Errorf("failed to void invoice %s: %w", bucket.ExternalInvoiceID, err)
	}
	return nil
}

// DeleteGroup removes a plan and everything attached to it: bookings,
// local invoices, and the group document. Unpaid provider invoices are
// voided first under the same benign-error policy as cancellation.
func (s *RecurringService) DeleteGroup(ctx context.Context, groupID string) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range group.MonthlyBookings {
			bucket := &group.MonthlyBookings[i]
			if bucket.PaymentStatus == domain.BucketPaymentPaid {
				continue
			}
			if err := s.voidBucketInvoice(ctx, bucket); err != nil {
				return err
			}
		}

		if ids := group.AllBookingIDs(); len(ids) > 0 {
			if err := s.bookings.DeleteByIDs(ctx, ids); err != nil {
				return fmt.Errorf("failed to delete bookings: %w", err)
			}
		}
		if err := s.invoices.DeleteByGroup(ctx, group.ID); err != nil {
			return fmt.Errorf("failed to delete invoices: %w", err)
		}
		if err := s.groups.Delete(ctx, group.ID); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		log.Printf("[Recurring] Deleted group %s", group.ID)
		return nil
	})
}

// MarkMonthPaid applies a payment status to the month bucket carrying
// the given provider invoice id, fanning the status out to the bucket's
// bookings and local invoice. Returns false when no group carries the
// invoice. Once every
// bucket is paid the group's own payment status becomes paid, and a
// fixed-term group additionally completes.
func (s *RecurringService) MarkMonthPaid(ctx context.Context, externalInvoiceID, status string) (bool, error) {
	group, err := s.groups.FindByBucketInvoiceID(ctx, externalInvoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	bucket := group.BucketByInvoiceID(externalInvoiceID)
	if bucket == nil {
		return false, nil
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		bucket.PaymentStatus = status

		bookingStatus := domain.BookingPaymentPending
		invoiceStatus := domain.InvoiceStatusSent
		switch status {
		case domain.BucketPaymentPaid:
			bookingStatus = domain.BookingPaymentPaid
			invoiceStatus = domain.InvoiceStatusPaid
		case domain.BucketPaymentFailed:
			bookingStatus = domain.BookingPaymentFailed
		}

		if len(bucket.BookingIDs) > 0 {
			if err := s.bookings.UpdatePaymentStatusByIDs(ctx, bucket.BookingIDs, bookingStatus); err != nil {
				return fmt.Errorf("failed to update booking payments: %w", err)
			}
		}
		if err := s.invoices.UpdateStatusByExternalID(ctx, externalInvoiceID, invoiceStatus); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to update invoice: %w", err)
		}

		if status == domain.BucketPaymentPaid && group.AllBucketsPaid() {
			group.PaymentStatus = domain.GroupPaymentPaid
			if !group.IsOpenEnded {
				group.Status = domain.GroupStatusCompleted
			}
		}
		group.UpdatedAt = s.now()
		if err := s.groups.Update(ctx, group); err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	log.Printf("[Recurring] Bucket %s of group %s marked %s", bucket.Month, group.ID, status)
	return true, nil
}

func (s *RecurringService) sendConfirmation(user *domain.User, group *domain.RecurringBookingGroup) {
	var total float64
	sessions := 0
	for i := range group.MonthlyBookings {
		total += group.MonthlyBookings[i].Price
		sessions += len(group.MonthlyBookings[i].BookingIDs)
	}
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your recurring booking is confirmed: %d sessions starting %s, %.2f %s in total so far. Invoices arrive by email each month.</p>",
		user.Name, sessions, group.StartDate, total, s.currency,
	)
	if err := s.notifier.Send(user.Email, "Recurring booking confirmed", body); err != nil {
		log.Printf("[Recurring] Confirmation email to %s failed: %v", user.Email, err)
	}
}
