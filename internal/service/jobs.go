package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/deskhive/deskhive/internal/domain"
)

// MaterializeNextMonth extends every active open-ended plan with the
// bookings of the upcoming month. Each group runs in its own
// transaction; one failing group is logged and skipped, the rest
// proceed. Re-running the job is safe: groups whose upcoming bucket
// already exists are left alone.
func (s *RecurringService) MaterializeNextMonth(ctx context.Context) error {
	groups, err := s.groups.ListActiveOpenEnded(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open-ended groups: %w", err)
	}

	next := domain.MonthOf(s.now()).Next()
	materialized := 0
	for _, group := range groups {
		if group.Bucket(next.String()) != nil {
			continue
		}
		if err := s.materializeMonth(ctx, group, next); err != nil {
			log.Printf("[Jobs] Materialize %s for group %s failed: %v", next, group.ID, err)
			continue
		}
		materialized++
	}
	log.Printf("[Jobs] Materialized %s for %d of %d open-ended groups", next, materialized, len(groups))
	return nil
}

func (s *RecurringService) materializeMonth(ctx context.Context, group *domain.RecurringBookingGroup, month domain.Month) error {
	dates := domain.DatesInRange(month.FirstDay(), month.LastDay(), group.Weekdays)
	if len(dates) == 0 {
		return nil
	}

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		occupancy := make(map[string]bool)
		for _, sel := range group.Rooms {
			for _, d := range dates {
				taken, err := s.bookings.ExistsActive(ctx, sel.RoomID, d.String(), sel.TimeSlot)
				if err != nil {
					return fmt.Errorf("failed to check availability: %w", err)
				}
				if taken {
					occupancy[occupancyKey(sel.RoomID, d.String())] = true
				}
			}
		}

		before := len(group.MonthlyBookings)
		if err := s.materializeDates(ctx, group, dates, occupancy); err != nil {
			return err
		}
		if len(group.MonthlyBookings) == before {
			// Every date conflicted; nothing to persist.
			return nil
		}

		group.UpdatedAt = s.now()
		return s.groups.Update(ctx, group)
	})
}

// InvoiceUpcomingMonth raises the provider invoice for next month's
// bucket of every active open-ended plan. Buckets already invoiced are
// skipped, so re-running the job cannot double-bill. Per-group failures
// are logged and do not stop the run.
func (s *RecurringService) InvoiceUpcomingMonth(ctx context.Context) error {
	groups, err := s.groups.ListActiveOpenEnded(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open-ended groups: %w", err)
	}

	next := domain.MonthOf(s.now()).Next()
	invoiced := 0
	for _, group := range groups {
		bucket := group.Bucket(next.String())
		if bucket == nil || len(bucket.BookingIDs) == 0 || bucket.ExternalInvoiceID != "" {
			continue
		}
		if err := s.invoiceGroupBucket(ctx, group, bucket); err != nil {
			log.Printf("[Jobs] Invoice %s for group %s failed: %v", next, group.ID, err)
			continue
		}
		invoiced++
	}
	log.Printf("[Jobs] Invoiced %s buckets for %d of %d open-ended groups", next, invoiced, len(groups))
	return nil
}

func (s *RecurringService) invoiceGroupBucket(ctx context.Context, group *domain.RecurringBookingGroup, bucket *domain.MonthBucket) error {
	user, err := s.users.GetByID(ctx, group.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return err
	}

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.invoiceBucket(ctx, user, customerID, group, bucket); err != nil {
			return err
		}
		nextBilling := domain.MonthOf(s.now()).Next().Next().FirstDay().Time()
		group.NextBillingDate = &nextBilling
		group.UpdatedAt = s.now()
		return s.groups.Update(ctx, group)
	})
}

// ReconcileInvoice applies a provider-reported invoice status to local
// state. It first tries the recurring path (month buckets), then single
// bookings. An invoice nobody recognizes is logged and dropped so the
// provider is still acknowledged.
func (s *RecurringService) ReconcileInvoice(ctx context.Context, externalInvoiceID, providerStatus string) error {
	bucketStatus, bookingStatus, invoiceStatus, ok := mapProviderStatus(providerStatus)
	if !ok {
		log.Printf("[Recurring] Ignoring invoice %s with status %q", externalInvoiceID, providerStatus)
		return nil
	}

	matched, err := s.MarkMonthPaid(ctx, externalInvoiceID, bucketStatus)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}

	booking, err := s.bookings.FindByExternalInvoiceID(ctx, externalInvoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("[Recurring] No local record for invoice %s", externalInvoiceID)
			return nil
		}
		return err
	}

	if err := s.bookings.UpdatePaymentStatus(ctx, booking.ID, bookingStatus); err != nil {
		return fmt.Errorf("failed to update booking payment: %w", err)
	}
	if err := s.invoices.UpdateStatusByExternalID(ctx, externalInvoiceID, invoiceStatus); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

func mapProviderStatus(providerStatus string) (bucket, booking, invoice string, ok bool) {
	switch providerStatus {
	case "paid":
		return domain.BucketPaymentPaid, domain.BookingPaymentPaid, domain.InvoiceStatusPaid, true
	case "failed":
		return domain.BucketPaymentFailed, domain.BookingPaymentFailed, domain.InvoiceStatusSent, true
	}
	return "", "", "", false
}
