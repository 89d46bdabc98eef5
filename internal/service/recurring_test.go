package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/domain"
)

func testRoom() *domain.Room {
	return &domain.Room{
		ID:           "room-1",
		Name:         "Alpha",
		Price:        30,
		MorningPrice: 20,
		IsActive:     true,
	}
}

// 2026-09-14 is a Monday. Mondays in September 2026 from the 14th:
// 14, 21, 28. Mondays in October 2026: 5, 12, 19, 26.
func mondayRequest() *CreateGroupRequest {
	return &CreateGroupRequest{
		UserID:    "user-1",
		Weekdays:  []string{"Monday"},
		TimeSlot:  domain.SlotMorning,
		StartDate: "2026-09-14",
		Rooms:     []RoomRequest{{RoomID: "room-1"}},
	}
}

func TestCreateGroupOpenEndedBeforeCutoff(t *testing.T) {
	// The 10th is before the billing cutoff: only the current month's
	// bucket is invoiced; next month's charges are staged as pending
	// line items for the monthly invoicing run.
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)

	require.Len(t, group.MonthlyBookings, 2)
	sep, oct := group.MonthlyBookings[0], group.MonthlyBookings[1]

	assert.Equal(t, "2026-09", sep.Month)
	assert.Len(t, sep.BookingIDs, 3)
	assert.Equal(t, 60.0, sep.Price)
	assert.NotEmpty(t, sep.ExternalInvoiceID)
	assert.NotEmpty(t, sep.InvoiceID)

	assert.Equal(t, "2026-10", oct.Month)
	assert.Len(t, oct.BookingIDs, 4)
	assert.Equal(t, 80.0, oct.Price)
	assert.Empty(t, oct.ExternalInvoiceID)
	assert.True(t, oct.ItemsPushed)

	assert.Len(t, env.gateway.finalized, 1)
	assert.Len(t, env.gateway.pendingItems, 1)
	assert.Equal(t, Cents(80), env.gateway.pendingItems[0].AmountCents)

	inv, err := env.invoices.GetByExternalID(context.Background(), sep.ExternalInvoiceID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, inv.Status)
	assert.Equal(t, "2026-09", inv.Month)
	assert.Equal(t, group.ID, inv.GroupID)
	assert.Empty(t, inv.BookingID)

	assert.True(t, group.IsOpenEnded)
	assert.Equal(t, domain.GroupStatusActive, group.Status)
	assert.GreaterOrEqual(t, env.txn.calls, 1)
}

func TestCreateGroupOpenEndedAfterCutoff(t *testing.T) {
	// Past the 16th the invoicing run for next month already happened,
	// so the next-month bucket is invoiced immediately as well.
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)

	require.Len(t, group.MonthlyBookings, 2)
	for _, bucket := range group.MonthlyBookings {
		assert.NotEmpty(t, bucket.ExternalInvoiceID, "bucket %s", bucket.Month)
	}
	assert.Len(t, env.gateway.finalized, 2)
	assert.Empty(t, env.gateway.pendingItems)
}

func TestCreateGroupStartingNextMonthPastCutoff(t *testing.T) {
	// Created late in February for a plan starting in March: March is
	// next month and the cutoff has passed, so its bucket is invoiced
	// immediately. April waits for its own invoicing run.
	now := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	req := mondayRequest()
	req.StartDate = "2026-03-02" // Monday
	group, err := env.svc.CreateGroup(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, group.MonthlyBookings, 2)
	assert.Equal(t, "2026-03", group.MonthlyBookings[0].Month)
	assert.NotEmpty(t, group.MonthlyBookings[0].ExternalInvoiceID)
	assert.Equal(t, "2026-04", group.MonthlyBookings[1].Month)
	assert.Empty(t, group.MonthlyBookings[1].ExternalInvoiceID)
	assert.False(t, group.MonthlyBookings[1].ItemsPushed)
}

func TestCreateGroupFixedTermBucketsPerMonth(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	req := mondayRequest()
	req.EndDate = "2026-09-28"
	group, err := env.svc.CreateGroup(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, group.MonthlyBookings, 1)
	assert.Equal(t, "2026-09", group.MonthlyBookings[0].Month)
	assert.Len(t, group.MonthlyBookings[0].BookingIDs, 3)
	assert.NotEmpty(t, group.MonthlyBookings[0].ExternalInvoiceID)
	assert.False(t, group.IsOpenEnded)
	assert.Equal(t, "2026-09-28", group.EndDate)
	assert.Len(t, env.gateway.finalized, 1)
}

func TestCreateGroupFixedTermInvoicesWholeRange(t *testing.T) {
	// A fixed-term plan spanning several months is billed in full at
	// creation: every bucket gets its own invoice immediately, nothing
	// is staged for the monthly invoicing run.
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	req := mondayRequest()
	req.EndDate = "2026-11-30"
	group, err := env.svc.CreateGroup(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, group.MonthlyBookings, 3)
	for _, bucket := range group.MonthlyBookings {
		assert.NotEmpty(t, bucket.ExternalInvoiceID, "bucket %s", bucket.Month)
		assert.False(t, bucket.ItemsPushed, "bucket %s", bucket.Month)

		inv, err := env.invoices.GetByExternalID(context.Background(), bucket.ExternalInvoiceID)
		require.NoError(t, err)
		assert.Equal(t, bucket.Month, inv.Month)
	}
	assert.Len(t, env.gateway.finalized, 3)
	assert.Empty(t, env.gateway.pendingItems)

	// The monthly invoicing run only covers open-ended plans and has
	// nothing left to pick up here.
	require.NoError(t, env.svc.InvoiceUpcomingMonth(context.Background()))
	assert.Len(t, env.gateway.finalized, 3)
}

func TestCreateGroupPartialAvailabilitySkipsConflicts(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	_, err := env.bookings.Create(context.Background(), &domain.Booking{
		RoomID:   "room-1",
		Date:     "2026-09-21",
		TimeSlot: domain.SlotMorning,
		Status:   domain.BookingStatusUpcoming,
	})
	require.NoError(t, err)

	req := mondayRequest()
	req.EndDate = "2026-09-28"
	group, err := env.svc.CreateGroup(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, group.Rooms, 1)
	assert.Equal(t, domain.AvailabilityPartial, group.Rooms[0].Availability)
	require.Len(t, group.MonthlyBookings, 1)
	assert.Len(t, group.MonthlyBookings[0].BookingIDs, 2) // 21st skipped
	assert.Equal(t, 40.0, group.MonthlyBookings[0].Price)
}

func TestCreateGroupAllDatesConflicted(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	for _, date := range []string{"2026-09-14", "2026-09-21", "2026-09-28"} {
		_, err := env.bookings.Create(context.Background(), &domain.Booking{
			RoomID:   "room-1",
			Date:     date,
			TimeSlot: domain.SlotMorning,
			Status:   domain.BookingStatusUpcoming,
		})
		require.NoError(t, err)
	}

	req := mondayRequest()
	req.EndDate = "2026-09-28"
	_, err := env.svc.CreateGroup(context.Background(), req)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "room-1", conflict.RoomID)
	require.Len(t, conflict.Dates, 3, "every blocked date is reported")
	assert.Contains(t, conflict.Error(), "2026-09-14")
	assert.Contains(t, conflict.Error(), "2026-09-21")
	assert.Contains(t, conflict.Error(), "2026-09-28")
}

func TestCreateGroupValidation(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*CreateGroupRequest)
		field  string
	}{
		{name: "missing user", mutate: func(r *CreateGroupRequest) { r.UserID = "" }, field: "userId"},
		{name: "no weekdays", mutate: func(r *CreateGroupRequest) { r.Weekdays = nil }, field: "weekdays"},
		{name: "bad weekday", mutate: func(r *CreateGroupRequest) { r.Weekdays = []string{"Blursday"} }, field: "weekdays"},
		{name: "bad slot", mutate: func(r *CreateGroupRequest) { r.TimeSlot = "brunch" }, field: "timeSlot"},
		{name: "no rooms", mutate: func(r *CreateGroupRequest) { r.Rooms = nil }, field: "rooms"},
		{name: "bad start", mutate: func(r *CreateGroupRequest) { r.StartDate = "14-09-2026" }, field: "startDate"},
		{name: "end before start", mutate: func(r *CreateGroupRequest) { r.EndDate = "2026-09-01" }, field: "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(now, testRoom())
			req := mondayRequest()
			tt.mutate(req)

			_, err := env.svc.CreateGroup(context.Background(), req)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCancelGroupVoidsEveryBucketInvoice(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)
	sepInvoice := group.MonthlyBookings[0].ExternalInvoiceID
	octInvoice := group.MonthlyBookings[1].ExternalInvoiceID

	effective, _ := domain.ParseDate("2026-10-01")
	require.NoError(t, env.svc.CancelGroup(context.Background(), group.ID, "user-1", domain.RoleMember, effective))

	got, err := env.groups.GetByID(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusCancelled, got.Status)
	assert.Nil(t, got.NextBillingDate)

	// September's bookings predate the effective date and stay active,
	// so the bucket itself is not marked cancelled. Its invoice is
	// still voided and closed along with the rest of the group.
	assert.Equal(t, domain.BucketPaymentPending, got.MonthlyBookings[0].PaymentStatus)
	assert.Contains(t, env.gateway.voided, sepInvoice)
	for _, id := range got.MonthlyBookings[0].BookingIDs {
		b, err := env.bookings.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusUpcoming, b.Status)
	}

	// October is voided and its bookings cancelled.
	assert.Equal(t, domain.BucketPaymentCancelled, got.MonthlyBookings[1].PaymentStatus)
	assert.Contains(t, env.gateway.voided, octInvoice)
	for _, id := range got.MonthlyBookings[1].BookingIDs {
		b, err := env.bookings.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	}

	// No invoice of the group is left collectible.
	for _, extID := range []string{sepInvoice, octInvoice} {
		inv, err := env.invoices.GetByExternalID(context.Background(), extID)
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusCancelled, inv.Status)
	}
}

func TestCancelGroupMidBucketKeepsActiveBookings(t *testing.T) {
	// Cancelling in the middle of a month cancels only the remaining
	// occurrences. The bucket keeps its pending payment status while
	// earlier bookings are still active.
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	req := mondayRequest()
	req.EndDate = "2026-09-28"
	group, err := env.svc.CreateGroup(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, group.MonthlyBookings, 1)
	sepInvoice := group.MonthlyBookings[0].ExternalInvoiceID

	effective, _ := domain.ParseDate("2026-09-22")
	require.NoError(t, env.svc.CancelGroup(context.Background(), group.ID, "user-1", domain.RoleMember, effective))

	got, err := env.groups.GetByID(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusCancelled, got.Status)
	assert.Equal(t, domain.BucketPaymentPending, got.MonthlyBookings[0].PaymentStatus,
		"bucket with active bookings must not flip to cancelled")
	assert.Contains(t, env.gateway.voided, sepInvoice)

	active := 0
	for _, id := range got.MonthlyBookings[0].BookingIDs {
		b, err := env.bookings.GetByID(context.Background(), id)
		require.NoError(t, err)
		if b.IsActive() {
			active++
		}
	}
	assert.Equal(t, 2, active, "the 14th and 21st stay booked")
}

func TestCancelGroupToleratesBenignVoidFailure(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)
	octInvoice := group.MonthlyBookings[1].ExternalInvoiceID
	env.gateway.voidErrors[octInvoice] = &GatewayError{
		Code: "invoice_already_void", Type: "invalid_request_error", Message: "already void",
	}

	effective, _ := domain.ParseDate("2026-10-01")
	require.NoError(t, env.svc.CancelGroup(context.Background(), group.ID, "user-1", domain.RoleMember, effective))

	got, _ := env.groups.GetByID(context.Background(), group.ID)
	assert.Equal(t, domain.GroupStatusCancelled, got.Status)
}

func TestCancelGroupAbortsOnRealVoidFailure(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)
	octInvoice := group.MonthlyBookings[1].ExternalInvoiceID
	env.gateway.voidErrors[octInvoice] = &GatewayError{
		Code: "rate_limit", Type: "api_error", Message: "too many requests",
	}

	effective, _ := domain.ParseDate("2026-10-01")
	err = env.svc.CancelGroup(context.Background(), group.ID, "user-1", domain.RoleMember, effective)
	require.Error(t, err)

	var gwErr *GatewayError
	assert.ErrorAs(t, err, &gwErr)
}

func TestCancelGroupOwnership(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)

	err = env.svc.CancelGroup(context.Background(), group.ID, "someone-else", domain.RoleMember, domain.Date{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = env.svc.CancelGroup(context.Background(), "grp-missing", "user-1", domain.RoleMember, domain.Date{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Admins may cancel groups they do not own.
	err = env.svc.CancelGroup(context.Background(), group.ID, "admin-1", domain.RoleAdmin, domain.Date{})
	require.NoError(t, err)
	got, _ := env.groups.GetByID(context.Background(), group.ID)
	assert.Equal(t, domain.GroupStatusCancelled, got.Status)
}

func TestDeleteGroupCascades(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)
	bookingIDs := group.AllBookingIDs()
	require.NotEmpty(t, bookingIDs)

	require.NoError(t, env.svc.DeleteGroup(context.Background(), group.ID))

	_, err = env.groups.GetByID(context.Background(), group.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	for _, id := range bookingIDs {
		_, err := env.bookings.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	// Both bucket invoices were unpaid and got voided.
	assert.Len(t, env.gateway.voided, 2)
}

func TestMarkMonthPaid(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	req := mondayRequest()
	req.EndDate = "2026-10-26"
	group, err := env.svc.CreateGroup(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, group.MonthlyBookings, 2)
	sepInvoice := group.MonthlyBookings[0].ExternalInvoiceID
	octInvoice := group.MonthlyBookings[1].ExternalInvoiceID

	matched, err := env.svc.MarkMonthPaid(context.Background(), sepInvoice, domain.BucketPaymentPaid)
	require.NoError(t, err)
	assert.True(t, matched)

	got, _ := env.groups.GetByID(context.Background(), group.ID)
	assert.Equal(t, domain.BucketPaymentPaid, got.MonthlyBookings[0].PaymentStatus)
	assert.Equal(t, domain.GroupStatusActive, got.Status, "one bucket still unpaid")
	assert.Equal(t, domain.GroupPaymentPending, got.PaymentStatus)
	for _, id := range got.MonthlyBookings[0].BookingIDs {
		b, _ := env.bookings.GetByID(context.Background(), id)
		assert.Equal(t, domain.BookingPaymentPaid, b.PaymentStatus)
	}

	matched, err = env.svc.MarkMonthPaid(context.Background(), octInvoice, domain.BucketPaymentPaid)
	require.NoError(t, err)
	assert.True(t, matched)

	got, _ = env.groups.GetByID(context.Background(), group.ID)
	assert.Equal(t, domain.GroupStatusCompleted, got.Status, "fixed-term group completes when all buckets paid")
	assert.Equal(t, domain.GroupPaymentPaid, got.PaymentStatus)

	inv, _ := env.invoices.GetByExternalID(context.Background(), sepInvoice)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
}

func TestMarkMonthPaidOpenEndedGroupPaymentStatus(t *testing.T) {
	// An open-ended group becomes paid once every existing bucket is
	// paid, but keeps running: its lifecycle status stays active.
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)
	require.Len(t, group.MonthlyBookings, 2)

	for _, bucket := range group.MonthlyBookings {
		matched, err := env.svc.MarkMonthPaid(context.Background(), bucket.ExternalInvoiceID, domain.BucketPaymentPaid)
		require.NoError(t, err)
		assert.True(t, matched)
	}

	got, _ := env.groups.GetByID(context.Background(), group.ID)
	assert.Equal(t, domain.GroupPaymentPaid, got.PaymentStatus)
	assert.Equal(t, domain.GroupStatusActive, got.Status)
}

func TestMarkMonthPaidUnknownInvoice(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	matched, err := env.svc.MarkMonthPaid(context.Background(), "in-unknown", domain.BucketPaymentPaid)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMarkMonthPaidFailedStatus(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)
	sepInvoice := group.MonthlyBookings[0].ExternalInvoiceID

	matched, err := env.svc.MarkMonthPaid(context.Background(), sepInvoice, domain.BucketPaymentFailed)
	require.NoError(t, err)
	assert.True(t, matched)

	got, _ := env.groups.GetByID(context.Background(), group.ID)
	assert.Equal(t, domain.BucketPaymentFailed, got.MonthlyBookings[0].PaymentStatus)
	assert.Equal(t, domain.GroupStatusActive, got.Status)
	for _, id := range got.MonthlyBookings[0].BookingIDs {
		b, _ := env.bookings.GetByID(context.Background(), id)
		assert.Equal(t, domain.BookingPaymentFailed, b.PaymentStatus)
	}
}

func TestGetGroupOwnership(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now, testRoom())

	group, err := env.svc.CreateGroup(context.Background(), mondayRequest())
	require.NoError(t, err)

	got, err := env.svc.GetGroup(context.Background(), group.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.ID)

	_, err = env.svc.GetGroup(context.Background(), group.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAvailableRoomsClassification(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	fullRoom := testRoom()
	partialRoom := &domain.Room{ID: "room-2", Name: "Beta", Price: 25, IsActive: true}
	blockedRoom := &domain.Room{ID: "room-3", Name: "Gamma", Price: 35, IsActive: true}
	unpricedRoom := &domain.Room{ID: "room-4", Name: "Delta", IsActive: true}
	env := newTestEnv(now, fullRoom, partialRoom, blockedRoom, unpricedRoom)

	ctx := context.Background()
	_, err := env.bookings.Create(ctx, &domain.Booking{
		RoomID: "room-2", Date: "2026-09-21", TimeSlot: domain.SlotMorning, Status: domain.BookingStatusUpcoming,
	})
	require.NoError(t, err)
	for _, date := range []string{"2026-09-14", "2026-09-21", "2026-09-28"} {
		_, err := env.bookings.Create(ctx, &domain.Booking{
			RoomID: "room-3", Date: date, TimeSlot: domain.SlotMorning, Status: domain.BookingStatusUpcoming,
		})
		require.NoError(t, err)
	}

	results, err := env.svc.AvailableRooms(ctx, &AvailabilityRequest{
		Weekdays:  []string{"Monday"},
		TimeSlot:  domain.SlotMorning,
		StartDate: "2026-09-14",
		EndDate:   "2026-09-28",
	})
	require.NoError(t, err)

	byID := make(map[string]RoomAvailability)
	for _, r := range results {
		byID[r.RoomID] = r
	}
	require.Len(t, byID, 2, "fully blocked and unpriced rooms are excluded")

	assert.Equal(t, domain.AvailabilityFull, byID["room-1"].Availability)
	assert.Equal(t, 20.0, byID["room-1"].Price)
	assert.Equal(t, 3, byID["room-1"].BookableDates)

	assert.Equal(t, domain.AvailabilityPartial, byID["room-2"].Availability)
	assert.Equal(t, []string{"2026-09-21"}, byID["room-2"].BlockedDates)
	assert.Equal(t, 2, byID["room-2"].BookableDates)
}

func TestBenignVoidErrorClassification(t *testing.T) {
	benign := []string{"resource_missing", "invoice_already_paid", "invoice_already_void", "invoice_not_open"}
	for _, code := range benign {
		err := &GatewayError{Code: code, Type: "invalid_request_error", Message: "whatever"}
		assert.True(t, IsBenignVoidError(err), code)
	}

	assert.False(t, IsBenignVoidError(&GatewayError{Code: "rate_limit", Type: "api_error"}))
	assert.False(t, IsBenignVoidError(errors.New("invoice is already void")), "free-text match must not count")
	assert.False(t, IsBenignVoidError(nil))
}
