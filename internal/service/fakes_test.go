package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/domain"
)

// In-memory repositories used by the service tests. They implement the
// domain interfaces with plain maps and no transactional behavior.

type fakeTxnRunner struct {
	calls int
}

func (t *fakeTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeGroupRepo struct {
	mu     sync.Mutex
	seq    int
	groups map[string]*domain.RecurringBookingGroup
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[string]*domain.RecurringBookingGroup)}
}

func (r *fakeGroupRepo) Create(ctx context.Context, group *domain.RecurringBookingGroup) (*domain.RecurringBookingGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	group.ID = fmt.Sprintf("grp-%d", r.seq)
	r.groups[group.ID] = group
	return group, nil
}

func (r *fakeGroupRepo) GetByID(ctx context.Context, id string) (*domain.RecurringBookingGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return group, nil
}

func (r *fakeGroupRepo) Update(ctx context.Context, group *domain.RecurringBookingGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group.ID]; !ok {
		return domain.ErrNotFound
	}
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) ListByUser(ctx context.Context, userID string) ([]*domain.RecurringBookingGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RecurringBookingGroup
	for _, g := range r.groups {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) ListActiveOpenEnded(ctx context.Context) ([]*domain.RecurringBookingGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RecurringBookingGroup
	for _, g := range r.groups {
		if g.Status == domain.GroupStatusActive && g.IsOpenEnded {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) FindByBucketInvoiceID(ctx context.Context, externalInvoiceID string) (*domain.RecurringBookingGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		if g.BucketByInvoiceID(externalInvoiceID) != nil {
			return g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeGroupRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*domain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*domain.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("bkg-%d", r.seq)
	r.bookings[b.ID] = b
	return b, nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Booking
	for _, id := range ids {
		if b, ok := r.bookings[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ExistsActive(ctx context.Context, roomID, date string, slot domain.TimeSlot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.RoomID == roomID && b.Date == date && b.TimeSlot == slot && b.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) UpdateStatusByIDs(ctx context.Context, ids []string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if b, ok := r.bookings[id]; ok {
			b.Status = status
		}
	}
	return nil
}

func (r *fakeBookingRepo) UpdatePaymentStatusByIDs(ctx context.Context, ids []string, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if b, ok := r.bookings[id]; ok {
			b.PaymentStatus = paymentStatus
		}
	}
	return nil
}

func (r *fakeBookingRepo) FindByExternalInvoiceID(ctx context.Context, externalInvoiceID string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ExternalInvoiceID == externalInvoiceID {
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBookingRepo) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.PaymentStatus = paymentStatus
	return nil
}

func (r *fakeBookingRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.bookings, id)
	}
	return nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	seq      int
	invoices map[string]*domain.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[string]*domain.Invoice)}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	inv.ID = fmt.Sprintf("inv-%d", r.seq)
	r.invoices[inv.ID] = inv
	return inv, nil
}

func (r *fakeInvoiceRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ExternalID == externalID {
			return inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeInvoiceRepo) UpdateStatusByExternalID(ctx context.Context, externalID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ExternalID == externalID {
			inv.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeInvoiceRepo) CancelByGroup(ctx context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.GroupID == groupID {
			inv.Status = domain.InvoiceStatusCancelled
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) DeleteByGroup(ctx context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range r.invoices {
		if inv.GroupID == groupID {
			delete(r.invoices, id)
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) SetExternalCustomerID(ctx context.Context, id, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ExternalCustomerID = customerID
	return nil
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func newFakeRoomRepo(rooms ...*domain.Room) *fakeRoomRepo {
	r := &fakeRoomRepo{rooms: make(map[string]*domain.Room)}
	for _, room := range rooms {
		r.rooms[room.ID] = room
	}
	return r
}

func (r *fakeRoomRepo) Create(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.ID == "" {
		room.ID = fmt.Sprintf("room-%d", len(r.rooms)+1)
	}
	r.rooms[room.ID] = room
	return nil
}

func (r *fakeRoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return room, nil
}

func (r *fakeRoomRepo) ListActive(ctx context.Context) ([]*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Room
	for _, room := range r.rooms {
		if room.IsActive {
			out = append(out, room)
		}
	}
	return out, nil
}

// fakeGateway records billing calls and can be primed with void
// failures per invoice id.
type fakeGateway struct {
	mu           sync.Mutex
	seq          int
	created      []string
	finalized    []string
	voided       []string
	pendingItems []LineItem
	voidErrors   map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{voidErrors: make(map[string]error)}
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("cus-%d", g.seq), nil
}

func (g *fakeGateway) CreateInvoice(ctx context.Context, customerID, description string, items []LineItem) (*GatewayInvoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	var total int64
	for _, item := range items {
		total += item.AmountCents
	}
	for _, item := range g.pendingItems {
		total += item.AmountCents
	}
	g.pendingItems = nil
	inv := &GatewayInvoice{
		ID:        fmt.Sprintf("in-%d", g.seq),
		Status:    "draft",
		AmountDue: total,
		DueDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	g.created = append(g.created, inv.ID)
	return inv, nil
}

func (g *fakeGateway) FinalizeInvoice(ctx context.Context, invoiceID string) (*GatewayInvoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finalized = append(g.finalized, invoiceID)
	return &GatewayInvoice{ID: invoiceID, Status: "open", DueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (g *fakeGateway) VoidInvoice(ctx context.Context, invoiceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.voidErrors[invoiceID]; ok {
		return err
	}
	g.voided = append(g.voided, invoiceID)
	return nil
}

func (g *fakeGateway) AddPendingLineItem(ctx context.Context, customerID string, item LineItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pendingItems = append(g.pendingItems, item)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *fakeNotifier) Send(to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+": "+subject)
	return nil
}

// testEnv bundles a wired service with its fakes.
type testEnv struct {
	svc      *RecurringService
	groups   *fakeGroupRepo
	bookings *fakeBookingRepo
	invoices *fakeInvoiceRepo
	users    *fakeUserRepo
	rooms    *fakeRoomRepo
	gateway  *fakeGateway
	notifier *fakeNotifier
	txn      *fakeTxnRunner
}

func newTestEnv(now time.Time, rooms ...*domain.Room) *testEnv {
	env := &testEnv{
		groups:   newFakeGroupRepo(),
		bookings: newFakeBookingRepo(),
		invoices: newFakeInvoiceRepo(),
		users:    newFakeUserRepo(&domain.User{ID: "user-1", Name: "Dana", Email: "dana@example.com"}),
		rooms:    newFakeRoomRepo(rooms...),
		gateway:  newFakeGateway(),
		notifier: &fakeNotifier{},
		txn:      &fakeTxnRunner{},
	}
	env.svc = NewRecurringService(
		env.groups, env.bookings, env.invoices, env.users, env.rooms,
		env.txn, env.gateway, env.notifier, "eur",
	).WithClock(func() time.Time { return now })
	return env
}
