package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/judy2649/the-grey-pegeant/src/lib/mpesa"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/store"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/verifier"
)

// memStore is an in-memory PaymentRecordStore and PendingStore with the same
// atomicity as the gorm store: uniqueness, capacity and sequence under one lock.
type memStore struct {
	mu       sync.Mutex
	bookings []*models.Booking
	counters map[string]int64
	pending  map[string]*models.PendingTransaction
	logs     []models.NotificationLog
	failNext error
}

func newMemStore() *memStore {
	return &memStore{counters: map[string]int64{}, pending: map[string]*models.PendingTransaction{}}
}

func (m *memStore) taken() int64 {
	var n int64
	for _, b := range m.bookings {
		if b.Status.CountsTowardCapacity() {
			n++
		}
	}
	return n
}

func (m *memStore) Insert(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uint(len(m.bookings) + 1)
	cp := *b
	m.bookings = append(m.bookings, &cp)
	return nil
}

func (m *memStore) Commit(ctx context.Context, b *models.Booking, capacity int64, label store.LabelFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for _, x := range m.bookings {
		if x.ClaimKey != nil && b.ClaimKey != nil && *x.ClaimKey == *b.ClaimKey {
			return types.ErrDuplicateClaim
		}
	}
	if b.Status.CountsTowardCapacity() {
		if m.taken() >= capacity {
			return types.ErrCapacityExceeded
		}
		m.counters[b.TierName]++
		seq := m.counters[b.TierName]
		ticket := label(b.TierName, seq)
		b.TicketSeq = seq
		b.TicketID = &ticket
	}
	b.ID = uint(len(m.bookings) + 1)
	cp := *b
	m.bookings = append(m.bookings, &cp)
	return nil
}

func (m *memStore) Confirm(ctx context.Context, id uint, capacity int64, label store.LabelFunc) (*models.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.bookings) {
		return nil, false, types.ErrNotFound
	}
	b := m.bookings[id-1]
	if b.Status.CountsTowardCapacity() {
		cp := *b
		return &cp, false, nil
	}
	if b.Status.Terminal() {
		return nil, false, types.NewError(types.KindInvalidClaim, "failed", nil)
	}
	if m.taken() >= capacity {
		return nil, false, types.ErrCapacityExceeded
	}
	if b.TicketID == nil {
		m.counters[b.TierName]++
		seq := m.counters[b.TierName]
		ticket := label(b.TierName, seq)
		b.TicketID = &ticket
		b.TicketSeq = seq
	}
	now := time.Now()
	b.Status = types.BOOKING_CONFIRMED
	b.VerifiedAt = &now
	cp := *b
	return &cp, true, nil
}

func (m *memStore) FindByClaimKey(ctx context.Context, key string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ClaimKey != nil && *b.ClaimKey == key {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.bookings) {
		return nil, types.ErrNotFound
	}
	cp := *m.bookings[id-1]
	return &cp, nil
}

func (m *memStore) CountByStatus(ctx context.Context, statuses ...types.BookingStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		for _, s := range statuses {
			if b.Status == s {
				n++
			}
		}
	}
	return n, nil
}

func (m *memStore) LogNotifications(ctx context.Context, logs []models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *memStore) SavePending(ctx context.Context, p *models.PendingTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[p.ConversationID] = p
	return nil
}

func (m *memStore) FindPending(ctx context.Context, id string) (*models.PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ResolvePending(ctx context.Context, id string, s types.PendingStatus, reason string, bookingID *uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if !ok {
		return nil
	}
	p.Status = s
	p.FailureReason = reason
	p.BookingID = bookingID
	return nil
}

func (m *memStore) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.pending {
		if p.Expired(now) {
			p.Status = types.PENDING_EXPIRED
			n++
		}
	}
	return n, nil
}

func (m *memStore) tickets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, b := range m.bookings {
		if b.TicketID != nil {
			out = append(out, *b.TicketID)
		}
	}
	sort.Strings(out)
	return out
}

type stubVerifier struct {
	channel types.Channel
	strict  bool
	res     *verifier.Result
	err     error
	delay   time.Duration

	mu    sync.Mutex
	calls int
}

func (s *stubVerifier) Channel() types.Channel { return s.channel }
func (s *stubVerifier) Strict() bool           { return s.strict }
func (s *stubVerifier) Verify(ctx context.Context, c types.PaymentClaim) (*verifier.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.res != nil {
		return s.res, nil
	}
	return &verifier.Result{Confirmed: true, ProviderAmount: c.Amount}, nil
}

type fakeSMS struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeSMS) Configured() bool { return true }
func (f *fakeSMS) SendSMS(ctx context.Context, to, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return f.err
}

type fakeEmail struct {
	mu   sync.Mutex
	err  error
	sent []notify.Email
}

func (f *fakeEmail) Configured() bool { return true }
func (f *fakeEmail) SendEmail(ctx context.Context, e notify.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (r *recordingPublisher) Publish(ctx context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, payload)
	return nil
}

func (r *recordingPublisher) count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type memLock struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (l *memLock) Acquire(ctx context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLock) Release(ctx context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

type fakePush struct {
	res   *mpesa.Response
	err   error
	input mpesa.C2BInput
}

func (f *fakePush) C2BPayment(ctx context.Context, in mpesa.C2BInput) (*mpesa.Response, error) {
	f.input = in
	return f.res, f.err
}

var errTransport = errors.New("transport down")

func newPendingFixture() *models.PendingTransaction {
	return &models.PendingTransaction{
		ConversationID: "conv-2",
		Phone:          "254712345678",
		Name:           "Test",
		TierName:       "Normal",
		EventName:      "The Grey Pageant",
		Amount:         200,
		Status:         types.PENDING_OPEN,
		ExpiresAt:      time.Now().Add(time.Hour),
	}
}
