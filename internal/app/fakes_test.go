package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
	_ "time/tzdata"

	"destiny_blue/internal/domain"
)

// ---- fakes ----

type fakeReservations struct {
	mu       sync.Mutex
	bookings map[string][]domain.Booking // by property id
	failFor  map[string]bool
	calls    int
	booking  domain.Booking
	history  []domain.ThreadMessage
	sent     []string // "bookingID:body"
	sendErr  error
}

func (f *fakeReservations) ListBookings(ctx context.Context, propertyID, from, to string) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFor[propertyID] {
		return nil, errors.New("upstream 503")
	}
	var out []domain.Booking
	for _, b := range f.bookings[propertyID] {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeReservations) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	if f.booking.ID != id {
		return domain.Booking{}, domain.ErrNotFound
	}
	return f.booking, nil
}

func (f *fakeReservations) ListMessages(ctx context.Context, bookingID string, limit int) ([]domain.ThreadMessage, error) {
	if f.booking.ID != bookingID {
		return nil, domain.ErrNotFound
	}
	return f.history, nil
}

func (f *fakeReservations) SendMessage(ctx context.Context, bookingID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, bookingID+":"+body)
	return nil
}

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	systems []string
	history [][]domain.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, history []domain.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, system)
	f.history = append(f.history, history)
	return f.reply, f.err
}

// fakeCache round-trips values through JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	gets  int
	hits  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
	err     error
}

func (f *fakeNotifier) Notify(ctx context.Context, n domain.Notice) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.notices = append(f.notices, n)
	return "notice-1", nil
}

type fakeSheet struct {
	rows [][]string
	err  error
}

func (f *fakeSheet) AppendRow(ctx context.Context, row []string) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type fakeTranscripts struct {
	turns []domain.Turn
	acks  []domain.Ack
	lists int
}

func (f *fakeTranscripts) InsertTurn(ctx context.Context, t domain.Turn) (int64, error) {
	t.ID = int64(len(f.turns) + 1)
	f.turns = append(f.turns, t)
	return t.ID, nil
}

func (f *fakeTranscripts) InsertAck(ctx context.Context, a domain.Ack) error {
	f.acks = append(f.acks, a)
	return nil
}

func (f *fakeTranscripts) ListTurns(ctx context.Context, sessionID string, limit int) (domain.TurnsPage, error) {
	f.lists++
	out := domain.TurnsPage{}
	for _, t := range f.turns {
		if t.SessionID == sessionID && len(out.Items) < limit {
			out.Items = append(out.Items, t)
		}
	}
	return out, nil
}

type fakeDrafts struct {
	drafts map[string]domain.Draft
	seen   map[string]bool
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: map[string]domain.Draft{}, seen: map[string]bool{}}
}

func (f *fakeDrafts) SaveDraft(ctx context.Context, key string, d domain.Draft, ttl time.Duration) error {
	f.drafts[key] = d
	return nil
}

func (f *fakeDrafts) GetDraft(ctx context.Context, key string) (domain.Draft, bool, error) {
	d, ok := f.drafts[key]
	return d, ok, nil
}

func (f *fakeDrafts) DeleteDraft(ctx context.Context, key string) error {
	delete(f.drafts, key)
	return nil
}

func (f *fakeDrafts) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func fixedNow() time.Time { return time.Date(2026, time.February, 14, 15, 30, 0, 0, time.UTC) }

func chicago() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return time.UTC
	}
	return loc
}
