package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// ReservationClient is the property-management platform (OwnerRez).
type ReservationClient interface {
	ListBookings(ctx context.Context, propertyID, from, to string) ([]Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListMessages(ctx context.Context, bookingID string, limit int) ([]ThreadMessage, error)
	SendMessage(ctx context.Context, bookingID, body string) error
}

// Completer is the language-model completion service.
type Completer interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}

// Notifier posts to an operator channel. It returns the channel's id for the
// post when it has one.
type Notifier interface {
	Notify(ctx context.Context, n Notice) (string, error)
}

// SheetLogger appends one row to the operations spreadsheet.
type SheetLogger interface {
	AppendRow(ctx context.Context, row []string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// DraftStore keeps pending drafts and webhook idempotency keys.
type DraftStore interface {
	SaveDraft(ctx context.Context, key string, d Draft, ttl time.Duration) error
	GetDraft(ctx context.Context, key string) (Draft, bool, error)
	DeleteDraft(ctx context.Context, key string) error
	// MarkSeen returns true the first time key is marked within ttl.
	MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type TranscriptRepository interface {
	InsertTurn(ctx context.Context, t Turn) (int64, error)
	InsertAck(ctx context.Context, a Ack) error
	ListTurns(ctx context.Context, sessionID string, limit int) (TurnsPage, error)
}
