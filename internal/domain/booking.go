package domain

import "time"

// Message is one chat turn as the website widget sends it.
type Message struct {
	Role    string `json:"role"` // user|assistant|system
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Booking is the slice of a reservation-platform booking we read.
type Booking struct {
	ID         string
	PropertyID string
	Arrival    string // YYYY-MM-DD
	Departure  string
	Status     string
	GuestName  string
	Adults     int
	Children   int
}

// Overlaps reports whether the booking occupies any night of [arrival, departure).
// Departure days are free for the next arrival.
func (b Booking) Overlaps(arrival, departure string) bool {
	return arrival < b.Departure && b.Arrival < departure
}

// ThreadMessage is one message of a booking's guest/host thread.
type ThreadMessage struct {
	FromGuest bool
	Body      string
	CreatedAt string
}

type Availability string

const (
	Available Availability = "available"
	Booked    Availability = "booked"
	Unknown   Availability = "unknown"
)

// Draft is a reply waiting for the host's approval.
type Draft struct {
	Reply     string    `json:"reply"`
	GuestName string    `json:"guest_name"`
	BookingID string    `json:"booking_id"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookEvent is a reservation-platform delivery reduced to what the inbox
// flow reads. Missing fields stay empty.
type WebhookEvent struct {
	Type       string
	BookingID  string
	MessageID  string
	GuestName  string
	Body       string
	PropertyID string
	Arrival    string
	Departure  string
	Adults     int
	Children   int
}
