package domain

import "time"

// Turn is one guest message and the reply it got.
type Turn struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Channel      string    `json:"channel"` // chat|inbox
	GuestMessage string    `json:"guest_message"`
	Reply        string    `json:"reply"`
	Arrival      *string   `json:"arrival,omitempty"`
	Departure    *string   `json:"departure,omitempty"`
	Adults       *int      `json:"adults,omitempty"`
	Children     *int      `json:"children,omitempty"`
	Alert        string    `json:"alert,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ack records a host acknowledgement button press.
type Ack struct {
	SessionID string
	Label     string // OZAN_ACK|MAINT_ONSITE|MAINT_OZAN|MAINT_EMERGENCY
	At        time.Time
}

type TurnsPage struct {
	Items []Turn `json:"items"`
}

// Notice is a chat-ops post; channels that cannot render buttons ignore them.
type Notice struct {
	Title   string
	Color   int
	Fields  []NoticeField
	Footer  string
	Buttons []NoticeButton
}

type NoticeField struct {
	Name   string
	Value  string
	Inline bool
}

type NoticeButton struct {
	Label    string
	CustomID string
	Style    int // 1 primary, 2 secondary, 3 success, 4 danger
}
