package ownerrez

import (
	"encoding/json"
	"strconv"
	"time"

	"destiny_blue/internal/domain"
)

// webhookDTO covers the payload shapes OwnerRez has been seen to send: the
// event either wraps its data under "data" or is the data itself, and the
// message may be an object or a bare string.
type webhookDTO struct {
	Type      string          `json:"type"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type webhookData struct {
	ID         flexID          `json:"id"`
	BookingID  flexID          `json:"booking_id"`
	PropertyID flexID          `json:"property_id"`
	Body       string          `json:"body"`
	Name       string          `json:"name"`
	Arrival    string          `json:"arrival"`
	Departure  string          `json:"departure"`
	Adults     flexID          `json:"adults"`
	Children   flexID          `json:"children"`
	Message    json.RawMessage `json:"message"`
	Guest      struct {
		Name string `json:"name"`
	} `json:"guest"`
	Booking struct {
		ID        flexID `json:"id"`
		GuestName string `json:"guest_name"`
	} `json:"booking"`
	Inquiry struct {
		Message string `json:"message"`
	} `json:"inquiry"`
}

type webhookMessage struct {
	ID   flexID `json:"id"`
	Body string `json:"body"`
}

// ParseWebhook decodes a webhook body. now supplies the message id when the
// payload carries none.
func ParseWebhook(body []byte, now func() time.Time) (domain.WebhookEvent, error) {
	var env webhookDTO
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.WebhookEvent{}, err
	}
	raw := env.Data
	if len(raw) == 0 || string(raw) == "null" {
		raw = body
	}
	var d webhookData
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.WebhookEvent{}, err
	}

	var msg webhookMessage
	var msgText string
	if len(d.Message) > 0 {
		if err := json.Unmarshal(d.Message, &msg); err != nil {
			_ = json.Unmarshal(d.Message, &msgText)
		}
	}

	ev := domain.WebhookEvent{
		Type:       firstNonEmpty(env.Type, env.EventType),
		BookingID:  firstNonEmpty(string(d.BookingID), string(d.ID), string(d.Booking.ID)),
		Body:       firstNonEmpty(msg.Body, d.Body, msgText, d.Inquiry.Message),
		GuestName:  firstNonEmpty(d.Guest.Name, d.Booking.GuestName, d.Name, "Guest"),
		MessageID:  firstNonEmpty(string(msg.ID), string(d.ID)),
		PropertyID: string(d.PropertyID),
		Arrival:    dateOnly(d.Arrival),
		Departure:  dateOnly(d.Departure),
	}
	ev.Adults, _ = strconv.Atoi(string(d.Adults))
	ev.Children, _ = strconv.Atoi(string(d.Children))
	if ev.MessageID == "" {
		ev.MessageID = strconv.FormatInt(now().UnixMilli(), 10)
	}
	return ev, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
