package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"destiny_blue/internal/domain"
	"destiny_blue/internal/stay"
)

var ErrDraftNotFound = errors.New("draft not found")

// InboxDeps: Notifier, Sheet and Transcripts may be nil.
type InboxDeps struct {
	Reservations domain.ReservationClient
	Completer    domain.Completer
	Drafts       domain.DraftStore
	Notifier     domain.Notifier
	Sheet        domain.SheetLogger
	Transcripts  domain.TranscriptRepository
}

type InboxConfig struct {
	Units        []stay.Unit
	DraftTTL     time.Duration
	HistoryLimit int
	Location     *time.Location
	Now          func() time.Time
	// AckTimeout bounds the acknowledgement writes made while answering a button.
	AckTimeout time.Duration
}

type InboxService struct {
	deps InboxDeps
	cfg  InboxConfig
}

func NewInboxService(deps InboxDeps, cfg InboxConfig) *InboxService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 24 * time.Hour
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 2 * time.Second
	}
	return &InboxService{deps: deps, cfg: cfg}
}

// InboxOutcome is what the webhook did; it is returned to OwnerRez as-is.
type InboxOutcome struct {
	OK       bool   `json:"ok"`
	Ignored  bool   `json:"ignored,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Drafted  bool   `json:"drafted,omitempty"`
	DraftKey string `json:"draft_key,omitempty"`
	Error    string `json:"error,omitempty"`
}

func ignored(reason string) InboxOutcome {
	return InboxOutcome{OK: true, Ignored: true, Reason: reason}
}

var systemMarkers = []string{"booking confirmed", "automatically generated"}

// HandleWebhook drafts a reply to a guest message and posts it for approval.
func (s *InboxService) HandleWebhook(ctx context.Context, ev domain.WebhookEvent) (InboxOutcome, error) {
	typ := strings.ToLower(ev.Type)
	if !strings.Contains(typ, "message") && !strings.Contains(typ, "inquiry") && !strings.Contains(typ, "booking") {
		log.Info().Str("type", ev.Type).Msg("webhook ignored: not a message event")
		return ignored("event_type"), nil
	}
	if strings.TrimSpace(ev.Body) == "" {
		return ignored("empty_message"), nil
	}
	low := strings.ToLower(ev.Body)
	for _, m := range systemMarkers {
		if strings.Contains(low, m) {
			return ignored("system_message"), nil
		}
	}

	key := DraftKey(ev.BookingID, ev.MessageID)
	first, err := s.deps.Drafts.MarkSeen(ctx, "webhook:"+key, s.cfg.DraftTTL)
	if err != nil {
		log.Warn().Err(err).Str("draft_key", key).Msg("idempotency check failed; processing anyway")
	} else if !first {
		return ignored("duplicate"), nil
	}

	booking, history := s.bookingContext(ctx, ev.BookingID)
	facts := draftFacts{
		Today:     s.cfg.Now().In(s.cfg.Location),
		GuestName: ev.GuestName,
		Unit:      s.unitLabel(firstOf(booking.PropertyID, ev.PropertyID)),
		CheckIn:   firstOf(booking.Arrival, ev.Arrival),
		CheckOut:  firstOf(booking.Departure, ev.Departure),
		Adults:    firstPositive(booking.Adults, ev.Adults, 2),
		Children:  firstPositive(booking.Children, ev.Children, 0),
		History:   history,
	}
	if facts.GuestName == "" || facts.GuestName == "Guest" {
		facts.GuestName = firstOf(booking.GuestName, "Guest")
	}

	reply, err := s.deps.Completer.Complete(ctx, draftSystemPrompt(facts),
		[]domain.Message{{Role: domain.RoleUser, Content: fmt.Sprintf("Guest message: %q", ev.Body)}})
	if err != nil || strings.TrimSpace(reply) == "" {
		log.Warn().Err(err).Str("draft_key", key).Msg("draft generation failed; using fallback")
		reply = draftFallback
	}

	draft := domain.Draft{
		Reply:     reply,
		GuestName: facts.GuestName,
		BookingID: ev.BookingID,
		MessageID: ev.MessageID,
		CreatedAt: s.cfg.Now(),
	}
	if err := s.deps.Drafts.SaveDraft(ctx, key, draft, s.cfg.DraftTTL); err != nil {
		return InboxOutcome{OK: true, Error: "draft not stored"}, fmt.Errorf("save draft %s: %w", key, err)
	}

	if s.deps.Notifier != nil {
		id, err := s.deps.Notifier.Notify(ctx, draftNotice(ev, facts, reply))
		if err != nil {
			log.Error().Err(err).Str("draft_key", key).Msg("draft not posted for approval")
		} else {
			log.Info().Str("draft_key", key).Str("notice_id", id).Msg("draft posted for approval")
		}
	}

	if s.deps.Transcripts != nil {
		turn := domain.Turn{SessionID: "booking-" + ev.BookingID, Channel: "inbox", GuestMessage: ev.Body, Reply: reply, CreatedAt: draft.CreatedAt}
		if _, err := s.deps.Transcripts.InsertTurn(ctx, turn); err != nil {
			log.Warn().Err(err).Str("draft_key", key).Msg("transcript insert failed")
		}
	}
	return InboxOutcome{OK: true, Drafted: true, DraftKey: key}, nil
}

// bookingContext fetches the booking and its thread concurrently; either may come back empty.
func (s *InboxService) bookingContext(ctx context.Context, bookingID string) (domain.Booking, []domain.ThreadMessage) {
	var (
		booking domain.Booking
		history []domain.ThreadMessage
	)
	if bookingID == "" || s.deps.Reservations == nil {
		return booking, history
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.deps.Reservations.GetBooking(gctx, bookingID)
		if err != nil {
			log.Warn().Err(err).Str("booking", bookingID).Msg("booking details unavailable")
			return nil
		}
		booking = b
		return nil
	})
	g.Go(func() error {
		h, err := s.deps.Reservations.ListMessages(gctx, bookingID, s.cfg.HistoryLimit)
		if err != nil {
			log.Warn().Err(err).Str("booking", bookingID).Msg("conversation history unavailable")
			return nil
		}
		history = h
		return nil
	})
	_ = g.Wait()
	return booking, history
}

func (s *InboxService) unitLabel(propertyID string) string {
	for _, u := range s.cfg.Units {
		if u.PropertyID == propertyID {
			return u.Label
		}
	}
	return propertyID
}

func draftNotice(ev domain.WebhookEvent, f draftFacts, reply string) domain.Notice {
	key := DraftKey(ev.BookingID, ev.MessageID)
	return domain.Notice{
		Title: "🏖️ **New Guest Message - Action Required**",
		Color: 0x1E90FF,
		Fields: []domain.NoticeField{
			{Name: "👤 Guest", Value: orDefault(f.GuestName, "Unknown"), Inline: true},
			{Name: "🏠 Unit", Value: orDefault(f.Unit, "Unknown"), Inline: true},
			{Name: "📅 Check-in", Value: orDefault(f.CheckIn, "TBD"), Inline: true},
			{Name: "📅 Check-out", Value: orDefault(f.CheckOut, "TBD"), Inline: true},
			{Name: "📨 Guest Message", Value: truncateRunes(ev.Body, 500)},
			{Name: "💬 Destiny's Draft Reply", Value: truncateRunes(reply, 1000)},
		},
		Footer: fmt.Sprintf("Booking ID: %s | Message ID: %s", orDefault(ev.BookingID, "N/A"), orDefault(ev.MessageID, "N/A")),
		Buttons: []domain.NoticeButton{
			{Label: "✅ Send This Reply", CustomID: ActionConfirm + "_" + key, Style: 3},
			{Label: "✏️ Edit Before Sending", CustomID: ActionEdit + "_" + key, Style: 2},
			{Label: "🚫 Skip / Handle Manually", CustomID: ActionSkip + "_" + key, Style: 4},
		},
	}
}

// DraftKey identifies a pending draft.
func DraftKey(bookingID, messageID string) string { return bookingID + "_" + messageID }

func firstOf(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vs ...int) int {
	for _, v := range vs[:len(vs)-1] {
		if v > 0 {
			return v
		}
	}
	return vs[len(vs)-1]
}
