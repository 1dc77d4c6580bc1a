package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/domain"
	"destiny_blue/internal/links"
	"destiny_blue/internal/stay"
)

var ErrNoGuestMessage = errors.New("no guest message")

type ChatRequest struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

type ChatReply struct {
	SessionID string     `json:"session_id"`
	Reply     string     `json:"reply"`
	Stay      *StayQuote `json:"stay,omitempty"`
	Alert     AlertKind  `json:"alert,omitempty"`
	Fallback  bool       `json:"fallback,omitempty"`
}

// StayQuote is the extracted stay plus what we know about each unit for it.
type StayQuote struct {
	Request stay.Request `json:"request"`
	Units   []UnitQuote  `json:"units"`
}

type UnitQuote struct {
	Unit       string              `json:"unit"`
	PropertyID string              `json:"property_id"`
	Status     domain.Availability `json:"status"`
	Links      []links.Link        `json:"links"`
}

// ChatDeps are the collaborators of the chat flow. Notifier, Sheet and
// Transcripts may be nil.
type ChatDeps struct {
	Reservations domain.ReservationClient
	Completer    domain.Completer
	Cache        domain.Cache
	Notifier     domain.Notifier
	Sheet        domain.SheetLogger
	Transcripts  domain.TranscriptRepository
}

type ChatConfig struct {
	BookingBaseURL string
	LinkVariants   []links.Variant
	CacheTTL       time.Duration
	Workers        int
	Location       *time.Location
	Now            func() time.Time
}

type ChatService struct {
	ex   *stay.Extractor
	deps ChatDeps
	cfg  ChatConfig
}

func NewChatService(ex *stay.Extractor, deps ChatDeps, cfg ChatConfig) *ChatService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &ChatService{ex: ex, deps: deps, cfg: cfg}
}

func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (ChatReply, error) {
	latest, all := guestMessages(req.Messages)
	if latest == "" {
		return ChatReply{}, ErrNoGuestMessage
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	out := ChatReply{SessionID: sessionID}

	if r, ok := s.ex.ExtractConversation(latest, all); ok {
		observability.ObserveStay(true)
		log.Debug().Str("session", sessionID).Str("arrival", r.Arrival).Str("departure", r.Departure).
			Int("adults", r.Adults).Int("children", r.Children).Str("unit", r.Unit).Msg("stay_extracted")
		out.Stay = s.quote(ctx, r, latest, all)
	} else {
		observability.ObserveStay(false)
	}

	out.Alert = ClassifyAlert(latest)
	if out.Alert != AlertNone {
		s.raiseAlert(ctx, out.Alert, sessionID, latest, out.Stay)
	}

	system := chatSystemPrompt(chatFacts{Today: s.cfg.Now().In(s.cfg.Location), Stay: out.Stay, Alert: out.Alert})
	text, err := s.deps.Completer.Complete(ctx, system, req.Messages)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("completion failed; using fallback reply")
		text = fallbackReply
		out.Fallback = true
	}
	out.Reply = text

	s.record(ctx, sessionID, latest, out)
	return out, nil
}

// guestMessages returns the newest non-blank user message and every user
// message in order.
func guestMessages(msgs []domain.Message) (latest string, all []string) {
	for _, m := range msgs {
		if m.Role == domain.RoleUser && strings.TrimSpace(m.Content) != "" {
			all = append(all, m.Content)
		}
	}
	if len(all) > 0 {
		latest = all[len(all)-1]
	}
	return latest, all
}

// quote checks every unit, or only the one the guest named, concurrently.
// Lookup failures become Unknown; they never fail the reply.
func (s *ChatService) quote(ctx context.Context, r stay.Request, latest string, all []string) *StayQuote {
	units := s.ex.Units()
	if label, ok := s.ex.NamedUnit(latest); ok {
		units = unitsByLabel(units, label)
	} else if label, ok := s.ex.NamedUnit(strings.Join(all, "\n")); ok {
		units = unitsByLabel(units, label)
	}

	q := &StayQuote{Request: r, Units: make([]UnitQuote, len(units))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, u := range units {
		g.Go(func() error {
			q.Units[i] = UnitQuote{
				Unit:       u.Label,
				PropertyID: u.PropertyID,
				Status:     s.availability(gctx, u.PropertyID, r),
				Links: links.Builder{
					BaseURL:    s.cfg.BookingBaseURL,
					PropertyID: u.PropertyID,
					Variants:   s.cfg.LinkVariants,
				}.Build(r),
			}
			return nil
		})
	}
	_ = g.Wait()
	return q
}

func unitsByLabel(units []stay.Unit, label string) []stay.Unit {
	for _, u := range units {
		if u.Label == label {
			return []stay.Unit{u}
		}
	}
	return units
}

func (s *ChatService) availability(ctx context.Context, propertyID string, r stay.Request) domain.Availability {
	if s.deps.Reservations == nil || r.Arrival >= r.Departure {
		return domain.Unknown
	}
	key := fmt.Sprintf("avail:%s:%s:%s", propertyID, r.Arrival, r.Departure)
	if s.deps.Cache != nil {
		var cached domain.Availability
		if ok, _ := s.deps.Cache.Get(ctx, key, &cached); ok {
			return cached
		}
	}
	bookings, err := s.deps.Reservations.ListBookings(ctx, propertyID, r.Arrival, r.Departure)
	if err != nil {
		log.Warn().Err(err).Str("property", propertyID).Msg("availability lookup failed")
		return domain.Unknown
	}
	status := domain.Available
	if len(bookings) > 0 {
		status = domain.Booked
	}
	if s.deps.Cache != nil {
		_ = s.deps.Cache.Set(ctx, key, status, int(s.cfg.CacheTTL.Seconds()))
	}
	return status
}

func (s *ChatService) raiseAlert(ctx context.Context, kind AlertKind, sessionID, message string, q *StayQuote) {
	observability.ObserveAlert(string(kind))
	if s.deps.Notifier == nil {
		return
	}
	if _, err := s.deps.Notifier.Notify(ctx, alertNotice(kind, sessionID, message, q)); err != nil {
		log.Error().Err(err).Str("session", sessionID).Str("alert", string(kind)).Msg("alert not delivered")
	}
}

// record writes the turn to the spreadsheet and the transcript store.
func (s *ChatService) record(ctx context.Context, sessionID, message string, out ChatReply) {
	now := s.cfg.Now()
	turn := domain.Turn{
		SessionID:    sessionID,
		Channel:      "chat",
		GuestMessage: message,
		Reply:        out.Reply,
		Alert:        string(out.Alert),
		CreatedAt:    now,
	}
	row := []string{sheetTimestamp(now, s.cfg.Location), sessionID, message, out.Reply, "", "", "", strings.ToUpper(string(out.Alert))}
	if out.Stay != nil {
		r := out.Stay.Request
		turn.Arrival, turn.Departure = &r.Arrival, &r.Departure
		turn.Adults, turn.Children = &r.Adults, &r.Children
		row[4], row[5], row[6] = r.Arrival, r.Departure, strconv.Itoa(r.Guests())
	}

	if s.deps.Sheet != nil {
		if err := s.deps.Sheet.AppendRow(ctx, row); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("sheet log failed")
		}
	}
	if s.deps.Transcripts != nil {
		if _, err := s.deps.Transcripts.InsertTurn(ctx, turn); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("transcript insert failed")
		} else if s.deps.Cache != nil {
			_ = s.deps.Cache.Del(ctx, turnsKey(sessionID))
		}
	}
}

// sheetTimestamp matches the spreadsheet's existing "1/2/2006, 3:04:05 PM" column.
func sheetTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("1/2/2006, 3:04:05 PM")
}

func partyOf(adults, children int) string {
	if children == 0 {
		return fmt.Sprintf("%d adults", adults)
	}
	return fmt.Sprintf("%d adults, %d children", adults, children)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
