package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"destiny_blue/internal/domain"
)

type InteractionKind int

const (
	InteractionPing InteractionKind = iota + 1
	InteractionButton
	InteractionOther
)

type Interaction struct {
	Kind     InteractionKind
	CustomID string
}

// InteractionResponse is either a pong or a message only the clicker sees.
type InteractionResponse struct {
	Pong    bool
	Content string
}

const unknownButton = "Nothing to do for this button."

const (
	ActionConfirm = "confirm"
	ActionEdit    = "edit"
	ActionSkip    = "skip"
)

// ackActions are matched before the draft actions and longest first, so
// "maint_onsite_x" is never read as a draft action.
var ackActions = []struct {
	prefix string
	label  string
	reply  string
}{
	{AckPrefixMaintEmergent, LabelMaintEmergency, "🚨 Emergency escalated. Destiny Blue will tell the guest you're calling them now."},
	{AckPrefixMaintOnsite, LabelMaintOnsite, "🔧 Onsite ticket opened. Destiny Blue will notify the guest."},
	{AckPrefixMaintOzan, LabelMaintOzan, "👨‍🔧 Got it. Destiny Blue will let the guest know you're handling it."},
	{AckPrefixOzan, LabelOzanAck, "🫡 Got it. Destiny Blue will let the guest know you're on it!"},
}

func (s *InboxService) HandleInteraction(ctx context.Context, in Interaction) InteractionResponse {
	switch in.Kind {
	case InteractionPing:
		return InteractionResponse{Pong: true}
	case InteractionButton:
	default:
		// commands and modal submits must not be answered with a pong
		return InteractionResponse{Content: unknownButton}
	}

	id := in.CustomID
	for _, a := range ackActions {
		if sessionID, ok := strings.CutPrefix(id, a.prefix); ok {
			s.acknowledge(ctx, sessionID, a.label)
			return InteractionResponse{Content: a.reply}
		}
	}

	action, key, ok := strings.Cut(id, "_")
	if !ok || key == "" {
		return InteractionResponse{Content: unknownButton}
	}
	switch action {
	case ActionConfirm:
		return s.confirm(ctx, key)
	case ActionEdit:
		reply := "N/A"
		if d, found, err := s.deps.Drafts.GetDraft(ctx, key); err == nil && found {
			reply = d.Reply
		}
		return InteractionResponse{Content: "✏️ **Edit mode**. Reply with your custom message and I'll send it.\nDraft was:\n\n" + reply}
	case ActionSkip:
		if err := s.deps.Drafts.DeleteDraft(ctx, key); err != nil {
			log.Warn().Err(err).Str("draft_key", key).Msg("draft delete failed")
		}
		return InteractionResponse{Content: "🚫 Skipped. Handle manually in OwnerRez."}
	}
	return InteractionResponse{Content: unknownButton}
}

func (s *InboxService) confirm(ctx context.Context, key string) InteractionResponse {
	d, err := s.SendDraft(ctx, key)
	switch {
	case errors.Is(err, ErrDraftNotFound):
		return InteractionResponse{Content: "⌛ That draft expired or was already handled. Reply from OwnerRez instead."}
	case err != nil:
		log.Error().Err(err).Str("draft_key", key).Msg("draft send failed")
		return InteractionResponse{Content: "❌ Could not send the reply. Try again or reply from OwnerRez."}
	}
	return InteractionResponse{Content: fmt.Sprintf("✅ Reply sent to %s!", orDefault(d.GuestName, "the guest"))}
}

// SendDraft delivers the stored draft to the guest and forgets it. The draft
// stays stored when delivery fails so the button can be pressed again.
func (s *InboxService) SendDraft(ctx context.Context, key string) (domain.Draft, error) {
	d, found, err := s.deps.Drafts.GetDraft(ctx, key)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("load draft %s: %w", key, err)
	}
	if !found {
		return domain.Draft{}, ErrDraftNotFound
	}
	if s.deps.Reservations == nil {
		return d, errors.New("reservation platform not configured")
	}
	if err := s.deps.Reservations.SendMessage(ctx, d.BookingID, d.Reply); err != nil {
		return d, fmt.Errorf("send draft %s: %w", key, err)
	}
	if err := s.deps.Drafts.DeleteDraft(ctx, key); err != nil {
		log.Warn().Err(err).Str("draft_key", key).Msg("sent draft not deleted")
	}
	return d, nil
}

// acknowledge records a host's button press in the spreadsheet and the
// transcript store. Failures are logged; the clicker still gets an answer.
func (s *InboxService) acknowledge(ctx context.Context, sessionID, label string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AckTimeout)
	defer cancel()

	now := s.cfg.Now()
	if s.deps.Sheet != nil {
		row := []string{sheetTimestamp(now, s.cfg.Location), sessionID, "", "", "", "", "", label}
		if err := s.deps.Sheet.AppendRow(ctx, row); err != nil {
			log.Error().Err(err).Str("session", sessionID).Str("label", label).Msg("ack not written to sheet")
		}
	}
	if s.deps.Transcripts != nil {
		if err := s.deps.Transcripts.InsertAck(ctx, domain.Ack{SessionID: sessionID, Label: label, At: now}); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Str("label", label).Msg("ack not stored")
		}
	}
	log.Info().Str("session", sessionID).Str("label", label).Msg("ack recorded")
}
