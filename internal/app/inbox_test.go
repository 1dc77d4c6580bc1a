package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"destiny_blue/internal/app"
	"destiny_blue/internal/domain"
)

type inboxFixture struct {
	svc    *app.InboxService
	res    *fakeReservations
	llm    *fakeCompleter
	drafts *fakeDrafts
	notify *fakeNotifier
	sheet  *fakeSheet
	turns  *fakeTranscripts
}

func newInbox(t *testing.T) inboxFixture {
	t.Helper()
	f := inboxFixture{
		res: &fakeReservations{
			booking: domain.Booking{ID: "555", PropertyID: "410894", Arrival: "2026-03-01", Departure: "2026-03-07", GuestName: "Sam Rivers", Adults: 4},
			history: []domain.ThreadMessage{{FromGuest: true, Body: "Hi there"}, {FromGuest: false, Body: "Welcome!"}},
		},
		llm:    &fakeCompleter{reply: "Hi Sam! Check-in is at 4 PM."},
		drafts: newFakeDrafts(),
		notify: &fakeNotifier{},
		sheet:  &fakeSheet{},
		turns:  &fakeTranscripts{},
	}
	f.svc = app.NewInboxService(app.InboxDeps{
		Reservations: f.res,
		Completer:    f.llm,
		Drafts:       f.drafts,
		Notifier:     f.notify,
		Sheet:        f.sheet,
		Transcripts:  f.turns,
	}, app.InboxConfig{Units: testUnits, Location: chicago(), Now: fixedNow})
	return f
}

func guestEvent() domain.WebhookEvent {
	return domain.WebhookEvent{Type: "message.created", BookingID: "555", MessageID: "9", GuestName: "Guest", Body: "What time is check-in?"}
}

func TestHandleWebhook_DraftsAndPostsForApproval(t *testing.T) {
	f := newInbox(t)
	out, err := f.svc.HandleWebhook(context.Background(), guestEvent())
	require.NoError(t, err)
	assert.True(t, out.Drafted)
	assert.Equal(t, "555_9", out.DraftKey)

	d, ok := f.drafts.drafts["555_9"]
	require.True(t, ok)
	assert.Equal(t, "Hi Sam! Check-in is at 4 PM.", d.Reply)
	assert.Equal(t, "Sam Rivers", d.GuestName, "booking name replaces the generic one")

	system := f.llm.systems[0]
	assert.Contains(t, system, "- Unit: Unit 1006")
	assert.Contains(t, system, "- Check-in: 2026-03-01")
	assert.Contains(t, system, "- Adults: 4, Children: 0")
	assert.Contains(t, system, "Guest: Hi there\nHost: Welcome!")
	assert.Equal(t, `Guest message: "What time is check-in?"`, f.llm.history[0][0].Content)

	require.Len(t, f.notify.notices, 1)
	n := f.notify.notices[0]
	require.Len(t, n.Buttons, 3)
	assert.Equal(t, "confirm_555_9", n.Buttons[0].CustomID)
	assert.Equal(t, "edit_555_9", n.Buttons[1].CustomID)
	assert.Equal(t, "skip_555_9", n.Buttons[2].CustomID)
	assert.Equal(t, "Booking ID: 555 | Message ID: 9", n.Footer)

	require.Len(t, f.turns.turns, 1)
	assert.Equal(t, "inbox", f.turns.turns[0].Channel)
}

func TestHandleWebhook_Ignores(t *testing.T) {
	cases := map[string]func(*domain.WebhookEvent){
		"event_type":     func(e *domain.WebhookEvent) { e.Type = "property.updated" },
		"empty_message":  func(e *domain.WebhookEvent) { e.Body = "  " },
		"system_message": func(e *domain.WebhookEvent) { e.Body = "Your Booking Confirmed for March" },
	}
	for reason, mutate := range cases {
		t.Run(reason, func(t *testing.T) {
			f := newInbox(t)
			ev := guestEvent()
			mutate(&ev)
			out, err := f.svc.HandleWebhook(context.Background(), ev)
			require.NoError(t, err)
			assert.True(t, out.Ignored)
			assert.Equal(t, reason, out.Reason)
			assert.Empty(t, f.llm.systems)
		})
	}
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	f := newInbox(t)
	_, err := f.svc.HandleWebhook(context.Background(), guestEvent())
	require.NoError(t, err)
	out, err := f.svc.HandleWebhook(context.Background(), guestEvent())
	require.NoError(t, err)
	assert.Equal(t, "duplicate", out.Reason)
	assert.Len(t, f.notify.notices, 1)
}

func TestHandleWebhook_DegradesWithoutContextOrModel(t *testing.T) {
	f := newInbox(t)
	f.llm.err = errors.New("rate limited")
	ev := guestEvent()
	ev.BookingID = "404"
	ev.PropertyID = "293722"

	out, err := f.svc.HandleWebhook(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, out.Drafted)
	assert.Equal(t, "I'll get back to you shortly!", f.drafts.drafts["404_9"].Reply)
	assert.Contains(t, f.llm.systems[0], "- Unit: Unit 707")
	assert.Contains(t, f.llm.systems[0], "No previous messages.")
}

func TestHandleInteraction_ConfirmSendsAndForgets(t *testing.T) {
	f := newInbox(t)
	_, err := f.svc.HandleWebhook(context.Background(), guestEvent())
	require.NoError(t, err)

	resp := f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "confirm_555_9"})
	assert.Equal(t, "✅ Reply sent to Sam Rivers!", resp.Content)
	assert.Equal(t, []string{"555:Hi Sam! Check-in is at 4 PM."}, f.res.sent)
	assert.Empty(t, f.drafts.drafts)

	resp = f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "confirm_555_9"})
	assert.Contains(t, resp.Content, "expired or was already handled")
	assert.Len(t, f.res.sent, 1)
}

func TestHandleInteraction_ConfirmSendFailureKeepsDraft(t *testing.T) {
	f := newInbox(t)
	_, _ = f.svc.HandleWebhook(context.Background(), guestEvent())
	f.res.sendErr = errors.New("ownerrez 500")

	resp := f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "confirm_555_9"})
	assert.Contains(t, resp.Content, "Could not send")
	assert.Contains(t, f.drafts.drafts, "555_9")
}

func TestHandleInteraction_EditAndSkip(t *testing.T) {
	f := newInbox(t)
	_, _ = f.svc.HandleWebhook(context.Background(), guestEvent())

	resp := f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "edit_555_9"})
	assert.Contains(t, resp.Content, "Draft was:\n\nHi Sam! Check-in is at 4 PM.")
	assert.Contains(t, f.drafts.drafts, "555_9", "edit keeps the draft")

	resp = f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "skip_555_9"})
	assert.Contains(t, resp.Content, "Skipped")
	assert.Empty(t, f.drafts.drafts)

	resp = f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "edit_555_9"})
	assert.Contains(t, resp.Content, "Draft was:\n\nN/A")
}

func TestHandleInteraction_Acknowledgements(t *testing.T) {
	cases := []struct {
		customID string
		label    string
	}{
		{"ozanack_sess-1", "OZAN_ACK"},
		{"maint_onsite_sess-1", "MAINT_ONSITE"},
		{"maint_ozan_sess-1", "MAINT_OZAN"},
		{"maint_emergency_sess-1", "MAINT_EMERGENCY"},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			f := newInbox(t)
			resp := f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: tc.customID})
			assert.False(t, resp.Pong)
			assert.NotEmpty(t, resp.Content)

			require.Len(t, f.sheet.rows, 1)
			assert.Equal(t, []string{"2/14/2026, 9:30:00 AM", "sess-1", "", "", "", "", "", tc.label}, f.sheet.rows[0])
			require.Len(t, f.turns.acks, 1)
			assert.Equal(t, domain.Ack{SessionID: "sess-1", Label: tc.label, At: fixedNow()}, f.turns.acks[0])
		})
	}
}

func TestHandleInteraction_PingAndUnknown(t *testing.T) {
	f := newInbox(t)
	assert.True(t, f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionPing}).Pong)

	resp := f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionButton, CustomID: "launch_rockets"})
	assert.Equal(t, "Nothing to do for this button.", resp.Content)
	assert.Empty(t, f.sheet.rows)
}

func TestHandleInteraction_CommandIsNotPonged(t *testing.T) {
	f := newInbox(t)
	resp := f.svc.HandleInteraction(context.Background(), app.Interaction{Kind: app.InteractionOther, CustomID: "confirm_555_9"})
	assert.False(t, resp.Pong)
	assert.Equal(t, "Nothing to do for this button.", resp.Content)
	assert.Empty(t, f.res.sent, "a non-button interaction never sends a draft")
}
