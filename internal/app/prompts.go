package app

import (
	"fmt"
	"strings"
	"time"

	"destiny_blue/internal/domain"
)

const persona = `You are Destiny Blue, a warm and professional assistant for Destin Condo Getaways at Pelican Beach Resort in Destin, Florida.`

// propertyKnowledge is shared by the website chat and the inbox drafts.
const propertyKnowledge = `PROPERTY KNOWLEDGE:
- Check-in: 4:00 PM CST. PIN sent 7 days and 1 day before. Go directly to unit, no lobby check-in needed.
- Check-out: by 10:00 AM CST.
- Stop at front desk for parking pass and pool bracelets (March-October).
- Free parking up to 2 cars.
- Max 6 guests (fire code, no exceptions).
- Pets: zero exceptions, HOA rule.
- Smoking: not allowed in unit or balcony. Two areas: next to Tiki Bar, north entrance of garage left side. $250 violation charge.
- WiFi: 250+ Mbps, Eero 6.
- Beach chairs and umbrella included (behind LDV rental section).
- LDV Beach service: 9AM-5PM March 1-Oct 31, $40/day for 2 umbrellas and chair.
- 3 pools: indoor heated (year-round), 2 outdoor, kiddie pool.
- Sauna, steam room, fitness center, tennis and pickleball courts.
- Washer/dryer on every floor (quarters and credit card).
- 24/7 front desk: (850) 654-1425.
- Ozan: (972) 357-4262 | ozan@destincondogetaways.com
- Code DESTINY = 10% off (only mention if relevant).
- 2 EV chargers on site (J1772, paid).
- Big Kahuna's water park across the street.
- Walking distance: Target, Walgreens, McDonald's about 1 mile.`

const chatRules = `RULES:
- Keep replies under 120 words, plain conversational text, no markdown.
- Only quote availability listed under AVAILABILITY; never guess.
- When a unit is available, share its booking link exactly as given.
- When availability is unknown, say Ozan will confirm and share the link anyway.
- Never invent policies; refer to Ozan if unsure.
- Never put a period immediately after a URL.`

const draftRules = `RULES FOR THIS DRAFT:
- Keep reply under 150 words.
- Use guest's first name once at start.
- Never use markdown bold or bullet points; plain conversational text only.
- Never invent policies; refer to Ozan if unsure.
- End warmly but not with "If you have any other questions just let me know".
- Never put a period immediately after a URL.`

// fallbackReply is sent when the completion service fails.
const fallbackReply = "I'm having trouble pulling up my notes right now. Please text Ozan at (972) 357-4262 and you'll get an answer quickly."

// draftFallback stands in for an empty or failed inbox draft.
const draftFallback = "I'll get back to you shortly!"

func longDate(t time.Time) string { return t.Format("Monday, January 2, 2006") }

type chatFacts struct {
	Today        time.Time
	Stay         *StayQuote
	Alert        AlertKind
	RequestedFor string
}

func chatSystemPrompt(f chatFacts) string {
	var b strings.Builder
	b.WriteString(persona)
	fmt.Fprintf(&b, "\n\nToday is %s.\n\n", longDate(f.Today))
	b.WriteString("You are chatting with a prospective guest on the website. Be friendly and help them book.\n\n")

	b.WriteString("AVAILABILITY:\n")
	if f.Stay == nil {
		b.WriteString("- No dates given yet. Ask for arrival and departure dates and party size.\n")
	} else {
		fmt.Fprintf(&b, "- Requested stay: %s to %s, %d adults, %d children.\n",
			f.Stay.Request.Arrival, f.Stay.Request.Departure, f.Stay.Request.Adults, f.Stay.Request.Children)
		for _, u := range f.Stay.Units {
			fmt.Fprintf(&b, "- %s: %s\n", u.Unit, u.Status)
			for _, l := range u.Links {
				fmt.Fprintf(&b, "  link (%s): %s\n", l.Variant, l.URL)
			}
		}
	}
	if f.Alert != AlertNone {
		fmt.Fprintf(&b, "\nThe host has been alerted (%s). Reassure the guest that Ozan is being notified now.\n", f.Alert)
	}
	b.WriteString("\n")
	b.WriteString(propertyKnowledge)
	b.WriteString("\n\n")
	b.WriteString(chatRules)
	return b.String()
}

type draftFacts struct {
	Today     time.Time
	GuestName string
	Unit      string
	CheckIn   string
	CheckOut  string
	Adults    int
	Children  int
	History   []domain.ThreadMessage
}

func draftSystemPrompt(f draftFacts) string {
	var b strings.Builder
	b.WriteString(persona)
	fmt.Fprintf(&b, "\n\nToday is %s.\n\n", longDate(f.Today))
	b.WriteString(`You are drafting a reply to a CONFIRMED GUEST (not a prospect). Tone shift:
- Less sales, more hospitality and service
- Warm, personal, use guest's first name
- Concise and helpful
- Never mention booking platforms by name
- Never guess; if you don't know something, say Ozan will confirm

`)
	adults := "?"
	if f.Adults > 0 {
		adults = fmt.Sprint(f.Adults)
	}
	fmt.Fprintf(&b, "BOOKING DETAILS:\n- Guest name: %s\n- Unit: %s\n- Check-in: %s\n- Check-out: %s\n- Adults: %s, Children: %d\n\n",
		orDefault(f.GuestName, "Guest"), orDefault(f.Unit, "the unit"),
		orDefault(f.CheckIn, "TBD"), orDefault(f.CheckOut, "TBD"), adults, f.Children)

	b.WriteString("CONVERSATION HISTORY:\n")
	if len(f.History) == 0 {
		b.WriteString("No previous messages.\n")
	}
	for _, m := range f.History {
		who := "Host"
		if m.FromGuest {
			who = "Guest"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Body)
	}
	b.WriteString("\n")
	b.WriteString(propertyKnowledge)
	b.WriteString("\n\n")
	b.WriteString(draftRules)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
