package app

import (
	"strings"

	"destiny_blue/internal/domain"
)

type AlertKind string

const (
	AlertNone        AlertKind = ""
	AlertEmergency   AlertKind = "emergency"
	AlertLockout     AlertKind = "lockout"
	AlertMaintenance AlertKind = "maintenance"
	AlertBooking     AlertKind = "booking"
)

// Checked in this order; the first kind with a matching phrase wins.
var alertPhrases = []struct {
	kind    AlertKind
	phrases []string
}{
	{AlertEmergency, []string{
		"emergency", "on fire", "fire alarm", "smoke", "flood", "gas leak", "carbon monoxide", "ambulance", "911",
		"injured", "bleeding", "police",
	}},
	{AlertLockout, []string{
		"locked out", "lock out", "lockout", "can't get in", "cant get in", "cannot get in",
		"code doesn't work", "code does not work", "code isn't working", "pin doesn't work",
		"pin not working", "door won't open", "door wont open", "wrong code",
	}},
	{AlertMaintenance, []string{
		"not working", "broken", "leak", "leaking", "clogged", "no hot water", "ac is", "a/c",
		"air conditioning", "toilet", "wifi is down", "wifi down", "no power", "power is out",
		"dishwasher", "washer", "fridge", "refrigerator",
	}},
	{AlertBooking, []string{
		"book it", "ready to book", "want to book", "like to book", "how do i book",
		"reserve", "reservation",
	}},
}

// ClassifyAlert maps a guest message to the alert it should raise, if any.
func ClassifyAlert(message string) AlertKind {
	low := " " + strings.ToLower(message) + " "
	for _, g := range alertPhrases {
		for _, p := range g.phrases {
			if containsPhrase(low, p) {
				return g.kind
			}
		}
	}
	return AlertNone
}

// containsPhrase matches p where it is not part of a longer word.
func containsPhrase(s, p string) bool {
	from := 0
	for {
		i := strings.Index(s[from:], p)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(p)
		if !isWordByte(s[i-1]) && (end >= len(s) || !isWordByte(s[end])) {
			return true
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// Acknowledgement buttons carry "<prefix><session id>".
const (
	AckPrefixOzan          = "ozanack_"
	AckPrefixMaintOnsite   = "maint_onsite_"
	AckPrefixMaintOzan     = "maint_ozan_"
	AckPrefixMaintEmergent = "maint_emergency_"
)

// Sheet labels written for each acknowledgement.
const (
	LabelOzanAck        = "OZAN_ACK"
	LabelMaintOnsite    = "MAINT_ONSITE"
	LabelMaintOzan      = "MAINT_OZAN"
	LabelMaintEmergency = "MAINT_EMERGENCY"
)

var alertColors = map[AlertKind]int{
	AlertEmergency:   0xE74C3C,
	AlertLockout:     0xE67E22,
	AlertMaintenance: 0xF1C40F,
	AlertBooking:     0x2ECC71,
}

var alertTitles = map[AlertKind]string{
	AlertEmergency:   "🚨 EMERGENCY reported by a guest",
	AlertLockout:     "🔐 Guest locked out",
	AlertMaintenance: "🔧 Maintenance request",
	AlertBooking:     "💰 Guest ready to book",
}

func alertButtons(kind AlertKind, sessionID string) []domain.NoticeButton {
	switch kind {
	case AlertEmergency, AlertLockout:
		return []domain.NoticeButton{{Label: "🫡 On it", CustomID: AckPrefixOzan + sessionID, Style: 1}}
	case AlertMaintenance:
		return []domain.NoticeButton{
			{Label: "🔧 Onsite ticket", CustomID: AckPrefixMaintOnsite + sessionID, Style: 1},
			{Label: "👨‍🔧 I'll handle it", CustomID: AckPrefixMaintOzan + sessionID, Style: 2},
			{Label: "🚨 Emergency, calling", CustomID: AckPrefixMaintEmergent + sessionID, Style: 4},
		}
	}
	return nil
}

func alertNotice(kind AlertKind, sessionID, message string, q *StayQuote) domain.Notice {
	n := domain.Notice{
		Title: alertTitles[kind],
		Color: alertColors[kind],
		Fields: []domain.NoticeField{
			{Name: "Session", Value: sessionID, Inline: true},
			{Name: "Guest message", Value: truncateRunes(message, 500)},
		},
		Footer:  "Destiny Blue website chat",
		Buttons: alertButtons(kind, sessionID),
	}
	if q != nil {
		n.Fields = append(n.Fields,
			domain.NoticeField{Name: "Dates", Value: q.Request.Arrival + " → " + q.Request.Departure, Inline: true},
			domain.NoticeField{Name: "Party", Value: partyOf(q.Request.Adults, q.Request.Children), Inline: true},
		)
	}
	return n
}
