package stay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"destiny_blue/internal/stay"
)

func fixedClock() time.Time { return time.Date(2026, time.February, 14, 9, 0, 0, 0, time.UTC) }

func newExtractor() *stay.Extractor {
	return stay.New(stay.Config{
		Now: fixedClock,
		Units: []stay.Unit{
			{Label: "Unit 707", PropertyID: "293722", Aliases: []string{"707", "seventh floor"}},
			{Label: "Unit 1006", PropertyID: "410894", Aliases: []string{"1006", "tenth floor"}},
		},
		DefaultUnit: "Unit 707",
	})
}

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		text string
		want stay.Request
	}{
		{
			name: "iso dates with adults and child",
			text: "We'd like 2025-10-10 to 2025-10-15, 2 adults 1 child",
			want: stay.Request{Arrival: "2025-10-10", Departure: "2025-10-15", Adults: 2, Children: 1},
		},
		{
			name: "month day range with party size",
			text: "March 1-7, party of 3",
			want: stay.Request{Arrival: "2026-03-01", Departure: "2026-03-07", Adults: 3, Children: 0},
		},
		{
			name: "slash dates with no kids",
			text: "10/10/25 to 10/15/25, no kids, 4 adults",
			want: stay.Request{Arrival: "2025-10-10", Departure: "2025-10-15", Adults: 4, Children: 0},
		},
		{
			name: "appearance order wins over chronology",
			text: "Dec 20 to Dec 5",
			want: stay.Request{Arrival: "2026-12-20", Departure: "2026-12-05", Adults: 2, Children: 0},
		},
		{
			name: "cross month range",
			text: "Looking at December 28th through January 3rd for 2 adults and 2 kids",
			want: stay.Request{Arrival: "2026-12-28", Departure: "2026-01-03", Adults: 2, Children: 2},
		},
		{
			name: "day range before month",
			text: "12-19 June, 4 adults, 2 kids",
			want: stay.Request{Arrival: "2026-06-12", Departure: "2026-06-19", Adults: 4, Children: 2},
		},
		{
			name: "slash range in current year",
			text: "Is 7/4-7/9 open? 5 guests",
			want: stay.Request{Arrival: "2026-07-04", Departure: "2026-07-09", Adults: 5, Children: 0},
		},
		{
			name: "month names with explicit years",
			text: "Arriving Sept 30, 2027 and leaving Oct 4, 2027",
			want: stay.Request{Arrival: "2027-09-30", Departure: "2027-10-04", Adults: 2, Children: 0},
		},
		{
			name: "mixed families keep text order",
			text: "either 08/01/2026 or Aug 3 works, back by 2026-08-09",
			want: stay.Request{Arrival: "2026-08-01", Departure: "2026-08-03", Adults: 2, Children: 0},
		},
		{
			name: "month day then slash date",
			text: "Dec 20 to 12/27/2026",
			want: stay.Request{Arrival: "2026-12-20", Departure: "2026-12-27", Adults: 2, Children: 0},
		},
		{
			name: "month day dash slash date",
			text: "Oct 10 - 10/15/2026",
			want: stay.Request{Arrival: "2026-10-10", Departure: "2026-10-15", Adults: 2, Children: 0},
		},
		{
			name: "cross year range with written year",
			text: "Dec 28 to Jan 3, 2027",
			want: stay.Request{Arrival: "2026-12-28", Departure: "2027-01-03", Adults: 2, Children: 0},
		},
		{
			name: "and connector before party",
			text: "Dec 20 and 23 for 3 adults",
			want: stay.Request{Arrival: "2026-12-20", Departure: "2026-12-23", Adults: 3, Children: 0},
		},
		{
			name: "unit alias resolved",
			text: "Is 1006 free 2026-05-01 to 2026-05-04?",
			want: stay.Request{Arrival: "2026-05-01", Departure: "2026-05-04", Adults: 2, Children: 0, Unit: "Unit 1006"},
		},
	}
	ex := newExtractor()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ex.Extract(tc.text)
			require.True(t, ok)
			if tc.want.Unit == "" {
				tc.want.Unit = "Unit 707"
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtract_NotEnoughInformation(t *testing.T) {
	ex := newExtractor()
	for _, text := range []string{
		"",
		"just checking wifi speed",
		"arriving 2026-03-01 with 4 adults and 2 kids",
		"February 30 to February 31",
		"Marhc 3 to Marhc 9",
		"4 adults 2 children 5 guests",
		"arriving Dec 20 and 3 adults",
		"Dec 20 - 2 kids",
	} {
		_, ok := ex.Extract(text)
		assert.False(t, ok, "text %q", text)
	}
}

func TestNormalizeYear(t *testing.T) {
	cases := map[string]int{"25": 2025, "95": 1995, "69": 2069, "70": 1970, "00": 2000, "2031": 2031}
	for in, want := range cases {
		assert.Equal(t, want, stay.NormalizeYear(in), in)
	}
}

func TestDates_TwoDigitYearBoundary(t *testing.T) {
	ex := newExtractor()
	assert.Equal(t, []string{"2025-07-10"}, ex.Dates("07/10/25"))
	assert.Equal(t, []string{"1995-07-10"}, ex.Dates("07/10/95"))
	assert.Equal(t, []string{"2069-07-10"}, ex.Dates("07/10/69"))
	assert.Equal(t, []string{"1970-07-10"}, ex.Dates("07/10/70"))
}

func TestDates_RangeClaimsItsSpan(t *testing.T) {
	ex := newExtractor()
	// "March 1" alone would also match the month-day family.
	assert.Equal(t, []string{"2026-03-01", "2026-03-07"}, ex.Dates("March 1-7"))

	ms := ex.Matches("March 1-7")
	require.Len(t, ms, 2)
	assert.Equal(t, stay.FamilyCrossMonth, ms[0].Family)
	assert.Equal(t, stay.FamilyCrossMonth, ms[1].Family)
}

func TestDates_SlashDateIsNotARange(t *testing.T) {
	ex := newExtractor()
	assert.Equal(t, []string{"2025-10-10", "2025-10-15"}, ex.Dates("10/10/25-10/15/25"))
}

func TestGuests(t *testing.T) {
	ex := newExtractor()
	tests := []struct {
		text             string
		adults, children int
	}{
		{"no numbers here", 2, 0},
		{"2 adults, 4 guests", 2, 0},
		{"1 kid and 3 adults", 3, 1},
		{"3 children", 2, 3},
		{"6 guests", 6, 0},
		{"party of 5", 5, 0},
		{"2 Adults 2 kids but adults only actually", 2, 0},
		{"4 people", 4, 0},
	}
	for _, tc := range tests {
		a, c := ex.Guests(tc.text)
		assert.Equal(t, tc.adults, a, tc.text)
		assert.Equal(t, tc.children, c, tc.text)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	ex := newExtractor()
	text := "Nov 2 - Nov 9, 2 adults 2 kids in 707"
	first, ok := ex.Extract(text)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := ex.Extract(text)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestExtractConversation_FallsBackToHistory(t *testing.T) {
	ex := newExtractor()
	all := []string{"Hi! we are 3 adults", "thinking April 10", "until April 14"}

	_, ok := ex.Extract(all[2])
	require.False(t, ok)

	got, ok := ex.ExtractConversation(all[2], all)
	require.True(t, ok)
	assert.Equal(t, "2026-04-10", got.Arrival)
	assert.Equal(t, "2026-04-14", got.Departure)
	assert.Equal(t, 3, got.Adults)
}

func TestNew_Defaults(t *testing.T) {
	ex := stay.New(stay.Config{Now: fixedClock})
	got, ok := ex.Extract("2026-01-01 2026-01-02")
	require.True(t, ok)
	assert.Equal(t, 2, got.Adults)
	assert.Equal(t, 0, got.Children)
	assert.Equal(t, "", got.Unit)
	assert.Equal(t, 2, got.Guests())
}

func TestExtract_CustomRecognizers(t *testing.T) {
	ex := stay.New(stay.Config{
		Now:         fixedClock,
		Recognizers: []stay.Recognizer{stay.DefaultRecognizers()[3]}, // iso only
	})
	_, ok := ex.Extract("10/10/25 to 10/15/25")
	assert.False(t, ok)
	_, ok = ex.Extract("2025-10-10 to 2025-10-15")
	assert.True(t, ok)
}

func TestNamedUnit(t *testing.T) {
	ex := newExtractor()

	label, ok := ex.NamedUnit("is the tenth floor one open? or 707?")
	require.True(t, ok)
	assert.Equal(t, "Unit 1006", label, "earliest alias wins")

	_, ok = ex.NamedUnit("any condo with a view")
	assert.False(t, ok)
	assert.Equal(t, "Unit 707", ex.ResolveUnit("any condo with a view"))

	_, ok = ex.NamedUnit("room 17071")
	assert.False(t, ok, "aliases glued to digits do not count")
}
