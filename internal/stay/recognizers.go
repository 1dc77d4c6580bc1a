package stay

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Match is one recognized date and where its fragment sits in the source text.
type Match struct {
	Date   time.Time
	Offset int
	Length int
	Family string
}

// Recognizer finds the dates of one pattern family.
type Recognizer struct {
	Family string
	Find   func(text string, now time.Time) []Match
}

const (
	FamilyCrossMonth    = "cross-month"
	FamilyDayRangeMonth = "day-range-month"
	FamilySlashRange    = "slash-range"
	FamilyISO           = "iso"
	FamilySlash         = "slash"
	FamilyMonthDay      = "month-day"
)

const (
	monthPat = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:tember|t)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	ordPat   = `(?:st|nd|rd|th)?`
	dashPat  = `(?:-|–|—)`
	yearPat  = `(?:,?\s+(\d{4})\b)?`
)

var (
	crossMonthRE = regexp.MustCompile(`(?i)\b` + monthPat + `\s+(\d{1,2})` + ordPat +
		`\s*(?:to|and|through|thru|until|till|` + dashPat + `)\s*(?:` + monthPat + `\s+)?(\d{1,2})` + ordPat + `\b` + yearPat)
	dayRangeMonthRE = regexp.MustCompile(`(?i)\b(\d{1,2})` + ordPat + `\s*(?:to|` + dashPat + `)\s*(\d{1,2})` + ordPat +
		`\s+(?:of\s+)?` + monthPat + `\b` + yearPat)
	slashRangeRE = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\s*(?:to|` + dashPat + `)\s*(\d{1,2})/(\d{1,2})\b`)
	isoRE        = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashRE      = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)
	monthDayRE   = regexp.MustCompile(`(?i)\b` + monthPat + `\s+(\d{1,2})` + ordPat + `\b` + yearPat)
	partyNounRE  = regexp.MustCompile(`(?i)^\s*(?:adults?|kids?|children|child|guests?|people|persons?|pax)\b`)
)

// DefaultRecognizers is the fixed family priority order: ranges first, so a
// range claims its span before the single dates inside it are considered.
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		{Family: FamilyCrossMonth, Find: findCrossMonth},
		{Family: FamilyDayRangeMonth, Find: findDayRangeMonth},
		{Family: FamilySlashRange, Find: findSlashRange},
		{Family: FamilyISO, Find: findISO},
		{Family: FamilySlash, Find: findSlash},
		{Family: FamilyMonthDay, Find: findMonthDay},
	}
}

// NormalizeYear expands a two-digit year: below 70 is 20xx, otherwise 19xx.
// Other lengths are returned as written.
func NormalizeYear(yy string) int {
	n, err := strconv.Atoi(yy)
	if err != nil {
		return 0
	}
	if len(yy) != 2 {
		return n
	}
	if n < 70 {
		return 2000 + n
	}
	return 1900 + n
}

func findCrossMonth(text string, now time.Time) []Match {
	var out []Match
	for _, m := range crossMonthRE.FindAllStringSubmatchIndex(text, -1) {
		g := groups(text, m)
		m1, ok := monthOf(g[1])
		if !ok {
			continue
		}
		m2 := m1
		if g[3] != "" {
			if m2, ok = monthOf(g[3]); !ok {
				continue
			}
		}
		if g[5] == "" && continuesDate(text, m[1]) {
			// "Dec 20 to 12/27/2026": the second number starts a slash date
			continue
		}
		if g[3] == "" && g[5] == "" && partyNounRE.MatchString(text[m[1]:]) {
			// "Dec 20 and 3 adults": a head count, not a day
			continue
		}
		year := yearOr(g[5], now)
		y1 := year
		if g[5] != "" && m2 < m1 {
			// the written year belongs to the departure month
			y1--
		}
		a, okA := dateOf(y1, m1, g[2])
		b, okB := dateOf(year, m2, g[4])
		if !okA || !okB {
			continue
		}
		out = append(out, pair(FamilyCrossMonth, m, a, b)...)
	}
	return out
}

func findDayRangeMonth(text string, now time.Time) []Match {
	var out []Match
	for _, m := range dayRangeMonthRE.FindAllStringSubmatchIndex(text, -1) {
		if gluedBefore(text, m[0]) {
			continue
		}
		g := groups(text, m)
		mon, ok := monthOf(g[3])
		if !ok {
			continue
		}
		year := yearOr(g[4], now)
		a, okA := dateOf(year, mon, g[1])
		b, okB := dateOf(year, mon, g[2])
		if !okA || !okB {
			continue
		}
		out = append(out, pair(FamilyDayRangeMonth, m, a, b)...)
	}
	return out
}

func findSlashRange(text string, now time.Time) []Match {
	var out []Match
	for _, m := range slashRangeRE.FindAllStringSubmatchIndex(text, -1) {
		if gluedBefore(text, m[0]) || gluedAfter(text, m[1]) {
			continue
		}
		g := groups(text, m)
		a, okA := slashDate(now.Year(), g[1], g[2])
		b, okB := slashDate(now.Year(), g[3], g[4])
		if !okA || !okB {
			continue
		}
		out = append(out, pair(FamilySlashRange, m, a, b)...)
	}
	return out
}

func findISO(text string, _ time.Time) []Match {
	var out []Match
	for _, m := range isoRE.FindAllStringSubmatchIndex(text, -1) {
		g := groups(text, m)
		y, _ := strconv.Atoi(g[1])
		mo, _ := strconv.Atoi(g[2])
		if mo < 1 || mo > 12 {
			continue
		}
		d, ok := dateOf(y, time.Month(mo), g[3])
		if !ok {
			continue
		}
		out = append(out, single(FamilyISO, m, d))
	}
	return out
}

func findSlash(text string, _ time.Time) []Match {
	var out []Match
	for _, m := range slashRE.FindAllStringSubmatchIndex(text, -1) {
		g := groups(text, m)
		d, ok := slashDate(NormalizeYear(g[3]), g[1], g[2])
		if !ok {
			continue
		}
		out = append(out, single(FamilySlash, m, d))
	}
	return out
}

func findMonthDay(text string, now time.Time) []Match {
	var out []Match
	for _, m := range monthDayRE.FindAllStringSubmatchIndex(text, -1) {
		g := groups(text, m)
		mon, ok := monthOf(g[1])
		if !ok {
			continue
		}
		d, ok := dateOf(yearOr(g[3], now), mon, g[2])
		if !ok {
			continue
		}
		out = append(out, single(FamilyMonthDay, m, d))
	}
	return out
}

// ---- helpers ----

// groups converts submatch indexes into strings; unmatched groups are "".
func groups(text string, idx []int) []string {
	out := make([]string, len(idx)/2)
	for i := range out {
		if s, e := idx[2*i], idx[2*i+1]; s >= 0 {
			out[i] = text[s:e]
		}
	}
	return out
}

// single covers the whole fragment; pair puts the second date at the end of
// the fragment so both keep their relative order after sorting.
func single(family string, idx []int, d time.Time) Match {
	return Match{Date: d, Offset: idx[0], Length: idx[1] - idx[0], Family: family}
}

func pair(family string, idx []int, a, b time.Time) []Match {
	n := idx[1] - idx[0]
	return []Match{
		{Date: a, Offset: idx[0], Length: n, Family: family},
		{Date: b, Offset: idx[0] + 1, Length: n - 1, Family: family},
	}
}

func monthOf(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if len(s) < 3 {
		return 0, false
	}
	switch s[:3] {
	case "jan":
		return time.January, true
	case "feb":
		return time.February, true
	case "mar":
		return time.March, true
	case "apr":
		return time.April, true
	case "may":
		return time.May, true
	case "jun":
		return time.June, true
	case "jul":
		return time.July, true
	case "aug":
		return time.August, true
	case "sep":
		return time.September, true
	case "oct":
		return time.October, true
	case "nov":
		return time.November, true
	case "dec":
		return time.December, true
	}
	return 0, false
}

func yearOr(s string, now time.Time) int {
	if s == "" {
		return now.Year()
	}
	return NormalizeYear(s)
}

// dateOf rejects days that do not exist in the month (Feb 30, Apr 31).
func dateOf(year int, month time.Month, day string) (time.Time, bool) {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func slashDate(year int, month, day string) (time.Time, bool) {
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	return dateOf(year, time.Month(mo), day)
}

// gluedBefore reports a fragment that continues a slash or ISO date on its left.
func gluedBefore(text string, start int) bool {
	return start > 0 && (text[start-1] == '/' || text[start-1] == '-')
}

func gluedAfter(text string, end int) bool {
	return end < len(text) && text[end] == '/'
}

// continuesDate reports a fragment whose last number runs on into a slash or
// dashed date.
func continuesDate(text string, end int) bool {
	return end < len(text) && (text[end] == '/' || text[end] == '-')
}
