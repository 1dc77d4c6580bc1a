// Package stay turns free-form guest text into a stay request: arrival and
// departure dates plus the party composition.
package stay

import (
	"sort"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// Request is the normalized stay a guest asked about. It lives for a single
// request/response cycle and is never persisted.
type Request struct {
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children"`
	Unit      string `json:"unit,omitempty"`
}

// Guests is the total party size.
func (r Request) Guests() int { return r.Adults + r.Children }

// Unit is one rentable property and the words guests use for it.
type Unit struct {
	Label      string   `yaml:"label" json:"label"`
	PropertyID string   `yaml:"property_id" json:"property_id"`
	Aliases    []string `yaml:"aliases" json:"aliases"`
}

type Config struct {
	// Now supplies the current calendar year for dates written without one.
	Now             func() time.Time
	DefaultAdults   int
	DefaultChildren int
	// Recognizers run in order; earlier families win overlapping spans.
	Recognizers []Recognizer
	Units       []Unit
	DefaultUnit string
}

// Extractor is safe for concurrent use; it holds no mutable state.
type Extractor struct {
	cfg Config
}

// New fills the documented defaults: time.Now, two adults, no children and
// DefaultRecognizers.
func New(cfg Config) *Extractor {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultAdults <= 0 {
		cfg.DefaultAdults = 2
	}
	if cfg.DefaultChildren < 0 {
		cfg.DefaultChildren = 0
	}
	if len(cfg.Recognizers) == 0 {
		cfg.Recognizers = DefaultRecognizers()
	}
	return &Extractor{cfg: cfg}
}

// Matches returns every recognized date with its source offset, sorted by
// appearance in the text.
func (e *Extractor) Matches(text string) []Match {
	now := e.cfg.Now()
	var claimed []span
	var out []Match
	for _, r := range e.cfg.Recognizers {
		var accepted []span
		for _, m := range r.Find(text, now) {
			sp := span{m.Offset, m.Offset + m.Length}
			if overlapsAny(claimed, sp) {
				continue
			}
			out = append(out, m)
			accepted = append(accepted, sp)
		}
		claimed = append(claimed, accepted...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Dates returns recognized dates as ISO strings in appearance order.
func (e *Extractor) Dates(text string) []string {
	ms := e.Matches(text)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Date.Format(isoLayout))
	}
	return out
}

// Extract builds a stay request from the first two dates in appearance order.
// It reports false when fewer than two dates were found, whatever the guest
// counts say. Arrival is not required to precede departure.
func (e *Extractor) Extract(text string) (Request, bool) {
	dates := e.Dates(text)
	if len(dates) < 2 {
		return Request{}, false
	}
	adults, children := e.Guests(text)
	return Request{
		Arrival:   dates[0],
		Departure: dates[1],
		Adults:    adults,
		Children:  children,
		Unit:      e.ResolveUnit(text),
	}, true
}

// ExtractConversation tries the latest guest message, then all guest messages
// joined together.
func (e *Extractor) ExtractConversation(latest string, all []string) (Request, bool) {
	if req, ok := e.Extract(latest); ok {
		return req, true
	}
	if len(all) == 0 {
		return Request{}, false
	}
	return e.Extract(strings.Join(all, "\n"))
}

// ResolveUnit returns the label of the first unit whose alias occurs in text,
// falling back to the configured default.
func (e *Extractor) ResolveUnit(text string) string {
	if label, ok := e.NamedUnit(text); ok {
		return label
	}
	return e.cfg.DefaultUnit
}

// NamedUnit reports the unit whose alias appears earliest in text, if any.
func (e *Extractor) NamedUnit(text string) (string, bool) {
	low := strings.ToLower(text)
	best, bestAt := "", -1
	for _, u := range e.cfg.Units {
		for _, a := range u.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			if i := indexWord(low, a); i >= 0 && (bestAt < 0 || i < bestAt) {
				best, bestAt = u.Label, i
			}
		}
	}
	return best, bestAt >= 0
}

// Units returns the configured unit table.
func (e *Extractor) Units() []Unit { return e.cfg.Units }

// indexWord finds needle in s where it is not glued to other letters or digits.
func indexWord(s, needle string) int {
	from := 0
	for {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(needle)
		if (i == 0 || !isAlnum(s[i-1])) && (end == len(s) || !isAlnum(s[end])) {
			return i
		}
		from = i + 1
	}
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

type span struct{ start, end int }

func overlapsAny(spans []span, s span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}
