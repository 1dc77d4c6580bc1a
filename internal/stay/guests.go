package stay

import (
	"regexp"
	"strconv"
)

var (
	adultsRE   = regexp.MustCompile(`(?i)\b(\d+)\s*adults?\b`)
	childrenRE = regexp.MustCompile(`(?i)\b(\d+)\s*(?:kids?|children|child)\b`)
	guestsRE   = regexp.MustCompile(`(?i)\b(\d+)\s*(?:guests?|people|persons?|pax)\b|\bparty\s+of\s+(\d+)\b`)
	noKidsRE   = regexp.MustCompile(`(?i)\b(?:no\s+(?:kids|children|child)|adults?\s+only|just\s+adults|only\s+adults)\b`)
)

// Guests resolves the party from three independent searches over the whole
// text. A guest total is only used when neither adults nor children were
// stated, and then counts entirely as adults.
func (e *Extractor) Guests(text string) (adults, children int) {
	a, aok := firstInt(adultsRE, text)
	c, cok := firstInt(childrenRE, text)
	if !aok && !cok {
		if g, ok := firstInt(guestsRE, text); ok {
			a, aok = g, true
			c, cok = 0, true
		}
	}
	if noKidsRE.MatchString(text) {
		c, cok = 0, true
	}
	if !aok {
		a = e.cfg.DefaultAdults
	}
	if !cok {
		c = e.cfg.DefaultChildren
	}
	return a, c
}

// firstInt returns the first non-empty numeric group of the leftmost match.
func firstInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
