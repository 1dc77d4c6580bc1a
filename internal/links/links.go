// Package links renders booking-page deep links for a stay request.
package links

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"destiny_blue/internal/stay"
)

type DateFormat int

const (
	ISO DateFormat = iota // 2026-03-01
	US                    // 3/1/2026
)

// Variant names the query parameters one booking target understands.
type Variant struct {
	Name           string
	ArrivalParam   string
	DepartureParam string
	DateFormat     DateFormat
	// GuestsParam and PropertyParam are omitted from the query when empty.
	GuestsParam   string
	PropertyParam string
}

var (
	OwnerRez = Variant{Name: "ownerrez", ArrivalParam: "or_arrival", DepartureParam: "or_departure", DateFormat: US, PropertyParam: "property"}
	Direct   = Variant{Name: "direct", ArrivalParam: "arrival", DepartureParam: "departure", DateFormat: ISO, GuestsParam: "guests", PropertyParam: "property_id"}
	CheckIn  = Variant{Name: "checkin", ArrivalParam: "checkin", DepartureParam: "checkout", DateFormat: US, GuestsParam: "guests"}
	Range    = Variant{Name: "range", ArrivalParam: "start", DepartureParam: "end", DateFormat: ISO}
	Short    = Variant{Name: "short", ArrivalParam: "sd", DepartureParam: "ed", DateFormat: ISO, GuestsParam: "guests"}
)

// DefaultVariants is used when a Builder has none configured.
func DefaultVariants() []Variant { return []Variant{OwnerRez, Direct} }

// Lookup finds a built-in variant by name.
func Lookup(name string) (Variant, bool) {
	for _, v := range []Variant{OwnerRez, Direct, CheckIn, Range, Short} {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Variant{}, false
}

type Link struct {
	Variant string `json:"variant"`
	URL     string `json:"url"`
}

type Builder struct {
	BaseURL    string
	PropertyID string
	Variants   []Variant
}

// Build renders one link per variant. Counts are emitted as given.
func (b Builder) Build(req stay.Request) []Link {
	vs := b.Variants
	if len(vs) == 0 {
		vs = DefaultVariants()
	}
	out := make([]Link, 0, len(vs))
	for _, v := range vs {
		out = append(out, Link{Variant: v.Name, URL: b.render(v, req)})
	}
	return out
}

func (b Builder) render(v Variant, req stay.Request) string {
	q := url.Values{}
	q.Set(v.ArrivalParam, FormatDate(req.Arrival, v.DateFormat))
	q.Set(v.DepartureParam, FormatDate(req.Departure, v.DateFormat))
	q.Set("adults", strconv.Itoa(req.Adults))
	q.Set("children", strconv.Itoa(req.Children))
	if v.GuestsParam != "" {
		q.Set(v.GuestsParam, strconv.Itoa(req.Guests()))
	}
	if v.PropertyParam != "" && b.PropertyID != "" {
		q.Set(v.PropertyParam, b.PropertyID)
	}
	sep := "?"
	if strings.Contains(b.BaseURL, "?") {
		sep = "&"
	}
	return b.BaseURL + sep + q.Encode()
}

// FormatDate converts an ISO date for the variant. Unparseable input is
// returned unchanged.
func FormatDate(iso string, f DateFormat) string {
	if f != US {
		return iso
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("1/2/2006")
}
