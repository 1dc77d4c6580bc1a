// internal/adapters/ownerrez/client.go
package ownerrez

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/domain"
)

type Client struct {
	base  string
	hc    *http.Client
	user  string
	token string
	rl    *rate.Limiter
}

func New(base, user, token string, rps int) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("API token is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		user:  user,
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- wire types ----

// flexID accepts ids sent as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexID(s)
	return nil
}

type bookingDTO struct {
	ID         flexID `json:"id"`
	PropertyID flexID `json:"property_id"`
	Arrival    string `json:"arrival"`
	Departure  string `json:"departure"`
	Status     string `json:"status"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	Guest      struct {
		Name string `json:"name"`
	} `json:"guest"`
	GuestName string `json:"guest_name"`
}

func (b bookingDTO) toDomain() domain.Booking {
	name := b.Guest.Name
	if name == "" {
		name = b.GuestName
	}
	return domain.Booking{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		Arrival:    dateOnly(b.Arrival),
		Departure:  dateOnly(b.Departure),
		Status:     b.Status,
		GuestName:  name,
		Adults:     b.Adults,
		Children:   b.Children,
	}
}

type messageDTO struct {
	FromGuest bool   `json:"from_guest"`
	Body      string `json:"body"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type page[T any] struct {
	Items []T `json:"items"`
}

// ---- Public API ----

// ListBookings returns the active bookings of a property that overlap [from, to).
func (c *Client) ListBookings(ctx context.Context, propertyID, from, to string) ([]domain.Booking, error) {
	q := url.Values{}
	q.Set("property_ids", propertyID)
	q.Set("from", from)
	q.Set("to", to)
	var out page[bookingDTO]
	if err := c.do(ctx, http.MethodGet, "bookings", c.base+"/v2/bookings?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	var bs []domain.Booking
	for _, dto := range out.Items {
		b := dto.toDomain()
		if isCanceled(b.Status) || !b.Overlaps(from, to) {
			continue
		}
		bs = append(bs, b)
	}
	return bs, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	var dto bookingDTO
	if err := c.do(ctx, http.MethodGet, "booking", c.base+"/v2/bookings/"+url.PathEscape(id), nil, &dto); err != nil {
		return domain.Booking{}, err
	}
	return dto.toDomain(), nil
}

// ListMessages returns at most the last ten thread messages of the fetched page.
func (c *Client) ListMessages(ctx context.Context, bookingID string, limit int) ([]domain.ThreadMessage, error) {
	q := url.Values{}
	q.Set("booking_id", bookingID)
	q.Set("limit", strconv.Itoa(limit))
	var out page[messageDTO]
	if err := c.do(ctx, http.MethodGet, "messages", c.base+"/v2/messages?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	items := out.Items
	if len(items) > 10 {
		items = items[len(items)-10:]
	}
	msgs := make([]domain.ThreadMessage, 0, len(items))
	for _, m := range items {
		body := m.Body
		if body == "" {
			body = m.Text
		}
		msgs = append(msgs, domain.ThreadMessage{FromGuest: m.FromGuest, Body: body, CreatedAt: m.CreatedAt})
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, bookingID, body string) error {
	payload := map[string]any{"booking_id": bookingID, "body": body, "from_guest": false}
	return c.do(ctx, http.MethodPost, "send_message", c.base+"/v2/messages", payload, nil)
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("ownerrez: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("ownerrez: unauthorized")
	ErrForbidden    = errors.New("ownerrez: forbidden")
)

// do performs a request with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) do(ctx context.Context, method, endpoint, rawURL string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		payload = b
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.user, c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "DestinyBlue/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("ownerrez", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("ownerrez", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("ownerrez %s: remote %d", endpoint, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("ownerrez %s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func isCanceled(status string) bool {
	s := strings.ToLower(status)
	return s == "canceled" || s == "cancelled" || s == "declined"
}

// dateOnly trims a timestamp down to its YYYY-MM-DD prefix.
func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
