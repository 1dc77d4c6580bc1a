package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/domain"
)

const apiBase = "https://discord.com/api/v10"

var ErrNotConfigured = errors.New("discord: neither bot channel nor webhook configured")

// Client posts notices either as the bot into a channel (buttons supported)
// or through an incoming webhook (buttons dropped).
type Client struct {
	hc         *http.Client
	base       string
	botToken   string
	channelID  string
	webhookURL string
}

type Option func(*Client)

// WithBaseURL points bot calls at another API root; used by tests.
func WithBaseURL(u string) Option { return func(c *Client) { c.base = strings.TrimRight(u, "/") } }

func New(botToken, channelID, webhookURL string, opts ...Option) *Client {
	c := &Client{
		hc:         &http.Client{Timeout: 10 * time.Second},
		base:       apiBase,
		botToken:   botToken,
		channelID:  channelID,
		webhookURL: webhookURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return (c.botToken != "" && c.channelID != "") || c.webhookURL != ""
}

// ---- wire types ----

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Color     int          `json:"color,omitempty"`
	Fields    []embedField `json:"fields,omitempty"`
	Footer    *embedFooter `json:"footer,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Components []component `json:"components,omitempty"`
}

type message struct {
	Content    string      `json:"content"`
	Embeds     []embed     `json:"embeds,omitempty"`
	Components []component `json:"components,omitempty"`
}

// Notify posts n and returns the created message id.
func (c *Client) Notify(ctx context.Context, n domain.Notice) (string, error) {
	msg := render(n, time.Now())

	var url string
	var auth string
	switch {
	case c.botToken != "" && c.channelID != "":
		url = fmt.Sprintf("%s/channels/%s/messages", c.base, c.channelID)
		auth = "Bot " + c.botToken
	case c.webhookURL != "":
		url = c.webhookURL + sep(c.webhookURL) + "wait=true"
		msg.Components = nil
	default:
		return "", ErrNotConfigured
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("discord", "messages", 0, time.Since(start))
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("discord", "messages", resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("discord: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var sent struct {
		ID string `json:"id"`
	}
	if resp.StatusCode == http.StatusNoContent {
		return "", nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil && err != io.EOF {
		return "", fmt.Errorf("discord: decode response: %w", err)
	}
	return sent.ID, nil
}

func render(n domain.Notice, now time.Time) message {
	e := embed{Color: n.Color, Timestamp: now.UTC().Format(time.RFC3339)}
	for _, f := range n.Fields {
		v := f.Value
		if strings.TrimSpace(v) == "" {
			v = "-"
		}
		e.Fields = append(e.Fields, embedField{Name: f.Name, Value: truncate(v, 1024), Inline: f.Inline})
	}
	if n.Footer != "" {
		e.Footer = &embedFooter{Text: n.Footer}
	}
	msg := message{Content: n.Title, Embeds: []embed{e}}
	if len(n.Buttons) > 0 {
		row := component{Type: 1}
		for _, b := range n.Buttons {
			style := b.Style
			if style == 0 {
				style = 2
			}
			row.Components = append(row.Components, component{Type: 2, Style: style, Label: b.Label, CustomID: b.CustomID})
		}
		msg.Components = []component{row}
	}
	return msg
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sep(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}
