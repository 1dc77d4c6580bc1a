// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"destiny_blue/internal/adapters/discord"
	"destiny_blue/internal/adapters/ownerrez"
	"destiny_blue/internal/app"
	"destiny_blue/internal/domain"
)

const maxBody = 1 << 20

type Handlers struct {
	Chat  *app.ChatService
	Inbox *app.InboxService
	Turns *app.TranscriptService
	// DiscordPublicKey verifies interaction signatures. Without it,
	// interactions are refused unless AllowUnsigned is set (local development).
	DiscordPublicKey string
	AllowUnsigned    bool
	Now              func() time.Time
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.Now == nil {
		h.Now = time.Now
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/api/chat", h.chat)
	s.mux.Post("/api/inbox", h.inbox)
	if h.Turns != nil {
		s.mux.Get("/v1/sessions/{id}/turns", h.listTurns)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req app.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"messages\":[{\"role\",\"content\"}]}")
		return
	}
	out, err := h.Chat.Reply(r.Context(), req)
	if errors.Is(err, app.ErrNoGuestMessage) {
		writeProblem(w, http.StatusBadRequest, "No guest message", "messages must contain a non-empty user message")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("chat reply failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// inbox serves both the chat-ops interaction endpoint (signed requests) and
// the reservation webhook. The webhook is always answered with 200 so the
// platform does not redeliver.
func (h *Handlers) inbox(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "")
		return
	}

	if sig := r.Header.Get("X-Signature-Ed25519"); sig != "" {
		h.interaction(w, r, sig, body)
		return
	}

	ev, err := ownerrez.ParseWebhook(body, h.Now)
	if err != nil {
		log.Warn().Err(err).Msg("webhook payload not understood")
		writeJSON(w, http.StatusOK, app.InboxOutcome{OK: true, Error: "invalid payload"})
		return
	}
	log.Info().Str("type", ev.Type).Str("booking", ev.BookingID).Str("message", ev.MessageID).Msg("webhook received")
	out, err := h.Inbox.HandleWebhook(r.Context(), ev)
	if err != nil {
		log.Error().Err(err).Str("booking", ev.BookingID).Msg("inbox handler error")
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) interaction(w http.ResponseWriter, r *http.Request, sig string, body []byte) {
	if h.DiscordPublicKey == "" && !h.AllowUnsigned {
		log.Warn().Msg("interaction refused: no public key configured")
		http.Error(w, "interactions not configured", http.StatusUnauthorized)
		return
	}
	if h.DiscordPublicKey != "" && !discord.Verify(h.DiscordPublicKey, sig, r.Header.Get("X-Signature-Timestamp"), body) {
		log.Warn().Msg("interaction signature invalid")
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}
	in, err := discord.ParseInteraction(body)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid interaction", err.Error())
		return
	}

	kind := app.InteractionOther
	switch in.Type {
	case discord.InteractionPing:
		kind = app.InteractionPing
	case discord.InteractionComponent:
		kind = app.InteractionButton
	}
	resp := h.Inbox.HandleInteraction(r.Context(), app.Interaction{Kind: kind, CustomID: in.Data.CustomID})
	if resp.Pong {
		writeJSON(w, http.StatusOK, discord.Pong())
		return
	}
	writeJSON(w, http.StatusOK, discord.Ephemeral(resp.Content))
}

func (h *Handlers) listTurns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	out, err := h.Turns.ListTurns(r.Context(), id, limit)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session", id).Msg("list turns failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listTurns body")
	}
}
