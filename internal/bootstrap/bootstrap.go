// Package bootstrap wires configuration into adapters and services. Optional
// collaborators that are not configured are skipped with a warning.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"destiny_blue/internal/adapters/discord"
	httpserver "destiny_blue/internal/adapters/http_server"
	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/adapters/openai"
	"destiny_blue/internal/adapters/ownerrez"
	redisad "destiny_blue/internal/adapters/redis"
	"destiny_blue/internal/adapters/resend"
	"destiny_blue/internal/adapters/sheets"
	"destiny_blue/internal/app"
	"destiny_blue/internal/domain"
	"destiny_blue/internal/links"
	"destiny_blue/internal/shared"
	"destiny_blue/internal/stay"
	mysqlrepo "destiny_blue/internal/storage/mysql"
)

type App struct {
	Chat         *app.ChatService
	Inbox        *app.InboxService
	Turns        *app.TranscriptService // nil without a database
	Availability *app.AvailabilityService
	Registry     *prometheus.Registry

	discordKey    string
	allowUnsigned bool
	corsOrigins   []string
	closers       []func() error
}

var errCompleterMissing = errors.New("completion service not configured")

// offlineCompleter always fails so callers fall back to their static replies.
type offlineCompleter struct{}

func (offlineCompleter) Complete(context.Context, string, []domain.Message) (string, error) {
	return "", errCompleterMissing
}

func Build(ctx context.Context, cfg shared.Config) (*App, error) {
	a := &App{Registry: observability.InitRegistry(), discordKey: cfg.DiscordPublicKey, corsOrigins: cfg.CORSOrigins}
	loc := cfg.Location()

	if cfg.DiscordPublicKey == "" {
		a.allowUnsigned = cfg.AppEnv == "dev" || cfg.AppEnv == "development"
		if a.allowUnsigned {
			log.Warn().Msg("DISCORD_PUBLIC_KEY is empty; accepting unsigned interactions (dev only)")
		} else {
			log.Warn().Msg("DISCORD_PUBLIC_KEY is empty; approval buttons will be refused")
		}
	}

	var reservations domain.ReservationClient
	if or, err := ownerrez.New(cfg.OwnerRezBase, cfg.OwnerRezUser, cfg.OwnerRezToken, cfg.OwnerRezRPS); err != nil {
		log.Warn().Err(err).Msg("ownerrez disabled; availability will be unknown")
	} else {
		reservations = or
	}

	var completer domain.Completer = offlineCompleter{}
	if c, err := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIMaxTokens, cfg.OpenAITemperature); err != nil {
		log.Warn().Err(err).Msg("openai disabled; fallback replies only")
	} else {
		completer = c
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; drafts and cache may be unavailable")
	}
	cancel()
	a.closers = append(a.closers, cache.Close)

	var transcripts domain.TranscriptRepository
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
		}
		if err != nil {
			log.Warn().Err(err).Msg("mysql unavailable; transcripts disabled")
		} else {
			log.Info().Msg("database connection ok")
			repo := mysqlrepo.New(db)
			transcripts = repo
			a.Turns = app.NewTranscriptService(repo, cache, cfg.CacheTTL)
			a.closers = append(a.closers, db.Close)
		}
	}

	var sheet domain.SheetLogger
	if cfg.GoogleSheetID != "" {
		if l, err := sheets.New(ctx, cfg.GoogleSAEmail, cfg.GooglePrivateKey, cfg.GoogleSheetID, cfg.SheetRange); err != nil {
			log.Warn().Err(err).Msg("sheet logging disabled")
		} else {
			sheet = l
		}
	}

	var channels []domain.Notifier
	if d := discord.New(cfg.DiscordBotToken, cfg.DiscordChannelID, cfg.DiscordWebhookURL); d.IsConfigured() {
		channels = append(channels, d)
	} else {
		log.Warn().Msg("discord not configured; drafts will not be posted")
	}
	if e := resend.New(cfg.ResendKey, cfg.AlertEmailFrom, splitRecipients(cfg.AlertEmailTo)); e.IsConfigured() {
		channels = append(channels, e)
	}
	var notifier domain.Notifier
	if len(channels) > 0 {
		notifier = app.NewFanout(channels...)
	}

	ex := stay.New(stay.Config{Units: cfg.Units, DefaultUnit: cfg.DefaultUnit})
	a.Chat = app.NewChatService(ex, app.ChatDeps{
		Reservations: reservations,
		Completer:    completer,
		Cache:        cache,
		Notifier:     notifier,
		Sheet:        sheet,
		Transcripts:  transcripts,
	}, app.ChatConfig{
		BookingBaseURL: cfg.BookingBaseURL,
		LinkVariants:   Variants(cfg.LinkVariants),
		CacheTTL:       cfg.CacheTTL,
		Workers:        cfg.Workers,
		Location:       loc,
	})
	a.Availability = app.NewAvailabilityService(a.Chat)

	// Approval drafts only go to the chat-ops channel; email cannot carry buttons.
	var approvals domain.Notifier
	for _, ch := range channels {
		if d, ok := ch.(*discord.Client); ok {
			approvals = d
		}
	}
	a.Inbox = app.NewInboxService(app.InboxDeps{
		Reservations: reservations,
		Completer:    completer,
		Drafts:       cache,
		Notifier:     approvals,
		Sheet:        sheet,
		Transcripts:  transcripts,
	}, app.InboxConfig{
		Units:        cfg.Units,
		DraftTTL:     cfg.DraftTTL,
		HistoryLimit: cfg.HistoryLimit,
		Location:     loc,
	})
	return a, nil
}

// Router builds the HTTP surface with /metrics mounted.
func (a *App) Router() *httpserver.Server {
	var extra []func(http.Handler) http.Handler
	if len(a.corsOrigins) > 0 {
		extra = append(extra, httpserver.CORS(a.corsOrigins))
	}
	srv := httpserver.New(extra...)
	srv.Mount("/metrics", observability.MetricsHandler(a.Registry))
	srv.MountHandlers(&httpserver.Handlers{
		Chat:             a.Chat,
		Inbox:            a.Inbox,
		Turns:            a.Turns,
		DiscordPublicKey: a.discordKey,
		AllowUnsigned:    a.allowUnsigned,
	})
	return srv
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// Variants resolves configured link variant names; unknown names are skipped.
func Variants(names []string) []links.Variant {
	var out []links.Variant
	for _, n := range names {
		v, ok := links.Lookup(n)
		if !ok {
			log.Warn().Str("variant", n).Msg("unknown booking link variant")
			continue
		}
		out = append(out, v)
	}
	return out
}

func splitRecipients(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
