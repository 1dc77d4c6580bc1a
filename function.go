// Package destinyblue exposes the chat and inbox endpoints as Cloud Functions.
// Both share one lazily built application per instance.
package destinyblue

import (
	"context"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rs/zerolog/log"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/bootstrap"
	"destiny_blue/internal/shared"
)

var (
	once    sync.Once
	handler http.Handler
	initErr error
)

func init() {
	functions.HTTP("Chat", Chat)
	functions.HTTP("Inbox", Inbox)
}

func router() (http.Handler, error) {
	once.Do(func() {
		cfg := shared.Load()
		log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
		a, err := bootstrap.Build(context.Background(), cfg)
		if err != nil {
			initErr = err
			return
		}
		handler = a.Router().Mux()
	})
	return handler, initErr
}

// Chat answers POST requests with the website chat flow.
func Chat(w http.ResponseWriter, r *http.Request) { serve(w, r, "/api/chat") }

// Inbox accepts OwnerRez webhooks and Discord interactions.
func Inbox(w http.ResponseWriter, r *http.Request) { serve(w, r, "/api/inbox") }

func serve(w http.ResponseWriter, r *http.Request, path string) {
	h, err := router()
	if err != nil {
		log.Error().Err(err).Msg("function bootstrap failed")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	r2.URL.RawPath = ""
	h.ServeHTTP(w, r2)
}
