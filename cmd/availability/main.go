// Command availability answers availability for guest-style messages given as
// arguments, or one per line on stdin, without drafting a reply.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/app"
	"destiny_blue/internal/bootstrap"
	"destiny_blue/internal/shared"
)

type result struct {
	Message string         `json:"message"`
	Quote   *app.StayQuote `json:"quote,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	messages := os.Args[1:]
	if len(messages) == 0 {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				messages = append(messages, line)
			}
		}
		if err := sc.Err(); err != nil {
			log.Fatal().Err(err).Msg("read stdin failed")
		}
	}
	if len(messages) == 0 {
		log.Fatal().Msg("usage: availability \"message\" ... (or one message per line on stdin)")
	}

	a, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer a.Close()

	log.Info().Int("messages", len(messages)).Int("workers", cfg.Workers).Msg("availability check starting")

	results := make([]result, len(messages))
	sem := semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
	var wg sync.WaitGroup

	for i, msg := range messages {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(i int, msg string) {
			defer wg.Done()
			defer sem.Release(1)

			results[i] = result{Message: msg}
			q, err := a.Availability.Check(ctx, msg)
			switch {
			case errors.Is(err, app.ErrNoStay):
				results[i].Error = "no dates found"
			case err != nil:
				log.Warn().Err(err).Str("message", msg).Msg("check failed")
				results[i].Error = err.Error()
			default:
				results[i].Quote = q
			}
		}(i, msg)
	}
	wg.Wait()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			log.Fatal().Err(err).Msg("write result failed")
		}
	}
}
