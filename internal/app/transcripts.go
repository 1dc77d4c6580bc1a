package app

import (
	"context"
	"time"

	"destiny_blue/internal/domain"
)

// maxTurns is the most a session page can hold; smaller limits are sliced
// from the same cached page.
const maxTurns = 200

type TranscriptService struct {
	repo     domain.TranscriptRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewTranscriptService(r domain.TranscriptRepository, c domain.Cache, ttl time.Duration) *TranscriptService {
	return &TranscriptService{repo: r, cache: c, cacheTTL: ttl}
}

func turnsKey(sessionID string) string { return "turns:" + sessionID }

// ListTurns returns the oldest limit turns of a session, domain.ErrNotFound
// when the session has none.
func (s *TranscriptService) ListTurns(ctx context.Context, sessionID string, limit int) (domain.TurnsPage, error) {
	if limit <= 0 || limit > maxTurns {
		limit = maxTurns
	}
	var page domain.TurnsPage
	hit := false
	if s.cache != nil {
		hit, _ = s.cache.Get(ctx, turnsKey(sessionID), &page)
	}
	if !hit {
		p, err := s.repo.ListTurns(ctx, sessionID, maxTurns)
		if err != nil {
			return domain.TurnsPage{}, err
		}
		page = copyTurnsPage(p)
		if s.cache != nil && len(page.Items) > 0 {
			_ = s.cache.Set(ctx, turnsKey(sessionID), page, int(s.cacheTTL.Seconds()))
		}
	}
	if len(page.Items) == 0 {
		return domain.TurnsPage{}, domain.ErrNotFound
	}
	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
	}
	return copyTurnsPage(page), nil
}

// copyTurnsPage keeps callers from mutating the cached slice.
func copyTurnsPage(in domain.TurnsPage) domain.TurnsPage {
	out := domain.TurnsPage{}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Turn, n)
		copy(out.Items, in.Items)
	}
	return out
}
