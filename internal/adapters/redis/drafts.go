package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"destiny_blue/internal/domain"
)

const (
	draftPrefix = "draft:"
	seenPrefix  = "seen:"
)

func (r *Cache) SaveDraft(ctx context.Context, key string, d domain.Draft, ttl time.Duration) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.c.Set(ctx, draftPrefix+key, b, ttl).Err()
}

func (r *Cache) GetDraft(ctx context.Context, key string) (domain.Draft, bool, error) {
	b, err := r.c.Get(ctx, draftPrefix+key).Bytes()
	if err == redis.Nil {
		return domain.Draft{}, false, nil
	}
	if err != nil {
		return domain.Draft{}, false, err
	}
	var d domain.Draft
	if err := json.Unmarshal(b, &d); err != nil {
		// unreadable entry; drop it so the next delivery can redraft
		_ = r.c.Del(ctx, draftPrefix+key).Err()
		return domain.Draft{}, false, nil
	}
	return d, true, nil
}

func (r *Cache) DeleteDraft(ctx context.Context, key string) error {
	return r.c.Del(ctx, draftPrefix+key).Err()
}

func (r *Cache) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.c.SetNX(ctx, seenPrefix+key, "1", ttl).Result()
}
