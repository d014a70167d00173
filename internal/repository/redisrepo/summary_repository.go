package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-fitness-be/internal/dto"
	"ai-fitness-be/internal/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "workout:summary:"

// SummaryRepository keeps finished workout summaries in Redis for ttl.
type SummaryRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryRepository(rdb *redis.Client, ttl time.Duration) *SummaryRepository {
	return &SummaryRepository{rdb: rdb, ttl: ttl}
}

func summaryKey(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *SummaryRepository) Save(ctx context.Context, summary dto.WorkoutSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := r.rdb.Set(ctx, summaryKey(summary.SessionId), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store summary %s: %w", summary.SessionId, err)
	}
	return nil
}

func (r *SummaryRepository) Get(ctx context.Context, sessionID string) (*dto.WorkoutSummary, error) {
	data, err := r.rdb.Get(ctx, summaryKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load summary %s: %w", sessionID, err)
	}

	var summary dto.WorkoutSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary %s: %w", sessionID, err)
	}
	return &summary, nil
}
