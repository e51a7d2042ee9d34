package store

import (
	"context"
	"fmt"
	"sync"

	"linkedlens/internal/models"
)

// StatsStore keeps the usage counters under linkedlensStats.
type StatsStore struct {
	kv KeyValueStore
	mu sync.Mutex // serialises read-modify-write cycles from this process
}

func NewStatsStore(kv KeyValueStore) *StatsStore {
	return &StatsStore{kv: kv}
}

// Load returns the current counters (zero values when nothing was recorded yet).
func (s *StatsStore) Load(ctx context.Context) (models.UsageStats, error) {
	var stats models.UsageStats
	values, err := s.kv.Get(ctx, KeyStats)
	if err != nil {
		return stats, fmt.Errorf("read usage stats: %w", err)
	}
	if raw, ok := values[KeyStats]; ok && raw != nil {
		if err := decodeValue(KeyStats, raw, &stats); err != nil {
			return models.UsageStats{}, err
		}
	}
	return stats, nil
}

// Update applies fn to the stored counters and writes them back.
func (s *StatsStore) Update(ctx context.Context, fn func(*models.UsageStats)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.Load(ctx)
	if err != nil {
		return err
	}
	fn(&stats)
	return s.kv.Set(ctx, map[string]any{KeyStats: map[string]any{
		"postsProcessed": stats.PostsProcessed,
		"llmCalls":       stats.LLMCalls,
		"inputTokens":    stats.InputTokens,
		"outputTokens":   stats.OutputTokens,
	}})
}

// Reset zeroes every counter.
func (s *StatsStore) Reset(ctx context.Context) error {
	return s.Update(ctx, func(st *models.UsageStats) { *st = models.UsageStats{} })
}
