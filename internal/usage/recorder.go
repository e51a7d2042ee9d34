// Package usage turns gateway and pipeline events into the counters kept under the
// linkedlensStats key. The counters belong to the store; nothing in the pipeline reads them.
package usage

import (
	"context"

	log "github.com/sirupsen/logrus"

	"linkedlens/internal/models"
	"linkedlens/internal/store"
)

// Recorder writes usage events to a StatsStore. Write failures are logged and dropped.
type Recorder struct {
	stats *store.StatsStore
}

func New(stats *store.StatsStore) *Recorder {
	return &Recorder{stats: stats}
}

// RecordCall counts one LLM call attempt.
func (r *Recorder) RecordCall(ctx context.Context) {
	r.update(ctx, "llm call", func(s *models.UsageStats) { s.LLMCalls++ })
}

// RecordTokens adds provider-reported token counts.
func (r *Recorder) RecordTokens(ctx context.Context, usage models.TokenUsage) {
	r.update(ctx, "token usage", func(s *models.UsageStats) {
		s.InputTokens += int64(usage.InputTokens)
		s.OutputTokens += int64(usage.OutputTokens)
	})
}

// RecordProcessedPost counts a post that got a category or was left uncategorized.
func (r *Recorder) RecordProcessedPost(ctx context.Context) {
	r.update(ctx, "processed post", func(s *models.UsageStats) { s.PostsProcessed++ })
}

// Stats returns the current counters.
func (r *Recorder) Stats(ctx context.Context) (models.UsageStats, error) {
	return r.stats.Load(ctx)
}

// Reset zeroes the counters.
func (r *Recorder) Reset(ctx context.Context) error {
	return r.stats.Reset(ctx)
}

func (r *Recorder) update(ctx context.Context, event string, fn func(*models.UsageStats)) {
	// Recording must survive the caller giving up on the call.
	if err := r.stats.Update(context.WithoutCancel(ctx), fn); err != nil {
		log.Errorf("Failed to record %s: %v", event, err)
	}
}
