package usage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedlens/internal/models"
	"linkedlens/internal/store"
)

func TestRecorder_AccumulatesEvents(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore(nil)
	r := New(store.NewStatsStore(kv))

	r.RecordCall(ctx)
	r.RecordCall(ctx)
	r.RecordTokens(ctx, models.TokenUsage{InputTokens: 100, OutputTokens: 3})
	r.RecordProcessedPost(ctx)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UsageStats{PostsProcessed: 1, LLMCalls: 2, InputTokens: 100, OutputTokens: 3}, stats)

	// Counters live under linkedlensStats in the store.
	values, err := kv.Get(ctx, store.KeyStats)
	require.NoError(t, err)
	assert.Contains(t, values, store.KeyStats)

	require.NoError(t, r.Reset(ctx))
	stats, err = r.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestRecorder_RecordsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(store.NewStatsStore(store.NewMemoryStore(nil)))

	r.RecordCall(ctx)

	stats, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.LLMCalls)
}
