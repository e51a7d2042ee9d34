package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedlens/internal/config"
	"linkedlens/internal/dom"
	"linkedlens/internal/models"
	"linkedlens/internal/pagesource"
)

const snapshot = `<html><body><main>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:1">
  <div class="feed-shared-text">We are hiring two backend engineers in Berlin.</div>
</div>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:2">
  <div class="feed-shared-text">Kubernetes 1.31 notes: sidecars are finally stable.</div>
</div>
</main></body></html>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
settings:
  path: %s
scheduler:
  interval: 20ms
discovery:
  settle_delay: 10ms
classify:
  timeout: 2s
`, filepath.Join(dir, "settings.json"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestApp_ClassifiesPostsFromSnapshotFile(t *testing.T) {
	var calls atomic.Int32
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		reply := "Technology"
		if strings.Contains(string(body), "hiring") {
			reply = "Career"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q}}`, reply)
	}))
	defer ollama.Close()

	cfg := testConfig(t)
	a, err := NewApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Settings.SaveLLMConfig(ctx, models.LLMConfig{
		Provider: models.ProviderOllama,
		Settings: models.ProviderSettings{URL: ollama.URL, Model: "llama3"},
	}))

	page, err := dom.ParseString(`<html><body></body></html>`, "https://www.linkedin.com/feed/")
	require.NoError(t, err)
	sess, err := a.NewSession(page)
	require.NoError(t, err)

	mirror, err := pagesource.NewMirror(page, cfg.Source.ItemSelector, cfg.Source.KeyAttrs)
	require.NoError(t, err)
	feed := filepath.Join(t.TempDir(), "feed.html")
	require.NoError(t, os.WriteFile(feed, []byte(snapshot), 0o600))

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, sess, pagesource.NewFileSource(feed, mirror)) }()

	require.Eventually(t, func() bool {
		snap := sess.Annotator.Snapshot()
		if len(snap) != 2 {
			return false
		}
		for _, ann := range snap {
			if !ann.State.Terminal() {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)

	byID := map[string]dom.Annotation{}
	for _, ann := range sess.Annotator.Snapshot() {
		byID[ann.PostID] = ann
	}
	assert.Equal(t, models.CategoryState("career"), byID["urn:li:activity:1"].State)
	assert.Equal(t, "Career", byID["urn:li:activity:1"].Label)
	assert.Equal(t, models.CategoryState("technology"), byID["urn:li:activity:2"].State)
	assert.EqualValues(t, 2, calls.Load())

	require.Eventually(t, func() bool {
		stats, err := a.Usage.Stats(ctx)
		return err == nil && stats.LLMCalls == 2 && stats.PostsProcessed == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestConfigureLogging(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "nope"
	assert.Error(t, ConfigureLogging(cfg))
	cfg.Log.Level = "warn"
	assert.NoError(t, ConfigureLogging(cfg))
}
