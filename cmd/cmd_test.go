package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	dir      string
	config   string
	settings string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{dir: dir, config: filepath.Join(dir, "config.yaml"), settings: filepath.Join(dir, "settings.json")}
	body := "scheduler:\n  interval: 20ms\ndiscovery:\n  settle_delay: 10ms\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.config, []byte(body), 0o600))
	return env
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.config, "--settings", e.settings}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func ollamaStub(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q}}`, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCategoriesCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Technology")

	out, err = env.run(t, "categories", "add", "--name", "Hiring", "--description", "Open roles")
	require.NoError(t, err)
	assert.Contains(t, out, "Hiring")

	_, err = env.run(t, "categories", "add", "--name", "hiring", "--description", "")
	assert.ErrorContains(t, err, "already exists")

	out, err = env.run(t, "categories", "remove", "Hiring")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed")

	_, err = env.run(t, "categories", "remove", "Hiring")
	assert.ErrorContains(t, err, "no category matches")

	out, err = env.run(t, "categories", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 6 default categories")
}

func TestLLMClassifyStatsAndWatch(t *testing.T) {
	env := newCLIEnv(t)
	ollama := ollamaStub(t, "Career")

	_, err := env.run(t, "llm", "test")
	assert.ErrorContains(t, err, "LLM not configured")

	out, err := env.run(t, "llm", "set", "--provider", "ollama", "--url", ollama.URL, "--model", "llama3")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")

	out, err = env.run(t, "llm", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "ollama")
	assert.Contains(t, out, "llama3")

	out, err = env.run(t, "llm", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Connection OK")

	out, err = env.run(t, "classify", "Thrilled to announce I have joined a new team as staff engineer.")
	require.NoError(t, err)
	assert.Contains(t, out, "Response: Career")
	assert.Contains(t, out, "(career)")

	feed := filepath.Join(env.dir, "feed.html")
	require.NoError(t, os.WriteFile(feed, []byte(`<html><body>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:7"><div class="feed-shared-text">Looking for my next role in platform engineering.</div></div>
</body></html>`), 0o600))
	annotated := filepath.Join(env.dir, "annotated.html")

	out, err = env.run(t, "watch", "--file", feed, "--duration", "1s", "--out", annotated)
	require.NoError(t, err)
	assert.Contains(t, out, "urn:li:activity:7")
	assert.Contains(t, out, "category-career")

	page, err := os.ReadFile(annotated)
	require.NoError(t, err)
	assert.Contains(t, string(page), `class="linkedlens-tag category-career"`)

	out, err = env.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "LLM calls")

	out, err = env.run(t, "stats", "--reset")
	require.NoError(t, err)
	assert.Contains(t, out, "reset")
	statsReset = false
}

func TestWatchRequiresASource(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "watch", "--file", "", "--browser=false")
	assert.ErrorContains(t, err, "one of --file or --browser is required")
}
