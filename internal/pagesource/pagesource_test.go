package pagesource

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"linkedlens/internal/dom"
)

const snapshotV1 = `<html><body><main>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:1"><div class="feed-shared-update-v2">nested</div>first</div>
<div class="feed-shared-update-v2">no id</div>
</main></body></html>`

const snapshotV2 = `<html><body><main>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:1"><div class="feed-shared-update-v2">nested</div>first</div>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:2">second</div>
</main></body></html>`

func emptyPage(t *testing.T) *dom.Page {
	t.Helper()
	p, err := dom.ParseString(`<html><body></body></html>`, "https://www.linkedin.com/feed/")
	require.NoError(t, err)
	return p
}

type recorder struct {
	mu    sync.Mutex
	roots []*html.Node
}

func (r *recorder) add(n *html.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = append(r.roots, n)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roots)
}

func itemCount(p *dom.Page) int {
	var n int
	p.View(func(doc *goquery.Document) { n = doc.Find("body > .feed-shared-update-v2").Length() })
	return n
}

func TestMirror_AddsNewAndRemovesVanishedItems(t *testing.T) {
	page := emptyPage(t)
	rec := &recorder{}
	page.OnSubtreeInserted(rec.add)
	m, err := NewMirror(page, "", []string{"data-activity-id", "data-urn"})
	require.NoError(t, err)

	res, err := m.SyncHTML(snapshotV1)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Added: 2}, res)
	assert.Equal(t, 2, rec.count(), "nested items travel with their parent")
	assert.Equal(t, 2, itemCount(page))

	res, err = m.SyncHTML(snapshotV1)
	require.NoError(t, err)
	assert.Zero(t, res, "unchanged snapshot adds nothing")

	res, err = m.SyncHTML(snapshotV2)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Added: 1, Removed: 1}, res)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 2, itemCount(page))
	assert.Equal(t, 3, rec.count())
}

func TestFileSource_ReloadsOnWrite(t *testing.T) {
	page := emptyPage(t)
	m, err := NewMirror(page, "", []string{"data-urn"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "feed.html")
	require.NoError(t, os.WriteFile(path, []byte(snapshotV1), 0o600))
	src := NewFileSource(path, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	// Give the watcher a moment to be registered before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(snapshotV2), 0o600))

	require.Eventually(t, func() bool {
		var found bool
		page.View(func(doc *goquery.Document) {
			found = doc.Find(`[data-urn="urn:li:activity:2"]`).Length() == 1
		})
		return found
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestFileSource_MissingFile(t *testing.T) {
	m, err := NewMirror(emptyPage(t), "", nil)
	require.NoError(t, err)
	_, err = NewFileSource(filepath.Join(t.TempDir(), "nope.html"), m).Load()
	assert.Error(t, err)
}

func TestMirror_EmptySnapshotKeepsItems(t *testing.T) {
	page := emptyPage(t)
	m, err := NewMirror(page, "", []string{"data-urn"})
	require.NoError(t, err)

	_, err = m.SyncHTML(snapshotV2)
	require.NoError(t, err)
	res, err := m.SyncHTML("")
	require.NoError(t, err)
	assert.Zero(t, res)
	assert.Equal(t, 2, itemCount(page))
}
