package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"linkedlens/internal/discovery"
	"linkedlens/internal/dom"
	"linkedlens/internal/inputprocessor"
	"linkedlens/internal/models"
	"linkedlens/internal/services"
	"linkedlens/internal/store"
	categorizer "linkedlens/pkg/categorizer"
)

type fixedTarget bool

func (t fixedTarget) IsTargetPage() bool { return bool(t) }

type allAttached struct{}

func (allAttached) Contains(*html.Node) bool { return true }

// overlapRecorder records whether two Process calls ever overlapped.
type overlapRecorder struct {
	active  atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
	delay   time.Duration

	mu  sync.Mutex
	ids []string
}

func (r *overlapRecorder) Process(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error) {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)
	r.calls.Add(1)
	r.mu.Lock()
	r.ids = append(r.ids, post.ID)
	r.mu.Unlock()
	time.Sleep(r.delay)
	return models.StateUncategorized, nil
}

func element() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div"}
}

func TestQueue_FIFO(t *testing.T) {
	q := New()
	q.Push(models.PostDescriptor{ID: "a"})
	q.Push(models.PostDescriptor{ID: "b"})
	assert.Equal(t, 2, q.Len())
	assert.Len(t, q.Pending(), 2)

	p, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", p.ID)
	p, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", p.ID)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestScheduler_SingleFlight(t *testing.T) {
	q := New()
	for _, id := range []string{"1", "2", "3", "4"} {
		q.Push(models.PostDescriptor{ID: id, Element: element()})
	}
	rec := &overlapRecorder{delay: 20 * time.Millisecond}
	s := NewScheduler(q, allAttached{}, fixedTarget(true), rec, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.calls.Load() == 4 && !s.InFlight() }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.False(t, rec.overlap.Load(), "two classifications ran at once")
	assert.Equal(t, []string{"1", "2", "3", "4"}, rec.ids)
}

func TestScheduler_TickSkipsWhileInFlight(t *testing.T) {
	q := New()
	q.Push(models.PostDescriptor{ID: "1", Element: element()})
	q.Push(models.PostDescriptor{ID: "2", Element: element()})
	block := make(chan struct{})
	proc := processorFunc(func(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error) {
		<-block
		return models.StateError, nil
	})
	s := NewScheduler(q, allAttached{}, fixedTarget(true), proc, time.Hour)

	assert.True(t, s.Tick(context.Background()))
	assert.True(t, s.InFlight())
	assert.False(t, s.Tick(context.Background()))
	assert.Equal(t, 1, s.Len())

	close(block)
	s.Wait()
	assert.False(t, s.InFlight())
	assert.True(t, s.Tick(context.Background()))
	s.Wait()
	assert.Zero(t, s.Len())
}

func TestScheduler_SkipsWhenNotTargetOrDetached(t *testing.T) {
	page, err := dom.ParseString(`<html><body><div id="gone"></div></body></html>`, "https://www.linkedin.com/feed/")
	require.NoError(t, err)
	var gone *html.Node
	page.View(func(doc *goquery.Document) { gone = doc.Find("#gone").Get(0) })
	page.Remove(gone)

	var calls atomic.Int32
	proc := processorFunc(func(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error) {
		calls.Add(1)
		return models.StateUncategorized, nil
	})

	q := New()
	q.Push(models.PostDescriptor{ID: "gone", Element: gone})

	off := NewScheduler(q, page, fixedTarget(false), proc, time.Hour)
	assert.False(t, off.Tick(context.Background()))
	assert.Equal(t, 1, q.Len(), "nothing is popped off the feed page")

	on := NewScheduler(q, page, fixedTarget(true), proc, time.Hour)
	assert.False(t, on.Tick(context.Background()))
	assert.Zero(t, q.Len(), "detached posts are dropped")
	assert.EqualValues(t, 1, on.Dropped())
	assert.False(t, on.InFlight())
	assert.Zero(t, calls.Load())
}

func TestScheduler_RecoversPanics(t *testing.T) {
	q := New()
	q.Push(models.PostDescriptor{ID: "boom", Element: element()})
	q.Push(models.PostDescriptor{ID: "next", Element: element()})
	var seen []string
	proc := processorFunc(func(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error) {
		seen = append(seen, post.ID)
		if post.ID == "boom" {
			panic("provider exploded")
		}
		return models.StateUncategorized, nil
	})
	s := NewScheduler(q, allAttached{}, fixedTarget(true), proc, time.Hour)

	require.True(t, s.Tick(context.Background()))
	s.Wait()
	require.True(t, s.Tick(context.Background()))
	s.Wait()
	assert.Equal(t, []string{"boom", "next"}, seen)
}

type processorFunc func(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error)

func (f processorFunc) Process(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error) {
	return f(ctx, post)
}

// --- end-to-end through discovery, pipeline and a stub gateway ---

type stubGateway struct {
	active  atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
	answer  string
	block   chan struct{}
}

func (g *stubGateway) Classify(ctx context.Context, sys, user string) (string, error) {
	if g.active.Add(1) > 1 {
		g.overlap.Store(true)
	}
	defer g.active.Add(-1)
	g.calls.Add(1)
	if g.block != nil {
		<-g.block
	}
	return g.answer, nil
}

type session struct {
	page      *dom.Page
	annotator *dom.Annotator
	engine    *discovery.Engine
	scheduler *Scheduler
}

func newSession(t *testing.T, gw categorizer.Completer, timeout time.Duration) *session {
	t.Helper()
	ctx := context.Background()
	page, err := dom.ParseString(`<html><body><main id="feed"></main></body></html>`, "https://www.linkedin.com/feed/")
	require.NoError(t, err)
	annotator := dom.NewAnnotator(page)

	kv := store.NewMemoryStore(nil)
	require.NoError(t, store.NewCategoryStore(kv, false).Save(ctx, []models.Category{
		{ID: "tech", Name: "Technology", Description: "software"},
		{ID: "career", Name: "Career", Description: "jobs"},
	}))
	require.NoError(t, store.NewLLMSettings(kv).SaveLLMConfig(ctx, models.LLMConfig{
		Provider: models.ProviderOllama,
		Settings: models.ProviderSettings{URL: "http://localhost:11434", Model: "llama3"},
	}))

	q := New()
	engine, err := discovery.New(page, annotator, q, discovery.Options{})
	require.NoError(t, err)
	proc, err := inputprocessor.New(inputprocessor.Options{})
	require.NoError(t, err)
	pipeline := services.NewCategorizationService(services.CategorizationDeps{
		Page:        page,
		Annotator:   annotator,
		Categories:  store.NewCategoryStore(kv, true),
		Settings:    store.NewLLMSettings(kv),
		Processor:   proc,
		Categorizer: categorizer.NewLLMCategorizer(gw, categorizer.NewPromptBuilder("")),
		Timeout:     timeout,
	})
	return &session{
		page:      page,
		annotator: annotator,
		engine:    engine,
		scheduler: NewScheduler(q, page, engine, pipeline, time.Hour),
	}
}

func (s *session) insertPosts(t *testing.T, fragment string) {
	t.Helper()
	detach := s.engine.Attach(context.Background(), time.Hour)
	defer detach()
	var feed *html.Node
	s.page.View(func(doc *goquery.Document) { feed = doc.Find("#feed").Get(0) })
	_, err := s.page.AppendHTML(feed, fragment)
	require.NoError(t, err)
}

const threePosts = `<div><div class="feed-shared-update-v2" data-urn="urn:li:activity:1"><div class="feed-shared-text">Kubernetes operators written in Go are great.</div></div>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:2"><div class="feed-shared-text">We benchmarked three vector databases this week.</div></div>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:3"><div class="feed-shared-text">New laptop, new editor, new keyboard layout.</div></div></div>`

func TestEndToEnd_ThreePostsThreeTicks(t *testing.T) {
	gw := &stubGateway{answer: "Technology"}
	s := newSession(t, gw, time.Second)

	s.insertPosts(t, threePosts)
	require.Equal(t, 3, s.scheduler.Len())

	for i := 0; i < 3; i++ {
		require.True(t, s.scheduler.Tick(context.Background()))
		s.scheduler.Wait()
	}

	assert.EqualValues(t, 3, gw.calls.Load())
	assert.False(t, gw.overlap.Load())
	for _, id := range []string{"urn:li:activity:1", "urn:li:activity:2", "urn:li:activity:3"} {
		state, ok := s.annotator.State(id)
		require.True(t, ok, id)
		assert.Equal(t, models.CategoryState("tech"), state, id)
	}
}

func TestEndToEnd_TimeoutDoesNotBlockNextTick(t *testing.T) {
	gw := &stubGateway{answer: "Career", block: make(chan struct{})}
	defer close(gw.block)
	s := newSession(t, gw, 30*time.Millisecond)
	s.insertPosts(t, threePosts)

	start := time.Now()
	require.True(t, s.scheduler.Tick(context.Background()))
	s.scheduler.Wait()
	assert.Less(t, time.Since(start), time.Second)

	state, _ := s.annotator.State("urn:li:activity:1")
	assert.Equal(t, models.StateError, state)

	assert.True(t, s.scheduler.Tick(context.Background()), "the next tick proceeds")
	s.scheduler.Wait()
	state, _ = s.annotator.State("urn:li:activity:2")
	assert.Equal(t, models.StateError, state)
}
