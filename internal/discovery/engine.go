// Package discovery finds feed posts in inserted subtrees, gives each a stable id and
// hands every id it has not seen before to the work queue.
package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"linkedlens/internal/dom"
	"linkedlens/internal/models"
	"linkedlens/internal/util"
)

var (
	DefaultPostSelectors = []string{
		".feed-shared-update-v2",
		`[data-urn*="activity"]`,
		".feed-shared-update-v2__description-wrapper",
		".feed-shared-update-v2__content",
		".feed-shared-update-v2__container",
		".feed-shared-update-v2__description",
	}
	DefaultIDAttributes = []string{"data-activity-id", "data-urn"}
)

const (
	DefaultContainerSelector = ".feed-shared-update-v2"
	// DefaultFeedURLPattern accepts any linkedin.com page path and the bare home URL.
	DefaultFeedURLPattern = `linkedin\.com/|^https://www\.linkedin\.com/?(\?.*)?$`
	DefaultSettleDelay    = 2 * time.Second

	fallbackTextUnits = 100
)

// Enqueuer receives newly discovered posts.
type Enqueuer interface {
	Push(post models.PostDescriptor)
}

type Options struct {
	PostSelectors     []string
	ContainerSelector string
	IDAttributes      []string
	FeedURLPattern    string
}

// Engine is the discovery state of one page session. The processed set only grows.
type Engine struct {
	page      *dom.Page
	annotator *dom.Annotator
	queue     Enqueuer

	feed      *regexp.Regexp
	selectors []cascadia.Selector
	container cascadia.Selector
	idAttrs   []string
	now       func() time.Time

	mu        sync.Mutex
	processed map[string]struct{}

	// idMu is taken while the page read lock is held, so it must never be held while
	// calling into the page or the annotator.
	idMu     sync.Mutex
	fallback map[*html.Node]string
	counter  int
}

func New(page *dom.Page, annotator *dom.Annotator, queue Enqueuer, opts Options) (*Engine, error) {
	if len(opts.PostSelectors) == 0 {
		opts.PostSelectors = DefaultPostSelectors
	}
	if opts.ContainerSelector == "" {
		opts.ContainerSelector = DefaultContainerSelector
	}
	if len(opts.IDAttributes) == 0 {
		opts.IDAttributes = DefaultIDAttributes
	}
	if opts.FeedURLPattern == "" {
		opts.FeedURLPattern = DefaultFeedURLPattern
	}

	feed, err := regexp.Compile(opts.FeedURLPattern)
	if err != nil {
		return nil, fmt.Errorf("compile feed url pattern: %w", err)
	}
	selectors := make([]cascadia.Selector, 0, len(opts.PostSelectors))
	for _, s := range opts.PostSelectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("compile post selector %q: %w", s, err)
		}
		selectors = append(selectors, sel)
	}
	container, err := cascadia.Compile(opts.ContainerSelector)
	if err != nil {
		return nil, fmt.Errorf("compile container selector %q: %w", opts.ContainerSelector, err)
	}

	return &Engine{
		page:      page,
		annotator: annotator,
		queue:     queue,
		feed:      feed,
		selectors: selectors,
		container: container,
		idAttrs:   opts.IDAttributes,
		now:       time.Now,
		processed: make(map[string]struct{}),
		fallback:  make(map[*html.Node]string),
	}, nil
}

// IsTargetPage reports whether the page URL is a feed page.
func (e *Engine) IsTargetPage() bool {
	return e.feed.MatchString(e.page.URL())
}

// Attach subscribes the engine to inserted subtrees and scans the whole body once after
// settle. The returned func detaches; it does not wait for a scan already running.
func (e *Engine) Attach(ctx context.Context, settle time.Duration) func() {
	unsubscribe := e.page.OnSubtreeInserted(func(root *html.Node) { e.OnSubtreeInserted(root) })
	timer := time.AfterFunc(settle, func() {
		if ctx.Err() == nil {
			e.ScanExisting()
		}
	})
	return func() {
		timer.Stop()
		unsubscribe()
	}
}

// ScanExisting runs discovery over the whole body.
func (e *Engine) ScanExisting() []models.PostDescriptor {
	return e.OnSubtreeInserted(e.page.Body())
}

// OnSubtreeInserted discovers posts in root and enqueues the unseen ones. It returns what
// was enqueued.
func (e *Engine) OnSubtreeInserted(root *html.Node) []models.PostDescriptor {
	if root == nil || !e.IsTargetPage() {
		return nil
	}

	type candidate struct {
		id string
		el *html.Node
	}
	var candidates []candidate
	e.page.View(func(_ *goquery.Document) {
		for _, el := range e.containers(root) {
			candidates = append(candidates, candidate{id: e.postID(el), el: el})
		}
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	var added []models.PostDescriptor
	for _, c := range candidates {
		if _, seen := e.processed[c.id]; seen {
			continue
		}
		e.processed[c.id] = struct{}{}

		if _, err := e.annotator.Mark(c.id, c.el, models.StateNotProcessed, ""); err != nil {
			log.WithField("post", c.id).Warnf("Could not annotate discovered post: %v", err)
			continue
		}
		post := models.PostDescriptor{ID: c.id, Element: c.el, DiscoveredAt: e.now()}
		e.queue.Push(post)
		added = append(added, post)
	}
	if len(added) > 0 {
		log.Debugf("Discovered %d new posts", len(added))
	}
	return added
}

// Seen reports whether id is in the processed set.
func (e *Engine) Seen(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.processed[id]
	return ok
}

// SeenCount is the size of the processed set.
func (e *Engine) SeenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.processed)
}

// containers resolves selector matches under root (root included) to their post
// containers, de-duplicated, in selector order then document order.
func (e *Engine) containers(root *html.Node) []*html.Node {
	seen := make(map[*html.Node]struct{})
	var out []*html.Node
	add := func(n *html.Node) {
		c := e.closestContainer(n)
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, sel := range e.selectors {
		if root.Type == html.ElementNode && sel.Match(root) {
			add(root)
		}
		for _, n := range sel.MatchAll(root) {
			if n != root {
				add(n)
			}
		}
	}
	return out
}

func (e *Engine) closestContainer(n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && e.container.Match(cur) {
			return cur
		}
	}
	return n
}

// postID prefers a platform id on the element, then on the nearest ancestor carrying
// the attribute. Without one, the element gets a content hash id that it keeps for
// the rest of the session.
func (e *Engine) postID(el *html.Node) string {
	for _, attr := range e.idAttrs {
		if v, ok := attrValue(el, attr); ok && v != "" {
			return v
		}
	}
	for _, attr := range e.idAttrs {
		for cur := el; cur != nil; cur = cur.Parent {
			if v, ok := attrValue(cur, attr); ok {
				if v != "" {
					return v
				}
				break
			}
		}
	}

	e.idMu.Lock()
	defer e.idMu.Unlock()
	if id, ok := e.fallback[el]; ok {
		return id
	}
	text := goquery.NewDocumentFromNode(el).Text()
	id := fmt.Sprintf("post-%d-%d", stringHash(text), e.counter)
	e.counter++
	e.fallback[el] = id
	return id
}

// stringHash is the 31-multiplier 32-bit string hash over UTF-16 units, made
// non-negative.
func stringHash(s string) int64 {
	var h int32
	for _, u := range util.UTF16Prefix(s, fallbackTextUnits) {
		h = (h << 5) - h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

func attrValue(n *html.Node, key string) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
