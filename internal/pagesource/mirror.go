// Package pagesource feeds a live dom.Page from outside: an HTML snapshot file or a
// headless browser. Each new snapshot is reduced to its feed items, and items the page
// has not seen are appended so subtree listeners fire for them.
package pagesource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"linkedlens/internal/dom"
)

const DefaultItemSelector = ".feed-shared-update-v2"

// Source keeps a page up to date until ctx ends.
type Source interface {
	Run(ctx context.Context) error
}

// Mirror copies feed items from snapshots into the page. Items that vanish from a
// later snapshot are removed from the page as well.
type Mirror struct {
	page     *dom.Page
	items    cascadia.Selector
	keyAttrs []string

	mu       sync.Mutex
	mirrored map[string]*html.Node
	order    []string
}

func NewMirror(page *dom.Page, itemSelector string, keyAttrs []string) (*Mirror, error) {
	if itemSelector == "" {
		itemSelector = DefaultItemSelector
	}
	sel, err := cascadia.Compile(itemSelector)
	if err != nil {
		return nil, fmt.Errorf("compile item selector %q: %w", itemSelector, err)
	}
	return &Mirror{page: page, items: sel, keyAttrs: keyAttrs, mirrored: make(map[string]*html.Node)}, nil
}

// SyncResult summarises one Sync.
type SyncResult struct {
	Added   int
	Removed int
}

// Sync applies one snapshot document.
func (m *Mirror) Sync(snapshot *html.Node) (SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.topLevelItems(snapshot)
	if len(items) == 0 {
		// A half-written file or a page still loading; keep what is mirrored.
		return SyncResult{}, nil
	}

	var res SyncResult
	present := make(map[string]struct{})
	var fresh []*html.Node
	for _, item := range items {
		key := m.key(item)
		if _, dup := present[key]; dup {
			continue
		}
		present[key] = struct{}{}
		if _, ok := m.mirrored[key]; ok {
			continue
		}
		item.Parent.RemoveChild(item)
		m.mirrored[key] = item
		m.order = append(m.order, key)
		fresh = append(fresh, item)
	}

	kept := m.order[:0]
	for _, key := range m.order {
		if _, ok := present[key]; ok {
			kept = append(kept, key)
			continue
		}
		m.page.Remove(m.mirrored[key])
		delete(m.mirrored, key)
		res.Removed++
	}
	m.order = kept

	if len(fresh) > 0 {
		if err := m.page.Append(m.page.Body(), fresh...); err != nil {
			return res, fmt.Errorf("append feed items: %w", err)
		}
		res.Added = len(fresh)
	}
	if res.Added > 0 || res.Removed > 0 {
		log.WithFields(log.Fields{"added": res.Added, "removed": res.Removed}).Debug("Mirrored feed snapshot")
	}
	return res, nil
}

// SyncHTML parses raw as a full document and syncs it.
func (m *Mirror) SyncHTML(raw string) (SyncResult, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return SyncResult{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return m.Sync(doc)
}

// Len is the number of items currently mirrored.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mirrored)
}

func (m *Mirror) topLevelItems(doc *html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range m.items.MatchAll(doc) {
		nested := false
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && m.items.Match(p) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, n)
		}
	}
	return out
}

// key identifies an item across snapshots: a platform id when present, else its markup.
func (m *Mirror) key(item *html.Node) string {
	for _, attr := range m.keyAttrs {
		for _, a := range item.Attr {
			if a.Key == attr && a.Val != "" {
				return attr + "=" + a.Val
			}
		}
	}
	outer, err := goquery.OuterHtml(goquery.NewDocumentFromNode(item).Selection)
	if err != nil {
		return fmt.Sprintf("%p", item)
	}
	return outer
}
