// Package dom holds the live document a page session works on. The document is an
// x/net/html tree guarded by a lock; hosts insert subtrees through Append, which is what
// drives discovery.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrDetached is returned when inserting under a node that is not part of the page.
var ErrDetached = errors.New("dom: node is not attached to the document")

// SubtreeListener is called once for every subtree inserted into the page.
type SubtreeListener func(root *html.Node)

// Page is the live document of one page session.
type Page struct {
	mu  sync.RWMutex
	url string
	doc *html.Node

	subMu  sync.Mutex
	nextID int
	subs   map[int]SubtreeListener
}

// NewPage wraps an already parsed document.
func NewPage(doc *html.Node, url string) *Page {
	return &Page{doc: doc, url: url, subs: make(map[int]SubtreeListener)}
}

// Parse reads a full HTML document.
func Parse(r io.Reader, url string) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return NewPage(doc, url), nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s, url string) (*Page, error) {
	return Parse(strings.NewReader(s), url)
}

// URL is the address the page currently shows.
func (p *Page) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// Navigate records an in-page navigation (the document is kept).
func (p *Page) Navigate(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// Body returns the body element, or the document root if there is none.
func (p *Page) Body() *html.Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if body := findElement(p.doc, atom.Body); body != nil {
		return body
	}
	return p.doc
}

// View runs fn with read access to the document. fn must not call back into the page.
func (p *Page) View(fn func(doc *goquery.Document)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(goquery.NewDocumentFromNode(p.doc))
}

// Update runs fn with write access to the document. Changes made here do not notify
// subtree listeners.
func (p *Page) Update(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(goquery.NewDocumentFromNode(p.doc))
}

// Contains reports whether n is currently attached to the document.
func (p *Page) Contains(n *html.Node) bool {
	if n == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return attached(p.doc, n)
}

func attached(doc, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == doc {
			return true
		}
	}
	return false
}

// Append inserts nodes as the last children of parent and then notifies subtree
// listeners once per inserted node, in order. Nodes must be detached.
func (p *Page) Append(parent *html.Node, nodes ...*html.Node) error {
	p.mu.Lock()
	if !attached(p.doc, parent) {
		p.mu.Unlock()
		return ErrDetached
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		parent.AppendChild(n)
	}
	p.mu.Unlock()

	for _, n := range nodes {
		if n.Type == html.ElementNode {
			p.notify(n)
		}
	}
	return nil
}

// AppendHTML parses fragment in the context of parent and appends the result.
func (p *Page) AppendHTML(parent *html.Node, fragment string) ([]*html.Node, error) {
	ctxNode := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctxNode)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	if err := p.Append(parent, nodes...); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Remove detaches n from the document. Removing a detached node is a no-op.
func (p *Page) Remove(n *html.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// OnSubtreeInserted subscribes fn to inserted subtrees. The returned func unsubscribes.
func (p *Page) OnSubtreeInserted(fn SubtreeListener) func() {
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.subMu.Unlock()
	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

func (p *Page) notify(root *html.Node) {
	p.subMu.Lock()
	listeners := make([]SubtreeListener, 0, len(p.subs))
	for _, fn := range p.subs {
		listeners = append(listeners, fn)
	}
	p.subMu.Unlock()
	for _, fn := range listeners {
		fn(root)
	}
}

// Render writes the current document, annotations included.
func (p *Page) Render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return html.Render(w, p.doc)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
