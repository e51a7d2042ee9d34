package dom

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"linkedlens/internal/models"
)

const (
	// MarkerClass is carried by every marker element the annotator writes.
	MarkerClass    = "linkedlens-tag"
	markerSelector = "." + MarkerClass

	attrState  = "data-linkedlens-state"
	attrPostID = "data-linkedlens-post"
)

var (
	// ErrStaleStamp rejects a write made with a stamp that is no longer current, such as
	// a late result from an abandoned LLM call.
	ErrStaleStamp = errors.New("dom: stale annotation stamp")
	// ErrInvalidTransition rejects writes that would move a post backwards or out of a
	// terminal state.
	ErrInvalidTransition = errors.New("dom: invalid annotation transition")
)

// Stamp identifies one annotation write. Only the holder of the latest stamp for a post
// may write again through Apply.
type Stamp struct {
	PostID  string
	version uint64
}

// Annotation is the current marker state of one post.
type Annotation struct {
	PostID    string                 `json:"post_id"`
	State     models.ProcessingState `json:"state"`
	Label     string                 `json:"label"`
	UpdatedAt time.Time              `json:"updated_at"`
	Attached  bool                   `json:"attached"`
}

type record struct {
	element   *html.Node
	state     models.ProcessingState
	label     string
	version   uint64
	updatedAt time.Time
}

// Annotator is the annotation sink: it keeps exactly one marker element per post.
type Annotator struct {
	page *Page

	mu      sync.Mutex
	records map[string]*record
	order   []string
	now     func() time.Time
}

func NewAnnotator(page *Page) *Annotator {
	return &Annotator{page: page, records: make(map[string]*record), now: time.Now}
}

// Mark moves a post to state, replacing any marker it had. The move must keep the
// lifecycle monotonic. The returned stamp authorises the next Apply.
func (a *Annotator) Mark(postID string, element *html.Node, state models.ProcessingState, label string) (Stamp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[postID]
	if !ok {
		rec = &record{element: element}
		a.records[postID] = rec
		a.order = append(a.order, postID)
	}
	return a.write(postID, rec, state, label)
}

// Apply writes state only if stamp is still the latest one issued for its post.
func (a *Annotator) Apply(stamp Stamp, state models.ProcessingState, label string) (Stamp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[stamp.PostID]
	if !ok || rec.version != stamp.version {
		return Stamp{}, fmt.Errorf("%w: post %s", ErrStaleStamp, stamp.PostID)
	}
	return a.write(stamp.PostID, rec, state, label)
}

func (a *Annotator) write(postID string, rec *record, state models.ProcessingState, label string) (Stamp, error) {
	if !rec.state.CanTransition(state) {
		return Stamp{}, fmt.Errorf("%w: post %s %q -> %q", ErrInvalidTransition, postID, rec.state, state)
	}
	if label == "" {
		label = state.DefaultLabel()
	}

	a.page.Update(func(_ *goquery.Document) {
		// Markers are direct children; nested posts keep theirs.
		el := goquery.NewDocumentFromNode(rec.element).Selection
		el.ChildrenFiltered(markerSelector).Remove()
		rec.element.AppendChild(newMarker(postID, state, label))
	})

	rec.state = state
	rec.label = label
	rec.version++
	rec.updatedAt = a.now()
	return Stamp{PostID: postID, version: rec.version}, nil
}

// State returns the current state of a post and whether it is known.
func (a *Annotator) State(postID string) (models.ProcessingState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.records[postID]
	if !ok {
		return "", false
	}
	return rec.state, true
}

// Snapshot lists every annotated post in discovery order.
func (a *Annotator) Snapshot() []Annotation {
	a.mu.Lock()
	out := make([]Annotation, 0, len(a.order))
	elements := make([]*html.Node, 0, len(a.order))
	for _, id := range a.order {
		rec := a.records[id]
		out = append(out, Annotation{PostID: id, State: rec.state, Label: rec.label, UpdatedAt: rec.updatedAt})
		elements = append(elements, rec.element)
	}
	a.mu.Unlock()

	for i, el := range elements {
		out[i].Attached = a.page.Contains(el)
	}
	return out
}

func newMarker(postID string, state models.ProcessingState, label string) *html.Node {
	marker := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass + " " + string(state)},
			{Key: attrState, Val: string(state)},
			{Key: attrPostID, Val: postID},
			{Key: "title", Val: "LinkedLens: " + label},
		},
	}
	marker.AppendChild(&html.Node{Type: html.TextNode, Data: label})
	return marker
}
