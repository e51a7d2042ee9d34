// Package inputprocessor turns a post element into the plain text sent to the LLM.
package inputprocessor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"linkedlens/internal/util"
)

// SourceFallback marks text taken from the whole post after UI elements were stripped.
const SourceFallback = "fallback"

var (
	DefaultContentSelectors = []string{
		".feed-shared-update-v2__description .feed-shared-text",
		".feed-shared-update-v2__description",
		".feed-shared-text",
		".feed-shared-update-v2__commentary",
		".feed-shared-text__text-view",
		".feed-shared-update-v2__description-wrapper",
		".feed-shared-update-v2__content",
		".feed-shared-update-v2__container .feed-shared-text",
	}
	DefaultStripSelectors = []string{
		".feed-shared-update-v2__social-actions",
		".feed-shared-update-v2__actions",
		".feed-shared-update-v2__likes",
		".feed-shared-update-v2__comments",
		".feed-shared-update-v2__shares",
		".linkedlens-tag",
		"button",
		".feed-shared-update-v2__actor",
		".feed-shared-update-v2__header",
	}
)

const (
	DefaultMinContentLength = 20
	DefaultMaxLength        = 1500
)

// Options tunes extraction. Zero values fall back to the defaults above.
type Options struct {
	ContentSelectors []string
	StripSelectors   []string
	MinContentLength int
	MaxLength        int
}

// Result holds the extracted text and where it came from.
type Result struct {
	Body   string
	Source string // content selector that produced Body, or SourceFallback
}

// Processor extracts post text from an element. Callers hold the page read lock.
type Processor interface {
	Process(el *html.Node) Result
}

type selector struct {
	raw string
	sel cascadia.Selector
}

type defaultProcessor struct {
	content   []selector
	strip     []selector
	minLength int
	maxLength int
}

// New compiles the selector lists.
func New(opts Options) (Processor, error) {
	if len(opts.ContentSelectors) == 0 {
		opts.ContentSelectors = DefaultContentSelectors
	}
	if len(opts.StripSelectors) == 0 {
		opts.StripSelectors = DefaultStripSelectors
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}

	content, err := compileAll(opts.ContentSelectors)
	if err != nil {
		return nil, err
	}
	strip, err := compileAll(opts.StripSelectors)
	if err != nil {
		return nil, err
	}
	return &defaultProcessor{
		content:   content,
		strip:     strip,
		minLength: opts.MinContentLength,
		maxLength: opts.MaxLength,
	}, nil
}

func compileAll(raw []string) ([]selector, error) {
	out := make([]selector, 0, len(raw))
	for _, s := range raw {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("compile selector %q: %w", s, err)
		}
		out = append(out, selector{raw: s, sel: sel})
	}
	return out, nil
}

// Process tries the content selectors in order. The text of the first match of each is
// kept; a match longer than the minimum length wins outright. When nothing usable was
// found, the text of a copy of the post with UI elements removed is used instead.
func (p *defaultProcessor) Process(el *html.Node) Result {
	post := goquery.NewDocumentFromNode(el).Selection

	var res Result
	for _, s := range p.content {
		match := post.FindMatcher(s.sel).First()
		if match.Length() == 0 {
			continue
		}
		res = Result{Body: trimmed(match.Text()), Source: s.raw}
		if len([]rune(res.Body)) > p.minLength {
			break
		}
	}

	if res.Body == "" {
		clone := goquery.NewDocumentFromNode(cloneNode(el)).Selection
		for _, s := range p.strip {
			clone.FindMatcher(s.sel).Remove()
		}
		res = Result{Body: clone.Text(), Source: SourceFallback}
	}

	res.Body = util.Truncate(util.CollapseWhitespace(res.Body), p.maxLength)
	return res
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// cloneNode deep-copies n into a detached tree.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

var _ Processor = (*defaultProcessor)(nil)
