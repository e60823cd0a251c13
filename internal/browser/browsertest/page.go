// Package browsertest provides an in-memory browser.Page backed by HTML fixtures.
//
// Queries are evaluated with antchfx/htmlquery against the current document.
// Clicks and key presses run scripted handlers that mutate the document, which
// is how tests model modals opening, forms submitting and navigation.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/jonathan/resume-scanner/internal/browser"
)

// Op names a Page operation for failure injection.
type Op string

// Operations that can be made to fail with FailNext.
const (
	OpNavigate Op = "navigate"
	OpCount    Op = "count"
	OpTexts    Op = "texts"
	OpHover    Op = "hover"
	OpClick    Op = "click"
	OpFill     Op = "fill"
	OpUpload   Op = "upload"
	OpKey      Op = "key"
	OpClose    Op = "close"
)

// ErrInjected is returned by operations failed with FailNext.
var ErrInjected = errors.New("injected failure")

// Handler reacts to an interaction by mutating the page.
type Handler func(p *Page) error

// FillCall records one Fill.
type FillCall struct {
	Locator browser.Locator
	Value   string
}

// UploadCall records one UploadViaChooser.
type UploadCall struct {
	Trigger browser.Locator
	Paths   []string
}

type clickHandler struct {
	loc browser.Locator
	fn  Handler
}

// Page is a fake browser.Page. It is safe for use from one goroutine at a time
// plus concurrent inspection.
type Page struct {
	mu       sync.Mutex
	url      string
	doc      *html.Node
	routes   map[string]string
	values   map[*html.Node]string
	clicks   []clickHandler
	keys     map[string]Handler
	reads    []Handler
	failures map[Op]int
	closed   bool

	Clicked []browser.Locator
	Hovered []browser.Locator
	Filled  []FillCall
	Pressed []string
	Uploads []UploadCall
	Moves   int
}

var _ browser.Page = (*Page)(nil)

// New returns a page showing markup at url.
func New(url, markup string) *Page {
	p := &Page{
		routes:   make(map[string]string),
		values:   make(map[*html.Node]string),
		keys:     make(map[string]Handler),
		failures: make(map[Op]int),
	}
	p.url = url
	p.doc = mustParse(markup)
	return p
}

func mustParse(markup string) *html.Node {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		panic(fmt.Sprintf("browsertest: invalid fixture: %v", err))
	}
	return doc
}

// Route registers the markup served when the page navigates to url.
func (p *Page) Route(url, markup string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[url] = markup
}

// Show replaces the document and URL, as a navigation the page performed itself.
func (p *Page) Show(url, markup string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.doc = mustParse(markup)
	p.values = make(map[*html.Node]string)
}

// OnClick runs fn after any click on an element matched by loc.
func (p *Page) OnClick(loc browser.Locator, fn Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, clickHandler{loc: loc, fn: fn})
}

// OnKey runs fn after key is pressed.
func (p *Page) OnKey(key string, fn Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[key] = fn
}

// BeforeRead runs fn before every read operation. Tests use it to animate the page.
func (p *Page) BeforeRead(fn Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads = append(p.reads, fn)
}

// FailNext makes the next n calls of op fail with ErrInjected.
func (p *Page) FailNext(op Op, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] += n
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// HTML returns the current document.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return htmlquery.OutputHTML(p.doc, true)
}

// SetAttr sets an attribute on every element matched by loc.
func (p *Page) SetAttr(loc browser.Locator, name, value string) error {
	return p.mutate(loc, func(n *html.Node) {
		for i, a := range n.Attr {
			if a.Key == name {
				n.Attr[i].Val = value
				return
			}
		}
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	})
}

// RemoveAttr drops an attribute from every element matched by loc.
func (p *Page) RemoveAttr(loc browser.Locator, name string) error {
	return p.mutate(loc, func(n *html.Node) {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			if a.Key != name {
				attrs = append(attrs, a)
			}
		}
		n.Attr = attrs
	})
}

// SetText replaces the children of every element matched by loc with text.
func (p *Page) SetText(loc browser.Locator, text string) error {
	return p.mutate(loc, func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	})
}

// Remove detaches every element matched by loc.
func (p *Page) Remove(loc browser.Locator) error {
	return p.mutate(loc, func(n *html.Node) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	})
}

// Append parses markup and appends it to every element matched by loc.
func (p *Page) Append(loc browser.Locator, markup string) error {
	return p.mutate(loc, func(n *html.Node) {
		nodes, err := html.ParseFragment(strings.NewReader(markup), n)
		if err != nil {
			return
		}
		for _, c := range nodes {
			n.AppendChild(c)
		}
	})
}

func (p *Page) mutate(loc browser.Locator, fn func(n *html.Node)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := p.query(loc)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, loc)
	}
	for _, n := range nodes {
		fn(n)
	}
	return nil
}

func (p *Page) query(loc browser.Locator) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(p.doc, loc.String())
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", loc, err)
	}
	return nodes, nil
}

func (p *Page) first(loc browser.Locator) (*html.Node, error) {
	nodes, err := p.query(loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, loc)
	}
	return nodes[0], nil
}

// fail consumes one injected failure for op. Callers hold the lock.
func (p *Page) fail(op Op) error {
	if p.closed {
		return errors.New("page is closed")
	}
	if p.failures[op] > 0 {
		p.failures[op]--
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

// read runs the BeforeRead hooks, then fn under the lock.
func (p *Page) read(op Op, fn func() error) error {
	p.mu.Lock()
	hooks := append([]Handler(nil), p.reads...)
	p.mu.Unlock()
	for _, h := range hooks {
		if err := h(p); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail(op); err != nil {
		return err
	}
	return fn()
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail(OpNavigate); err != nil {
		return err
	}
	markup, ok := p.routes[url]
	if !ok {
		return fmt.Errorf("no route for %s", url)
	}
	p.url = url
	p.doc = mustParse(markup)
	p.values = make(map[*html.Node]string)
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	var u string
	err := p.read(OpCount, func() error {
		u = p.url
		return nil
	})
	return u, err
}

func (p *Page) Count(ctx context.Context, loc browser.Locator) (int, error) {
	var n int
	err := p.read(OpCount, func() error {
		nodes, err := p.query(loc)
		n = len(nodes)
		return err
	})
	return n, err
}

func (p *Page) Texts(ctx context.Context, loc browser.Locator) ([]string, error) {
	var texts []string
	err := p.read(OpTexts, func() error {
		nodes, err := p.query(loc)
		if err != nil {
			return err
		}
		texts = make([]string, 0, len(nodes))
		for _, n := range nodes {
			texts = append(texts, htmlquery.InnerText(n))
		}
		return nil
	})
	return texts, err
}

func (p *Page) Attribute(ctx context.Context, loc browser.Locator, name string) (string, error) {
	var v string
	err := p.read(OpTexts, func() error {
		n, err := p.first(loc)
		if err != nil {
			return err
		}
		v = htmlquery.SelectAttr(n, name)
		return nil
	})
	return v, err
}

func (p *Page) InputValue(ctx context.Context, loc browser.Locator) (string, error) {
	var v string
	err := p.read(OpTexts, func() error {
		n, err := p.first(loc)
		if err != nil {
			return err
		}
		if filled, ok := p.values[n]; ok {
			v = filled
		} else if n.Data == "textarea" {
			v = htmlquery.InnerText(n)
		} else {
			v = htmlquery.SelectAttr(n, "value")
		}
		return nil
	})
	return v, err
}

func (p *Page) OuterHTML(ctx context.Context, loc browser.Locator) (string, error) {
	var out string
	err := p.read(OpTexts, func() error {
		n, err := p.first(loc)
		if err != nil {
			return err
		}
		out = htmlquery.OutputHTML(n, true)
		return nil
	})
	return out, err
}

// BoundingBox reads a "data-box" attribute of the form "x,y,w,h", defaulting to a fixed box.
func (p *Page) BoundingBox(ctx context.Context, loc browser.Locator) (browser.Box, error) {
	box := browser.Box{X: 100, Y: 200, Width: 80, Height: 24}
	err := p.read(OpTexts, func() error {
		n, err := p.first(loc)
		if err != nil {
			return err
		}
		if raw := htmlquery.SelectAttr(n, "data-box"); raw != "" {
			parts := strings.Split(raw, ",")
			if len(parts) != 4 {
				return fmt.Errorf("invalid data-box %q", raw)
			}
			vals := make([]float64, 4)
			for i, s := range parts {
				f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return fmt.Errorf("invalid data-box %q: %w", raw, err)
				}
				vals[i] = f
			}
			box = browser.Box{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
		}
		return nil
	})
	return box, err
}

func (p *Page) IsVisible(ctx context.Context, loc browser.Locator) (bool, error) {
	var visible bool
	err := p.read(OpCount, func() error {
		nodes, err := p.query(loc)
		if err != nil || len(nodes) == 0 {
			return err
		}
		visible = isVisible(nodes[0])
		return nil
	})
	return visible, err
}

func (p *Page) IsEnabled(ctx context.Context, loc browser.Locator) (bool, error) {
	var enabled bool
	err := p.read(OpCount, func() error {
		nodes, err := p.query(loc)
		if err != nil || len(nodes) == 0 {
			return err
		}
		n := nodes[0]
		enabled = !htmlquery.ExistsAttr(n, "disabled") && htmlquery.SelectAttr(n, "aria-disabled") != "true"
		return nil
	})
	return enabled, err
}

// isVisible treats the "hidden" attribute, inline display:none and the "hidden"
// class on the node or any ancestor as invisible.
func isVisible(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if htmlquery.ExistsAttr(cur, "hidden") {
			return false
		}
		style := strings.ReplaceAll(htmlquery.SelectAttr(cur, "style"), " ", "")
		if strings.Contains(style, "display:none") {
			return false
		}
		for _, c := range strings.Fields(htmlquery.SelectAttr(cur, "class")) {
			if c == "hidden" {
				return false
			}
		}
	}
	return true
}

func (p *Page) actionable(op Op, loc browser.Locator) (*html.Node, error) {
	if err := p.fail(op); err != nil {
		return nil, err
	}
	n, err := p.first(loc)
	if err != nil {
		return nil, err
	}
	if !isVisible(n) {
		return nil, fmt.Errorf("%s: element %s is not visible", op, loc)
	}
	return n, nil
}

func (p *Page) Hover(ctx context.Context, loc browser.Locator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.actionable(OpHover, loc); err != nil {
		return err
	}
	p.Hovered = append(p.Hovered, loc)
	return nil
}

func (p *Page) Click(ctx context.Context, loc browser.Locator) error {
	handlers, err := p.click(loc)
	if err != nil {
		return err
	}
	for _, h := range handlers {
		if err := h(p); err != nil {
			return err
		}
	}
	return nil
}

// click records the click and returns the handlers to run once the lock is released.
func (p *Page) click(loc browser.Locator) ([]Handler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.actionable(OpClick, loc)
	if err != nil {
		return nil, err
	}
	if htmlquery.ExistsAttr(n, "disabled") {
		return nil, fmt.Errorf("click: element %s is disabled", loc)
	}
	p.Clicked = append(p.Clicked, loc)

	var handlers []Handler
	for _, h := range p.clicks {
		matches, err := p.query(h.loc)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m == n {
				handlers = append(handlers, h.fn)
				break
			}
		}
	}
	return handlers, nil
}

func (p *Page) Fill(ctx context.Context, loc browser.Locator, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.actionable(OpFill, loc)
	if err != nil {
		return err
	}
	p.values[n] = value
	p.Filled = append(p.Filled, FillCall{Locator: loc, Value: value})
	return nil
}

func (p *Page) MouseMove(ctx context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("page is closed")
	}
	p.Moves++
	return nil
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	p.mu.Lock()
	if err := p.fail(OpKey); err != nil {
		p.mu.Unlock()
		return err
	}
	p.Pressed = append(p.Pressed, key)
	h := p.keys[key]
	p.mu.Unlock()

	if h != nil {
		return h(p)
	}
	return nil
}

func (p *Page) UploadViaChooser(ctx context.Context, trigger browser.Locator, paths ...string) error {
	p.mu.Lock()
	if err := p.fail(OpUpload); err != nil {
		p.mu.Unlock()
		return err
	}
	p.Uploads = append(p.Uploads, UploadCall{Trigger: trigger, Paths: append([]string(nil), paths...)})
	p.mu.Unlock()

	return p.Click(ctx, trigger)
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if err := p.fail(OpClose); err != nil {
		return err
	}
	p.closed = true
	return nil
}

// FilledValue returns the last value filled into loc, and whether one was.
func (p *Page) FilledValue(loc browser.Locator) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.Filled) - 1; i >= 0; i-- {
		if p.Filled[i].Locator == loc {
			return p.Filled[i].Value, true
		}
	}
	return "", false
}

// ClickCount returns how many recorded clicks used exactly loc.
func (p *Page) ClickCount(loc browser.Locator) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Clicked {
		if c == loc {
			n++
		}
	}
	return n
}
