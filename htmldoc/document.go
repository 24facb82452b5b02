// Package htmldoc implements the dom capability over an HTML page parsed with
// golang.org/x/net/html, so the tag loader can rewrite pages on the server.
//
// Window queues are materialised as a bootstrap inline script placed first in
// <head>; when the page is rendered the browser rebuilds the same queue before
// any injected vendor script can read it. A real window (for example a
// jswindow.Window) can be attached instead with WithWindow.
package htmldoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-tagloader/dom"
)

// ScriptRunner executes the text of an inline script once it is attached.
type ScriptRunner func(script string) error

// Option configures a Document.
type Option func(*Document)

// WithCookie sets the raw cookie string returned by Document.Cookie.
func WithCookie(raw string) Option {
	return func(d *Document) {
		d.cookie = raw
	}
}

// WithWindow delegates window queues to w instead of materialising them.
func WithWindow(w dom.Window) Option {
	return func(d *Document) {
		d.window = w
	}
}

// WithScriptRunner runs inline scripts as they are attached to the tree.
func WithScriptRunner(run ScriptRunner) Option {
	return func(d *Document) {
		d.runner = run
	}
}

// Document is a parsed HTML page. It is not safe for concurrent use.
type Document struct {
	root   *html.Node
	head   *html.Node
	cookie string
	window dom.Window
	runner ScriptRunner

	queues    map[string]*queue
	order     []string
	bootstrap *html.Node
	errs      []error
}

var _ dom.Environment = (*Document)(nil)

// Parse reads a complete HTML page.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	d := &Document{
		root:   root,
		queues: map[string]*queue{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.head = findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Head
	})
	return d, nil
}

// ParseString is Parse over an in-memory page.
func ParseString(page string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(page), opts...)
}

// Render writes the page, including injected elements, to w.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the page, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Errors returns the failures reported by the script runner.
func (d *Document) Errors() []error {
	return append([]error(nil), d.errs...)
}

func (d *Document) Cookie() string {
	return d.cookie
}

func (d *Document) Head() dom.Node {
	return d.wrap(d.head)
}

func (d *Document) FirstScript() dom.Node {
	return d.wrap(findFirst(d.root, func(n *html.Node) bool {
		return isScript(n) && n != d.bootstrap
	}))
}

func (d *Document) CreateScript() dom.Script {
	return &Element{doc: d, node: &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Script.String(),
		DataAtom: atom.Script,
	}}
}

func (d *Document) DataLayer(name string) dom.Queue {
	if d.window != nil {
		return d.window.DataLayer(name)
	}
	if q, ok := d.queues[name]; ok {
		return q
	}
	q := &queue{doc: d, name: name}
	d.queues[name] = q
	d.order = append(d.order, name)
	d.writeBootstrap()
	return q
}

// Scripts lists every script element in document order.
func (d *Document) Scripts() []ScriptInfo {
	var out []ScriptInfo
	walk(d.root, func(n *html.Node) bool {
		if isScript(n) {
			out = append(out, describe(n, n == d.bootstrap))
		}
		return false
	})
	return out
}

// ScriptInfo summarises a script element.
type ScriptInfo struct {
	Src       string
	ID        string
	Async     bool
	Text      string
	Parent    string
	Bootstrap bool
}

func describe(n *html.Node, bootstrap bool) ScriptInfo {
	info := ScriptInfo{Text: textOf(n), Bootstrap: bootstrap}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "src":
			info.Src = attr.Val
		case "id":
			info.ID = attr.Val
		case "async":
			info.Async = true
		}
	}
	if n.Parent != nil {
		info.Parent = n.Parent.Data
	}
	return info
}

func (d *Document) wrap(n *html.Node) dom.Node {
	if n == nil {
		return nil
	}
	return &Element{doc: d, node: n}
}

func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func (d *Document) run(n *html.Node) {
	if d.runner == nil || !isScript(n) || hasAttr(n, "src") || !d.attached(n) {
		return
	}
	if err := d.runner(textOf(n)); err != nil {
		d.errs = append(d.errs, err)
	}
}

type queue struct {
	doc     *Document
	name    string
	entries []map[string]any
}

func (q *queue) Push(entry map[string]any) {
	clone := make(map[string]any, len(entry))
	for key, value := range entry {
		clone[key] = value
	}
	q.entries = append(q.entries, clone)
	q.doc.writeBootstrap()
}

func (d *Document) writeBootstrap() {
	if d.head == nil {
		return
	}
	if d.bootstrap == nil {
		d.bootstrap = &html.Node{Type: html.ElementNode, Data: atom.Script.String(), DataAtom: atom.Script}
		d.head.InsertBefore(d.bootstrap, d.head.FirstChild)
	}
	var b strings.Builder
	for _, name := range d.order {
		key, _ := json.Marshal(name)
		fmt.Fprintf(&b, "window[%s] = window[%s] || [];\n", key, key)
		for _, entry := range d.queues[name].entries {
			payload, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "window[%s].push(%s);\n", key, payload)
		}
	}
	setText(d.bootstrap, b.String())
}

func isScript(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Script
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// walk visits nodes depth first in document order until visit returns true.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if visit(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, visit) {
			return true
		}
	}
	return false
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return true
		}
		return false
	})
	return found
}
