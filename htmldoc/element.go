package htmldoc

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-tagloader/dom"
)

// Element wraps a node of a Document. It satisfies both dom.Node and
// dom.Script; the script setters are meaningful on script elements only.
type Element struct {
	doc  *Document
	node *html.Node
}

var _ dom.Script = (*Element)(nil)

func (e *Element) ParentNode() dom.Node {
	return e.doc.wrap(e.node.Parent)
}

func (e *Element) FirstChild() dom.Node {
	return e.doc.wrap(e.node.FirstChild)
}

func (e *Element) NextSibling() dom.Node {
	return e.doc.wrap(e.node.NextSibling)
}

// InsertBefore moves child under e, ahead of ref. Nodes from another
// document are ignored; a ref that is not a child of e appends.
func (e *Element) InsertBefore(child, ref dom.Node) {
	c := e.doc.unwrap(child)
	if c == nil || c == e.node {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	if r := e.doc.unwrap(ref); r != nil && r.Parent == e.node {
		e.node.InsertBefore(c, r)
	} else {
		e.node.AppendChild(c)
	}
	e.doc.run(c)
}

func (e *Element) SetAsync(async bool) {
	if async {
		e.setAttr("async", "")
		return
	}
	e.removeAttr("async")
}

func (e *Element) SetSrc(src string) {
	e.setAttr("src", src)
}

func (e *Element) SetID(id string) {
	e.setAttr("id", id)
}

func (e *Element) SetText(text string) {
	setText(e.node, text)
}

func (e *Element) setAttr(key, val string) {
	for i := range e.node.Attr {
		if e.node.Attr[i].Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

func (e *Element) removeAttr(key string) {
	attrs := e.node.Attr[:0]
	for _, attr := range e.node.Attr {
		if attr.Key != key {
			attrs = append(attrs, attr)
		}
	}
	e.node.Attr = attrs
}

func (d *Document) unwrap(n dom.Node) *html.Node {
	e, ok := n.(*Element)
	if !ok || e == nil || e.doc != d {
		return nil
	}
	return e.node
}
