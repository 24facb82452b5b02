// Package dom describes the slice of a browser page the tag loader touches:
// the cookie string, the head element, the first script in document order
// and a window-scoped event queue. Implementations live in htmldoc (server
// side HTML rewriting) and jswindow (a goja backed window); tests substitute
// either one for a real browser.
package dom

// Node is an element attached to (or detached from) a document tree.
type Node interface {
	// ParentNode returns nil when the node is not attached.
	ParentNode() Node
	FirstChild() Node
	NextSibling() Node
	// InsertBefore inserts child before ref. A nil ref appends child.
	InsertBefore(child, ref Node)
}

// Script is a <script> element.
type Script interface {
	Node
	SetAsync(async bool)
	SetSrc(src string)
	SetText(text string)
	SetID(id string)
}

// Document exposes the page operations used during injection.
type Document interface {
	// Cookie returns the raw cookie string, as document.cookie would.
	Cookie() string
	// Head returns nil when the document has no head.
	Head() Node
	// FirstScript returns the earliest script element in document order, or
	// nil when the document has none.
	FirstScript() Node
	CreateScript() Script
}

// Queue is a window-scoped array consumed by the loaded vendor script.
type Queue interface {
	Push(entry map[string]any)
}

// Window holds window-scoped globals.
type Window interface {
	// DataLayer returns the queue stored under name, creating an empty one
	// when absent. An existing queue is never replaced.
	DataLayer(name string) Queue
}

// Environment is everything the injector needs from a page.
type Environment interface {
	Document
	Window
}
