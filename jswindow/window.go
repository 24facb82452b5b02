// Package jswindow provides a browser-like window global backed by the goja
// JavaScript VM. Inline scripts produced by the tag loader run inside it, so
// the queue they build can be inspected from Go.
package jswindow

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/goliatone/go-tagloader/dom"
)

// Window is a single JavaScript realm whose global object doubles as
// `window`. It is not safe for concurrent use.
type Window struct {
	vm *goja.Runtime
}

var _ dom.Window = (*Window)(nil)

// New constructs an empty window.
func New() *Window {
	vm := goja.New()
	global := vm.GlobalObject()
	_ = global.Set("window", global)
	return &Window{vm: vm}
}

// DataLayer mirrors `window[name] = window[name] || []`.
func (w *Window) DataLayer(name string) dom.Queue {
	global := w.vm.GlobalObject()
	current := global.Get(name)
	if current == nil || !current.ToBoolean() {
		_ = global.Set(name, w.vm.NewArray())
	}
	return &queue{window: w, name: name}
}

// Run executes script in the window realm.
func (w *Window) Run(script string) error {
	if _, err := w.vm.RunString(script); err != nil {
		return fmt.Errorf("jswindow: run script: %w", err)
	}
	return nil
}

// Eval evaluates a JavaScript expression and returns the exported Go value.
func (w *Window) Eval(expr string) (any, error) {
	value, err := w.vm.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("jswindow: eval %q: %w", expr, err)
	}
	return value.Export(), nil
}

// Len returns the length of the array stored under name, or zero when the
// global is missing.
func (w *Window) Len(name string) int {
	value := w.vm.GlobalObject().Get(name)
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return 0
	}
	return int(value.ToObject(w.vm).Get("length").ToInteger())
}

// Snapshot returns the JSON round trip of the global stored under name.
// Argument objects pushed by gtag() come back as index-keyed maps.
func (w *Window) Snapshot(name string) ([]any, error) {
	key, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	raw, err := w.vm.RunString(fmt.Sprintf("JSON.stringify(window[%s] || [])", key))
	if err != nil {
		return nil, fmt.Errorf("jswindow: snapshot %s: %w", name, err)
	}
	var out []any
	if err := json.Unmarshal([]byte(raw.String()), &out); err != nil {
		return nil, fmt.Errorf("jswindow: decode snapshot %s: %w", name, err)
	}
	return out, nil
}

type queue struct {
	window *Window
	name   string
}

func (q *queue) Push(entry map[string]any) {
	vm := q.window.vm
	target := vm.GlobalObject().Get(q.name)
	if target == nil || goja.IsUndefined(target) || goja.IsNull(target) {
		return
	}
	array := target.ToObject(vm)
	push, ok := goja.AssertFunction(array.Get("push"))
	if !ok {
		return
	}
	_, _ = push(array, q.window.object(entry))
}

func (w *Window) object(entry map[string]any) goja.Value {
	obj := w.vm.NewObject()
	keys := make([]string, 0, len(entry))
	for key := range entry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		_ = obj.Set(key, entry[key])
	}
	return obj
}
