// Package hydrate turns loosely typed documents, as produced by decoding YAML
// or JSON into map[string]any, into typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context locates a document inside its source file.
type Context struct {
	Source string
	Index  int
}

func (c Context) String() string {
	if c.Source == "" {
		return fmt.Sprintf("#%d", c.Index)
	}
	return fmt.Sprintf("%s#%d", c.Source, c.Index)
}

// PreHook rewrites the raw document before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts documents into T.
type Decoder[T any] struct {
	preHooks        []PreHook
	postHooks       []PostHook[T]
	disallowUnknown bool
}

// WithPreHook runs hook before decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook runs hook after decoding.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects keys that T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.disallowUnknown = true
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts one document.
func (d *Decoder[T]) Decode(ctx Context, doc map[string]any) (T, error) {
	var zero T
	if doc == nil {
		return zero, fmt.Errorf("hydrate: %s: document is empty", ctx)
	}

	current := make(map[string]any, len(doc))
	for key, value := range doc {
		current[key] = value
	}
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: %s: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: %s: encode: %w", ctx, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.disallowUnknown {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: %s: %w", ctx, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: %s: %w", ctx, err)
		}
	}
	return result, nil
}

// DecodeList converts every element of docs, numbering them from zero. Each
// element must itself be a document.
func (d *Decoder[T]) DecodeList(source string, docs []any) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i, raw := range docs {
		ctx := Context{Source: source, Index: i}
		doc, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("hydrate: %s: expected a mapping, got %T", ctx, raw)
		}
		value, err := d.Decode(ctx, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}
