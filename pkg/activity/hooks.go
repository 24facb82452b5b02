package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event records one injection for audit sinks. Actor ids are plain strings;
// sinks decide how to parse them.
type Event struct {
	Verb       string
	Actor      Actor
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Complete reports whether the event names a verb and an object.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Normalize trims identifiers, copies metadata and stamps OccurredAt.
func (e Event) Normalize() Event {
	out := e
	out.Verb = strings.TrimSpace(e.Verb)
	out.Actor = Actor{
		ActorID:  strings.TrimSpace(e.Actor.ActorID),
		UserID:   strings.TrimSpace(e.Actor.UserID),
		TenantID: strings.TrimSpace(e.Actor.TenantID),
	}
	out.ObjectType = strings.TrimSpace(e.ObjectType)
	out.ObjectID = strings.TrimSpace(e.ObjectID)
	out.Channel = strings.TrimSpace(e.Channel)
	out.Metadata = copyMetadata(e.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks delivers one event to several hooks.
type Hooks []ActivityHook

// Notify normalizes event and hands it to every hook, even after a failure.
// Incomplete events are dropped. Failures are joined, each tagged with the
// hook's position.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = event.Normalize()
	if !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func copyMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
