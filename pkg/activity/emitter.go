package activity

import (
	"context"
	"fmt"
	"strings"
)

// DefaultChannel labels events emitted without an explicit channel.
const DefaultChannel = "tagloader"

// Emitter stamps the channel on events and delivers them to its hooks.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter keeps the non-nil hooks. A blank channel means DefaultChannel.
func NewEmitter(hooks Hooks, channel string) *Emitter {
	e := &Emitter{channel: strings.TrimSpace(channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	for _, hook := range hooks {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
	}
	return e
}

// Enabled is false when there is nobody to notify, letting callers skip
// building the event.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit delivers event, filling in the emitter's channel when it has none.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if err := e.hooks.Notify(ctx, event); err != nil {
		return fmt.Errorf("activity: emit %s: %w", event.Verb, err)
	}
	return nil
}
