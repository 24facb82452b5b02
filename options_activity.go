package tagloader

import "github.com/goliatone/go-tagloader/pkg/activity"

// WithActivityHooks attaches hooks notified after each injection. Nil entries
// are dropped.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *loaderConfig) {
		cfg.activityHooks = append(cfg.activityHooks, normalized...)
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *loaderConfig) {
		cfg.activityChannel = channel
	}
}
