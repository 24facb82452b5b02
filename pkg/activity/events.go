package activity

import (
	"context"
	"time"
)

const (
	// VerbInjected is emitted after a loader has been injected into a page.
	VerbInjected = "tagloader.injected"
	// ObjectTypePage identifies the injected document.
	ObjectTypePage = "page"
)

// Actor identifies who a page was rendered for.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

type actorKey struct{}

// WithActor stores actor on ctx for events emitted during the request.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// InjectionInput describes one injection.
type InjectionInput struct {
	InjectionID  string
	Actor        Actor
	Loader       string
	ScriptDomain string
	FirstParty   bool
	TagType      string
	Metadata     map[string]any
	OccurredAt   time.Time
}

// BuildInjectedEvent constructs the event for an injection.
func BuildInjectedEvent(input InjectionInput) Event {
	metadata := map[string]any{}
	for key, value := range input.Metadata {
		metadata[key] = value
	}
	metadata["loader"] = input.Loader
	metadata["script_domain"] = input.ScriptDomain
	metadata["first_party"] = input.FirstParty
	if input.TagType != "" {
		metadata["tag_type"] = input.TagType
	}
	return Event{
		Verb:       VerbInjected,
		Actor:      input.Actor,
		ObjectType: ObjectTypePage,
		ObjectID:   input.InjectionID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}.Normalize()
}
