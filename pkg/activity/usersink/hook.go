// Package usersink forwards injection events to a go-users ActivitySink.
package usersink

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-tagloader/pkg/activity"
)

// Hook is an activity.ActivityHook writing to Sink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify logs complete events to the sink. A nil Sink drops everything.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = event.Normalize()
	if !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, Record(event))
}

// Record maps event onto an ActivityRecord. Actor ids that are not UUIDs
// become uuid.Nil; the injection metadata becomes the record data.
func Record(event activity.Event) usertypes.ActivityRecord {
	return usertypes.ActivityRecord{
		ActorID:    uuidOrNil(event.Actor.ActorID),
		UserID:     uuidOrNil(event.Actor.UserID),
		TenantID:   uuidOrNil(event.Actor.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       event.Metadata,
		OccurredAt: event.OccurredAt,
	}
}

func uuidOrNil(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
