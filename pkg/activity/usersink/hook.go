package usersink

import (
	"context"
	"errors"

	"github.com/goliatone/go-consent/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Sink persists go-users activity records.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook writes console activity events into a go-users activity sink.
type Hook struct {
	Sink Sink
}

var errMissingSink = errors.New("usersink: sink not configured")

// Notify implements activity.Hook.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	evt = activity.NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	if h.Sink == nil {
		return errMissingSink
	}
	data := make(map[string]any, len(evt.Metadata)+1)
	for key, value := range evt.Metadata {
		data[key] = value
	}
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	return h.Sink.Log(ctx, types.ActivityRecord{
		ActorID:    parseID(evt.ActorID),
		UserID:     parseID(evt.UserID),
		TenantID:   parseID(evt.TenantID),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		Data:       data,
		OccurredAt: evt.OccurredAt,
	})
}

// parseID maps malformed or empty ids to uuid.Nil.
func parseID(value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
