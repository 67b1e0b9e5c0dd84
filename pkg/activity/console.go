package activity

import (
	"context"
	"strconv"
	"strings"

	consent "github.com/goliatone/go-consent/components/consent"
)

// Actor identifies who is operating the console.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// StepObserver turns finished onboarding steps into activity events.
type StepObserver struct {
	Emitter *Emitter
	Actor   Actor
}

// StepUpdated implements consent.StepObserver. Pending transitions are not
// recorded.
func (o StepObserver) StepUpdated(ctx context.Context, event consent.StepEvent) error {
	if event.Step.Status == consent.StepPending {
		return nil
	}
	return o.Emitter.Emit(ctx, Event{
		Verb:           string(event.Step.Status),
		ActorID:        o.Actor.ActorID,
		UserID:         o.Actor.UserID,
		TenantID:       o.Actor.TenantID,
		ObjectType:     "onboarding_step",
		ObjectID:       strconv.Itoa(event.Step.ID),
		DefinitionCode: "onboarding:" + strconv.Itoa(event.Step.ID),
		Metadata: map[string]any{
			"title":       event.Step.Title,
			"description": event.Step.Description,
			"phase":       event.Phase.State.String(),
		},
		OccurredAt: event.At,
	})
}

// Telemetry records console telemetry as activity. Event names follow
// "consent.<object>.<verb>"; other names are ignored.
type Telemetry struct {
	Emitter *Emitter
	Actor   Actor
}

// Record implements consent.Telemetry.
func (t Telemetry) Record(ctx context.Context, event string, payload map[string]any) {
	parts := strings.Split(event, ".")
	if len(parts) != 3 || parts[0] != "consent" {
		return
	}
	_ = t.Emitter.Emit(ctx, Event{
		Verb:           parts[2],
		ActorID:        t.Actor.ActorID,
		UserID:         t.Actor.UserID,
		TenantID:       t.Actor.TenantID,
		ObjectType:     parts[1],
		DefinitionCode: parts[1] + ":" + parts[2],
		Metadata:       payload,
	})
}
