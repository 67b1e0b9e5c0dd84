package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksNotifyNormalizesAndSkipsInvalid(t *testing.T) {
	var called int
	hooks := Hooks{
		HookFunc(func(ctx context.Context, evt Event) error {
			called++
			assert.Equal(t, "save", evt.Verb)
			assert.Equal(t, "settings", evt.ObjectType)
			assert.Equal(t, "123", evt.ObjectID)
			return nil
		}),
	}

	// Missing verb: should skip.
	require.NoError(t, hooks.Notify(context.Background(), Event{}))
	assert.Zero(t, called)

	require.NoError(t, hooks.Notify(context.Background(), Event{
		Verb:       " save ",
		ObjectType: " settings ",
		ObjectID:   " 123 ",
	}))
	assert.Equal(t, 1, called)
}

func TestHooksNotifyCombinesErrors(t *testing.T) {
	var reached bool
	hooks := Hooks{
		HookFunc(func(context.Context, Event) error { return errors.New("first") }),
		nil,
		HookFunc(func(context.Context, Event) error {
			reached = true
			return errors.New("second")
		}),
	}

	err := hooks.Notify(context.Background(), Event{Verb: "v", ObjectType: "o"})

	require.Error(t, err)
	assert.True(t, reached)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestNormalizeEventClones(t *testing.T) {
	meta := map[string]any{"k": "v"}
	now := time.Now()

	evt := Event{
		Verb:       "verb",
		ObjectType: "obj",
		ObjectID:   "id",
		Metadata:   meta,
		OccurredAt: now,
	}
	n := NormalizeEvent(evt)

	n.Metadata["k"] = "changed"
	assert.Equal(t, "v", evt.Metadata["k"])
	assert.True(t, n.OccurredAt.Equal(now))

	stamped := NormalizeEvent(Event{Verb: "v", ObjectType: "o"})
	assert.False(t, stamped.OccurredAt.IsZero())
}
