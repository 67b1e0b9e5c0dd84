package queries

import (
	"context"
	"testing"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateQuery(t *testing.T) {
	console := consent.NewConsole(consent.ConsoleOptions{})
	defer console.Close(context.Background())
	console.Store().PatchField(consent.FieldLayout, "banner")

	state, err := NewStateQuery(console).Query(context.Background(), StateRequest{})
	require.NoError(t, err)

	assert.Equal(t, "banner", state.Document.Layout)
	assert.Len(t, state.Steps, 4)
	assert.Equal(t, consent.StateNotStarted, state.Phase.State)
}

func TestRegulationQuery(t *testing.T) {
	query := NewRegulationQuery()

	all, err := query.Query(context.Background(), RegulationRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	us, err := query.Query(context.Background(), RegulationRequest{ID: consent.RegulationUS})
	require.NoError(t, err)
	require.Len(t, us, 1)
	assert.Equal(t, []consent.Button{consent.ButtonReject}, us[0].Buttons)
	assert.Len(t, us[0].ThemeKeys, 6)

	_, err = query.Query(context.Background(), RegulationRequest{ID: "lgpd"})
	assert.ErrorIs(t, err, consent.ErrUnknownRegulation)
}
