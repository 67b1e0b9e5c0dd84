package consent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubState struct {
	state State
}

func (s stubState) State() State { return s.state }

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderPreview(t *testing.T) {
	state := State{
		Document: DefaultDocument(),
		Steps:    []Step{{ID: 1, Title: "1. Registering your domain", Status: StepSuccess}},
		Phase:    Phase{State: StateHalted, Step: 1},
	}
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Console: stubState{state: state}, Renderer: renderer})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderPreview(context.Background(), &buf))

	assert.Equal(t, DefaultPreviewTemplate, renderer.lastTemplate)
	assert.Equal(t, DefaultSelectorID, renderer.lastPayload["selector_id"])
	assert.Equal(t, DefaultScriptPath, renderer.lastPayload["script_path"])
	assert.Equal(t, "halted", renderer.lastPayload["phase"])
	assert.Equal(t, state.Steps, renderer.lastPayload["steps"])
	assert.NotZero(t, buf.Len())
}

func TestControllerRenderPreviewErrors(t *testing.T) {
	controller := NewController(ControllerOptions{Console: stubState{}})
	assert.Error(t, controller.RenderPreview(context.Background(), io.Discard))

	renderer := &stubRenderer{err: errors.New("boom")}
	controller = NewController(ControllerOptions{Console: stubState{}, Renderer: renderer})
	assert.ErrorContains(t, controller.RenderPreview(context.Background(), io.Discard), "boom")

	controller = NewController(ControllerOptions{Renderer: renderer})
	_, err := controller.State(context.Background())
	assert.Error(t, err)
}

func TestEmbeddedPreviewTemplateRenders(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	console := NewConsole(ConsoleOptions{Hub: NewEventHub()})
	defer console.Close(context.Background())
	controller := NewController(ControllerOptions{Console: console, Renderer: renderer})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderPreview(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, `id="`+DefaultSelectorID+`"`)
	assert.Contains(t, html, DefaultScriptPath)
	assert.Contains(t, html, "1. Registering your domain")
}

func TestEmbeddedPreviewTemplateUsesSocketPath(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	controller := NewController(ControllerOptions{
		Console:    stubState{state: State{Document: DefaultDocument()}},
		Renderer:   renderer,
		SocketPath: "/console/ws",
	})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderPreview(context.Background(), &buf))

	assert.Contains(t, buf.String(), `"/console/ws"`)
	assert.NotContains(t, buf.String(), "EventSource")
}
