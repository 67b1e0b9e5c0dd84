package consent

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Default paths used by the preview host page.
const (
	DefaultPreviewTemplate = "preview.html"
	DefaultScriptPath      = "/console/preview/embed.js"
	DefaultEventsPath      = "/console/events"
)

// StateProvider exposes the console snapshot rendered by the controller.
type StateProvider interface {
	State() State
}

// ControllerOptions configures the preview host controller.
type ControllerOptions struct {
	Console    StateProvider
	Renderer   Renderer
	Template   string
	Title      string
	SelectorID string
	ScriptPath string
	EventsPath string
	// SocketPath switches the page from server-sent events to a WebSocket.
	SocketPath string
}

// Controller renders the page hosting the live preview.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the console into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = DefaultPreviewTemplate
	}
	if opts.Title == "" {
		opts.Title = "Cookie banner preview"
	}
	if opts.SelectorID == "" {
		opts.SelectorID = DefaultSelectorID
	}
	if opts.ScriptPath == "" {
		opts.ScriptPath = DefaultScriptPath
	}
	if opts.EventsPath == "" {
		opts.EventsPath = DefaultEventsPath
	}
	return &Controller{opts: opts}
}

// State returns the console snapshot.
func (c *Controller) State(context.Context) (State, error) {
	if c.opts.Console == nil {
		return State{}, errors.New("consent: controller requires a console")
	}
	return c.opts.Console.State(), nil
}

// RenderPreview writes the preview host page.
func (c *Controller) RenderPreview(ctx context.Context, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("consent: controller requires a renderer")
	}
	state, err := c.State(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"title":        c.opts.Title,
		"selector_id":  c.opts.SelectorID,
		"script_path":  c.opts.ScriptPath,
		"events_path":  c.opts.EventsPath,
		"socket_path":  c.opts.SocketPath,
		"document":     state.Document,
		"steps":        state.Steps,
		"phase":        state.Phase.State.String(),
		"preview":      state.Preview,
		"regulations":  state.Regulations,
		"visible_keys": state.VisibleKeys,
	}
	if _, err := c.opts.Renderer.Render(c.opts.Template, payload, out); err != nil {
		return fmt.Errorf("consent: render %s: %w", c.opts.Template, err)
	}
	return nil
}
