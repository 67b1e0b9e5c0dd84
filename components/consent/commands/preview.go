package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// TogglePreviewInput shows or hides the live preview.
type TogglePreviewInput struct {
	Enabled bool `json:"enabled"`
}

type previewer interface {
	Enable(ctx context.Context)
	Disable(ctx context.Context)
}

// TogglePreviewCommand wraps PreviewScheduler.Enable/Disable.
type TogglePreviewCommand struct {
	preview   previewer
	telemetry Telemetry
}

// NewTogglePreviewCommand creates the command.
func NewTogglePreviewCommand(preview previewer, telemetry Telemetry) *TogglePreviewCommand {
	return &TogglePreviewCommand{preview: preview, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[TogglePreviewInput] = (*TogglePreviewCommand)(nil)

// Execute toggles the preview.
func (c *TogglePreviewCommand) Execute(ctx context.Context, msg TogglePreviewInput) error {
	if c.preview == nil {
		return errors.New("preview command requires scheduler")
	}
	if msg.Enabled {
		c.preview.Enable(ctx)
	} else {
		c.preview.Disable(ctx)
	}
	c.telemetry.Record(ctx, "consent.preview.toggle", map[string]any{"enabled": msg.Enabled})
	return nil
}
