package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	consent "github.com/goliatone/go-consent/components/consent"
)

// PatchDocumentInput sets one document field by path.
type PatchDocumentInput struct {
	Path    string `json:"path"`
	Value   string `json:"value"`
	ActorID string `json:"actor_id"`
}

type documentStore interface {
	PatchField(path string, value string)
}

// PatchDocumentCommand wraps ConfigStore.PatchField. Paths are validated
// first so bad input surfaces as an error instead of a panic.
type PatchDocumentCommand struct {
	store     documentStore
	telemetry Telemetry
}

// NewPatchDocumentCommand creates the command.
func NewPatchDocumentCommand(store documentStore, telemetry Telemetry) *PatchDocumentCommand {
	return &PatchDocumentCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PatchDocumentInput] = (*PatchDocumentCommand)(nil)

// Execute patches the field.
func (c *PatchDocumentCommand) Execute(ctx context.Context, msg PatchDocumentInput) error {
	if c.store == nil {
		return errors.New("patch command requires store")
	}
	if err := consent.ValidateFieldPatch(msg.Path, msg.Value); err != nil {
		return err
	}
	c.store.PatchField(msg.Path, msg.Value)
	c.telemetry.Record(ctx, "consent.document.patch", map[string]any{
		"path":     msg.Path,
		"actor_id": msg.ActorID,
	})
	return nil
}

// PatchButtonInput sets one color property of a consent button.
type PatchButtonInput struct {
	Button   consent.Button         `json:"button"`
	Property consent.ButtonProperty `json:"property"`
	Value    string                 `json:"value"`
	ActorID  string                 `json:"actor_id"`
}

// PatchButtonCommand maps button edits onto document paths.
type PatchButtonCommand struct {
	patch *PatchDocumentCommand
}

// NewPatchButtonCommand creates the command.
func NewPatchButtonCommand(store documentStore, telemetry Telemetry) *PatchButtonCommand {
	return &PatchButtonCommand{patch: NewPatchDocumentCommand(store, telemetry)}
}

var _ gocommand.Commander[PatchButtonInput] = (*PatchButtonCommand)(nil)

// Execute patches the button color.
func (c *PatchButtonCommand) Execute(ctx context.Context, msg PatchButtonInput) error {
	return c.patch.Execute(ctx, PatchDocumentInput{
		Path:    consent.ThemeField(consent.ThemeKey(msg.Button, msg.Property)),
		Value:   msg.Value,
		ActorID: msg.ActorID,
	})
}

// SwitchSchemeInput selects a color scheme.
type SwitchSchemeInput struct {
	Scheme  consent.SchemeType `json:"scheme"`
	ActorID string             `json:"actor_id"`
}

// SwitchSchemeCommand changes the document color scheme.
type SwitchSchemeCommand struct {
	patch *PatchDocumentCommand
}

// NewSwitchSchemeCommand creates the command.
func NewSwitchSchemeCommand(store documentStore, telemetry Telemetry) *SwitchSchemeCommand {
	return &SwitchSchemeCommand{patch: NewPatchDocumentCommand(store, telemetry)}
}

var _ gocommand.Commander[SwitchSchemeInput] = (*SwitchSchemeCommand)(nil)

// Execute switches the scheme.
func (c *SwitchSchemeCommand) Execute(ctx context.Context, msg SwitchSchemeInput) error {
	return c.patch.Execute(ctx, PatchDocumentInput{
		Path:    consent.FieldType,
		Value:   string(msg.Scheme),
		ActorID: msg.ActorID,
	})
}
