package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	consent "github.com/goliatone/go-consent/components/consent"
)

// UpdateSettingsInput carries the editable settings fields. Nil fields are
// left untouched.
type UpdateSettingsInput struct {
	DomainID         *string               `json:"domainId,omitempty"`
	GTMID            *string               `json:"gtmId,omitempty"`
	GTMEnabled       *bool                 `json:"gtmEnabled,omitempty"`
	AutoBlockCookies *bool                 `json:"autoBlockCookies,omitempty"`
	Language         *string               `json:"language,omitempty"`
	CookiePreference []string              `json:"cookiePreference,omitempty"`
	Regulation       *consent.RegulationID `json:"regulation,omitempty"`
}

type settingsService interface {
	Update(fn func(*consent.Settings)) consent.Settings
	Save(ctx context.Context) consent.SaveResult
}

// UpdateSettingsCommand wraps SettingsService.Update.
type UpdateSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewUpdateSettingsCommand creates the command.
func NewUpdateSettingsCommand(service settingsService, telemetry Telemetry) *UpdateSettingsCommand {
	return &UpdateSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateSettingsInput] = (*UpdateSettingsCommand)(nil)

// Execute applies the non-nil fields.
func (c *UpdateSettingsCommand) Execute(ctx context.Context, msg UpdateSettingsInput) error {
	if c.service == nil {
		return errors.New("settings command requires service")
	}
	if msg.Regulation != nil {
		if _, ok := consent.DefaultCatalog().Regulation(*msg.Regulation); !ok {
			return fmt.Errorf("%w %q", consent.ErrUnknownRegulation, *msg.Regulation)
		}
	}
	c.service.Update(func(s *consent.Settings) {
		if msg.DomainID != nil {
			s.DomainID = *msg.DomainID
		}
		if msg.GTMID != nil {
			s.GTMID = *msg.GTMID
		}
		if msg.GTMEnabled != nil {
			s.GTMEnabled = *msg.GTMEnabled
		}
		if msg.AutoBlockCookies != nil {
			s.AutoBlockCookies = *msg.AutoBlockCookies
		}
		if msg.Language != nil {
			s.Language = *msg.Language
		}
		if msg.CookiePreference != nil {
			s.CookiePreference = append([]string(nil), msg.CookiePreference...)
		}
		if msg.Regulation != nil {
			s.Regulation = *msg.Regulation
		}
	})
	c.telemetry.Record(ctx, "consent.settings.update", nil)
	return nil
}

// SaveSettingsInput requests a save. Result receives the outcome banner.
type SaveSettingsInput struct {
	ActorID string              `json:"actor_id"`
	Result  *consent.SaveResult `json:"-"`
}

// ErrSaveRejected is returned when the save banner is an error.
var ErrSaveRejected = errors.New("settings save rejected")

// SaveSettingsCommand wraps SettingsService.Save.
type SaveSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewSaveSettingsCommand creates the command.
func NewSaveSettingsCommand(service settingsService, telemetry Telemetry) *SaveSettingsCommand {
	return &SaveSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveSettingsInput] = (*SaveSettingsCommand)(nil)

// Execute saves the form.
func (c *SaveSettingsCommand) Execute(ctx context.Context, msg SaveSettingsInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	result := c.service.Save(ctx)
	if msg.Result != nil {
		*msg.Result = result
	}
	c.telemetry.Record(ctx, "consent.settings.submit", map[string]any{
		"ok":       result.OK(),
		"actor_id": msg.ActorID,
	})
	if !result.OK() {
		return ErrSaveRejected
	}
	return nil
}
