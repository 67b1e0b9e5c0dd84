package goadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-consent/pkg/activity"
	consentpkg "github.com/goliatone/go-consent/pkg/consent"
)

// MenuBuilder ensures console entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures console link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the consent console + feature flags into an admin shell.
type Config struct {
	EnableConsole   bool
	LoadSettings    bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Console         *consentpkg.Console
	DefaultMenuItem MenuItem
	ActivityHooks   activity.Hooks
	ActivityConfig  activity.Config
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg     Config
	emitter *activity.Emitter
}

// New creates an Admin helper that can seed console menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableConsole && cfg.Console == nil {
		return nil, errors.New("goadmin: consent console is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Cookie Banner"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "admin.consent"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "shield"
	}
	return &Admin{cfg: cfg, emitter: activity.NewEmitter(cfg.ActivityHooks, cfg.ActivityConfig)}, nil
}

// Console exposes the configured console when enabled.
func (a *Admin) Console() *consentpkg.Console {
	if !a.cfg.EnableConsole {
		return nil
	}
	return a.cfg.Console
}

// StepObserver reports onboarding progress for actor through the admin's
// activity hooks. Pass it in ConsoleOptions.Observers.
func (a *Admin) StepObserver(actor activity.Actor) activity.StepObserver {
	return activity.StepObserver{Emitter: a.emitter, Actor: actor}
}

// Bootstrap seeds menu entries and, when LoadSettings is set, pulls the
// saved settings into the console.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableConsole {
		return nil
	}
	if a.cfg.MenuBuilder != nil {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem); err != nil {
			return err
		}
	}
	if a.cfg.LoadSettings {
		if _, err := a.cfg.Console.Settings().Load(ctx); err != nil {
			return fmt.Errorf("goadmin: load consent settings: %w", err)
		}
	}
	return nil
}
